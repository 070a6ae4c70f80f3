// Package snapshot persists the last confirmed transactions and budgets to a
// local SQLite file so the dashboard can show stale data when the backend is
// unreachable.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"finboard/internal/core"
	"finboard/internal/log"
)

// ErrEmpty is returned by Load when nothing has been saved yet.
var ErrEmpty = errors.New("no snapshot saved")

const savedAtKey = "saved_at"

// Snapshot is a saved copy of the remote lists.
type Snapshot struct {
	Transactions []core.Transaction
	Budgets      []core.Budget
	SavedAt      time.Time
}

type SQLiteStore struct {
	db  *sql.DB
	log *log.Logger
	now func() time.Time
}

func Open(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer keeps SQLITE_BUSY away
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, log: logger.WithComponent(log.ComponentSnapshot), now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, txs []core.Transaction, budgets []core.Budget) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM transactions", "DELETE FROM budgets"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	insTx, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(id, position, amount, date, description, category_id, category_name, type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transactions: %w", err)
	}
	defer insTx.Close()
	for i, t := range txs {
		if _, err := insTx.ExecContext(ctx, t.ID, i, t.Amount, t.Date, t.Description, t.Category.ID, t.Category.Name, string(t.Type)); err != nil {
			return fmt.Errorf("insert transaction %q: %w", t.ID, err)
		}
	}

	insBudget, err := tx.PrepareContext(ctx, `INSERT INTO budgets
		(id, position, category_id, category_name, amount, month)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare budgets: %w", err)
	}
	defer insBudget.Close()
	for i, b := range budgets {
		if _, err := insBudget.ExecContext(ctx, b.ID, i, b.Category.ID, b.Category.Name, b.Amount, b.Month); err != nil {
			return fmt.Errorf("insert budget %q: %w", b.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		savedAtKey, s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("update meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.DebugContext(ctx, "snapshot saved", "transactions", len(txs), "budgets", len(budgets))
	return nil
}

// Load returns the last saved snapshot or ErrEmpty.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE key = ?`, savedAtKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrEmpty
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read meta: %w", err)
	}
	savedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse saved_at: %w", err)
	}

	snap := Snapshot{SavedAt: savedAt, Transactions: []core.Transaction{}, Budgets: []core.Budget{}}

	rows, err := s.db.QueryContext(ctx, `SELECT id, amount, date, description, category_id, category_name, type
		FROM transactions ORDER BY position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t core.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.Amount, &t.Date, &t.Description, &t.Category.ID, &t.Category.Name, &typ); err != nil {
			return Snapshot{}, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}

	brows, err := s.db.QueryContext(ctx, `SELECT id, category_id, category_name, amount, month
		FROM budgets ORDER BY position`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query budgets: %w", err)
	}
	defer brows.Close()
	for brows.Next() {
		var b core.Budget
		if err := brows.Scan(&b.ID, &b.Category.ID, &b.Category.Name, &b.Amount, &b.Month); err != nil {
			return Snapshot{}, fmt.Errorf("scan budget: %w", err)
		}
		snap.Budgets = append(snap.Budgets, b)
	}
	if err := brows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate budgets: %w", err)
	}
	return snap, nil
}
