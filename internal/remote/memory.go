package remote

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"finboard/internal/core"
)

// DefaultCategories is the catalog served when no seed file is present.
var DefaultCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	core.IncomeCategoryName,
	"Other",
}

// MemoryBackend keeps everything in process. Ids are sequential per kind.
type MemoryBackend struct {
	mu           sync.Mutex
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
	seq          int
}

// NewMemoryBackend builds a backend whose catalog holds names, in order, with
// ids "1", "2", ... Duplicate and blank names are dropped.
func NewMemoryBackend(names []string) *MemoryBackend {
	names = dedupe(names)
	cats := make([]core.Category, len(names))
	for i, n := range names {
		cats[i] = core.Category{ID: strconv.Itoa(i + 1), Name: n}
	}
	return &MemoryBackend{categories: cats}
}

// NewMemoryBackendFromDir seeds the catalog from base/seed_categories.txt,
// one name per line, falling back to DefaultCategories.
func NewMemoryBackendFromDir(base string) *MemoryBackend {
	names := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(names) == 0 {
		names = DefaultCategories
	}
	return NewMemoryBackend(names)
}

func (m *MemoryBackend) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *MemoryBackend) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Transaction{}, m.transactions...), nil
}

func (m *MemoryBackend) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID("tx-")
	m.transactions = append(m.transactions, t)
	return t, nil
}

func (m *MemoryBackend) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.transactions {
		if t.ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %q: %w", id, ErrNotFound)
}

func (m *MemoryBackend) ListBudgets(_ context.Context) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Budget{}, m.budgets...), nil
}

func (m *MemoryBackend) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID("bg-")
	m.budgets = append(m.budgets, b)
	return b, nil
}

func (m *MemoryBackend) DeleteBudget(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.budgets {
		if b.ID == id {
			m.budgets = append(m.budgets[:i], m.budgets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("budget %q: %w", id, ErrNotFound)
}

func (m *MemoryBackend) ListCategories(_ context.Context) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Category{}, m.categories...), nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe trims and drops blanks and repeats, keeping input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
