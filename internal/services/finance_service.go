package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/remote"
	"finboard/internal/snapshot"
	"finboard/internal/store"
)

const categoriesKey = "categories"

// SnapshotStore keeps the last confirmed lists for offline fallback.
type SnapshotStore interface {
	Save(ctx context.Context, txs []core.Transaction, budgets []core.Budget) error
	Load(ctx context.Context) (snapshot.Snapshot, error)
}

// Options wires a FinanceService. Backend and Store are required.
type Options struct {
	Backend    remote.Backend
	Store      *store.Store
	Categories cache.Cache[[]core.Category]
	Publisher  amqp.Publisher
	Snapshots  SnapshotStore
	Logger     *log.Logger
	Now        func() time.Time
	// NewID names records the backend returned without an id.
	NewID      func() string
}

// FinanceService applies the remote-then-local mutation flow: validate, write
// to the backend, and only on success dispatch the matching store action.
type FinanceService struct {
	backend    remote.Backend
	store      *store.Store
	categories cache.Cache[[]core.Category]
	publisher  amqp.Publisher
	snapshots  SnapshotStore
	log        *log.Logger
	now        func() time.Time
	newID      func() string

	// held by every writer of the budget list so the slot check and the
	// write cannot interleave
	budgetMu sync.Mutex

	monthMu sync.RWMutex
	month   string

	loaded atomic.Bool
}

func NewFinanceService(opts Options) *FinanceService {
	if opts.Backend == nil || opts.Store == nil {
		panic("services: backend and store are required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Categories == nil {
		opts.Categories = cache.NewLRUCache[[]core.Category](1, time.Minute)
	}
	if opts.Publisher == nil {
		opts.Publisher = amqp.NewLogPublisher(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	s := &FinanceService{
		backend:    opts.Backend,
		store:      opts.Store,
		categories: opts.Categories,
		publisher:  opts.Publisher,
		snapshots:  opts.Snapshots,
		log:        opts.Logger.WithComponent(log.ComponentService),
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if s.snapshots != nil {
		s.store.Subscribe(s.persist)
	}
	return s
}

// Ready reports whether the first Load has finished, successfully or not.
func (s *FinanceService) Ready() bool { return s.loaded.Load() }

// State returns a copy of the local cache.
func (s *FinanceService) State() store.State { return s.store.Snapshot() }

// Load fetches transactions and budgets concurrently and replaces the local
// lists. On failure the error message is recorded and, when a snapshot store
// is configured, the last saved lists are shown instead.
func (s *FinanceService) Load(ctx context.Context) error {
	_ = s.store.Dispatch(store.SetLoading{Loading: true})
	defer func() {
		_ = s.store.Dispatch(store.SetLoading{Loading: false})
		s.loaded.Store(true)
	}()

	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.backend.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.backend.ListBudgets(gctx)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.ErrorContext(ctx, "load failed", log.FieldOperation, log.OpLoad, log.FieldError, err.Error())
		_ = s.store.Dispatch(store.SetError{Message: LoadFailedMessage})
		s.restoreSnapshot(ctx)
		return err
	}

	actions := []store.Action{
		store.SetTransactions{Transactions: txs},
		store.SetBudgets{Budgets: budgets},
	}
	if s.store.Snapshot().Error == LoadFailedMessage {
		actions = append(actions, store.SetError{})
	}
	s.budgetMu.Lock()
	err := s.store.Dispatch(actions...)
	s.budgetMu.Unlock()
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "data loaded", "transactions", len(txs), "budgets", len(budgets))
	return nil
}

func (s *FinanceService) restoreSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		if !errors.Is(err, snapshot.ErrEmpty) {
			s.log.WarnContext(ctx, "snapshot unavailable", log.FieldError, err.Error())
		}
		return
	}
	s.budgetMu.Lock()
	_ = s.store.Dispatch(
		store.SetTransactions{Transactions: snap.Transactions},
		store.SetBudgets{Budgets: snap.Budgets},
	)
	s.budgetMu.Unlock()
	s.log.InfoContext(ctx, "showing saved snapshot", "saved_at", snap.SavedAt.Format(time.RFC3339))
}

// persist saves the lists after every transition that touched them.
func (s *FinanceService) persist(a store.Action, next store.State) {
	switch a.(type) {
	case store.SetLoading, store.SetError:
		return
	}
	if err := s.snapshots.Save(context.Background(), next.Transactions, next.Budgets); err != nil {
		s.log.Warn("snapshot save failed", log.FieldAction, store.Name(a), log.FieldError, err.Error())
	}
}

// Categories returns the catalog, read through the cache.
func (s *FinanceService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.categories.GetOrLoad(ctx, categoriesKey, s.backend.ListCategories)
	if err != nil {
		s.log.WarnContext(ctx, "category catalog unavailable", log.FieldOperation, log.OpList, log.FieldError, err.Error())
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return append([]core.Category(nil), cats...), nil
}

// BudgetCategories is the catalog without the income category.
func (s *FinanceService) BudgetCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return core.BudgetCategories(cats), nil
}

// Month is the month the dashboard is looking at, defaulting to the current one.
func (s *FinanceService) Month() string {
	s.monthMu.RLock()
	defer s.monthMu.RUnlock()
	if s.month != "" {
		return s.month
	}
	return core.MonthOf(s.now())
}

func (s *FinanceService) SetMonth(month string) error {
	if !core.IsMonthKey(month) {
		return invalid(core.ErrInvalidMonth)
	}
	s.monthMu.Lock()
	s.month = month
	s.monthMu.Unlock()
	return nil
}

func (s *FinanceService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	created, err := s.backend.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, s.mutationFailed(ctx, log.OpCreate, amqp.EntityTransaction, "", err)
	}
	if created.ID == "" {
		created.ID = s.newID()
	}
	if err := s.store.Dispatch(store.AddTransaction{Transaction: created}); err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.OperationCreate, created.ID, created.Month())
	return created, nil
}

// UpdateTransaction replaces a transaction in the local cache. The backend has
// no update endpoint, so nothing is sent remotely.
func (s *FinanceService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return invalid(err)
	}
	if err := s.store.Dispatch(store.UpdateTransaction{Transaction: t}); err != nil {
		return err
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.OperationUpdate, t.ID, t.Month())
	return nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.backend.DeleteTransaction(ctx, id); err != nil {
		return s.mutationFailed(ctx, log.OpDelete, amqp.EntityTransaction, id, err)
	}
	if err := s.store.Dispatch(store.DeleteTransaction{ID: id}); err != nil {
		return err
	}
	s.publish(ctx, amqp.EntityTransaction, amqp.OperationDelete, id, "")
	return nil
}

// AddBudget rejects a duplicate (category, month) slot before calling the
// backend. The rejection still goes through the store so the conflict message
// is shown and later cleared.
func (s *FinanceService) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, invalid(err)
	}
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()

	if store.Conflicts(s.store.Budgets(), core.Budget{Category: b.Category, Month: b.Month}) {
		s.logConflict(ctx, log.OpCreate, b)
		return core.Budget{}, s.store.Dispatch(store.AddBudget{Budget: b})
	}

	created, err := s.backend.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, s.mutationFailed(ctx, log.OpCreate, amqp.EntityBudget, "", err)
	}
	if created.ID == "" {
		created.ID = s.newID()
	}
	if err := s.store.Dispatch(store.AddBudget{Budget: created}); err != nil {
		return core.Budget{}, err
	}
	s.publish(ctx, amqp.EntityBudget, amqp.OperationCreate, created.ID, created.Month)
	return created, nil
}

// UpdateBudget is local only, like UpdateTransaction.
func (s *FinanceService) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return invalid(err)
	}
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()

	if err := s.store.Dispatch(store.UpdateBudget{Budget: b}); err != nil {
		if errors.Is(err, store.ErrBudgetConflict) {
			s.logConflict(ctx, log.OpUpdate, b)
		}
		return err
	}
	s.publish(ctx, amqp.EntityBudget, amqp.OperationUpdate, b.ID, b.Month)
	return nil
}

func (s *FinanceService) DeleteBudget(ctx context.Context, id string) error {
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()

	if err := s.backend.DeleteBudget(ctx, id); err != nil {
		return s.mutationFailed(ctx, log.OpDelete, amqp.EntityBudget, id, err)
	}
	if err := s.store.Dispatch(store.DeleteBudget{ID: id}); err != nil {
		return err
	}
	s.publish(ctx, amqp.EntityBudget, amqp.OperationDelete, id, "")
	return nil
}

func (s *FinanceService) mutationFailed(ctx context.Context, op, entity, id string, err error) error {
	errType := log.ErrorTypeNetwork
	if errors.Is(err, remote.ErrNotFound) {
		errType = log.ErrorTypeNotFound
	}
	fields := log.NewFields().
		WithOperation(op).
		WithEntity(entity, id).
		WithError(err).
		WithErrorType(errType)
	s.log.ErrorContext(ctx, "remote mutation failed", fields.ToSlice()...)
	return &MutationError{Op: op + " " + entity, Err: err}
}

func (s *FinanceService) logConflict(ctx context.Context, op string, b core.Budget) {
	fields := log.NewFields().
		WithOperation(op).
		WithBudget(b.Category.Name, b.Month, b.Amount).
		WithError(store.ErrBudgetConflict).
		WithErrorType(log.ErrorTypeConflict)
	s.log.WarnContext(ctx, "budget slot already taken", fields.ToSlice()...)
}

// publish announces a confirmed change. Failures are only logged.
func (s *FinanceService) publish(ctx context.Context, entity, op, id, month string) {
	if err := s.publisher.Publish(ctx, amqp.NewChangeMessage(entity, op, id, month)); err != nil {
		s.log.WarnContext(ctx, "change event not published",
			log.FieldEntity, entity, log.FieldOperation, op, log.FieldID, id, log.FieldError, err.Error())
	}
}
