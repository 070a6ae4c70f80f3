// Package worker keeps the offline snapshot in line with the backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/remote"
)

// Source is the read side of the backend.
type Source interface {
	remote.TransactionReader
	remote.BudgetReader
}

// Sink stores a full copy of the lists.
type Sink interface {
	Save(ctx context.Context, txs []core.Transaction, budgets []core.Budget) error
}

// Stats describe what the worker has done since it started.
type Stats struct {
	Syncs    int
	Failures int
	Events   int
	Skipped  int
	LastSync time.Time
}

// SyncWorker refreshes the snapshot on every change event, and on a fixed
// interval as a backstop for lost messages.
type SyncWorker struct {
	source Source
	sink   Sink
	log    *log.Logger
	now    func() time.Time

	// serialises syncs so two events never write the snapshot concurrently
	syncMu sync.Mutex

	mu    sync.Mutex
	stats Stats
}

func NewSyncWorker(source Source, sink Sink, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		source: source,
		sink:   sink,
		log:    logger.WithComponent(log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleChange processes one change event. Events older than the last
// successful sync are already covered by it and are skipped.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	w.mu.Lock()
	w.stats.Events++
	last := w.stats.LastSync
	w.mu.Unlock()

	fields := log.NewFields().WithEntity(msg.Entity, msg.ID).WithOperation(msg.Operation)
	if !last.IsZero() && msg.Timestamp.Before(last) {
		w.mu.Lock()
		w.stats.Skipped++
		w.mu.Unlock()
		w.log.DebugContext(ctx, "change already covered by last sync", fields.ToSlice()...)
		return nil
	}

	w.log.InfoContext(ctx, "processing change event", fields.ToSlice()...)
	return w.Sync(ctx)
}

// Sync fetches both lists and replaces the snapshot.
func (w *SyncWorker) Sync(ctx context.Context) error {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	started := w.now()
	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = w.source.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = w.source.ListBudgets(gctx)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	err := g.Wait()
	if err == nil {
		if serr := w.sink.Save(ctx, txs, budgets); serr != nil {
			err = fmt.Errorf("save snapshot: %w", serr)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.stats.Failures++
		w.log.ErrorContext(ctx, "snapshot sync failed", log.FieldError, err.Error())
		return err
	}
	w.stats.Syncs++
	w.stats.LastSync = started
	w.log.InfoContext(ctx, "snapshot synced", "transactions", len(txs), "budgets", len(budgets))
	return nil
}

// Run performs a startup sync and then one sync per interval until ctx is
// done. Failed syncs are logged and retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("worker: interval must be positive")
	}
	w.log.InfoContext(ctx, "performing startup sync")
	_ = w.Sync(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = w.Sync(ctx)
		}
	}
}

func (w *SyncWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
