// Package store holds the local copy of transactions and budgets. All changes
// go through Reduce, applied in dispatch order by a Store.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"finboard/internal/core"
	"finboard/internal/log"
)

// DefaultConflictTTL is how long a budget conflict message stays visible.
const DefaultConflictTTL = 3 * time.Second

// Listener observes every state transition. Listeners run in the dispatching
// goroutine after the store lock has been released, one transition at a time
// and in the order the transitions were applied. A listener must not dispatch.
type Listener func(action Action, next State)

type Option func(*Store)

func WithConflictTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.conflictTTL = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.WithComponent(log.ComponentStore)
		}
	}
}

// WithIDGenerator replaces the id source used for budgets added without one.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Store serialises state transitions and owns the conflict clear timer.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []Listener

	conflictTTL time.Duration
	clearTimer  *time.Timer
	errGen      uint64
	closed      bool

	// seq counts applied transitions under mu; delivered is the last one
	// handed to listeners, guarded by notifyMu.
	seq        uint64
	delivered  uint64
	notifyMu   sync.Mutex
	notifyCond *sync.Cond

	newID func() string
	log   *log.Logger
}

func New(opts ...Option) *Store {
	s := &Store{
		state:       State{Transactions: []core.Transaction{}, Budgets: []core.Budget{}},
		conflictTTL: DefaultConflictTTL,
		newID:       uuid.NewString,
		log:         log.Discard(),
	}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) mustInit() {
	if s == nil {
		panic("store not initialised")
	}
}

// Dispatch applies actions in order. It stops at the first action that fails
// a precondition and returns its error; a budget conflict still records the
// conflict message and schedules its removal.
func (s *Store) Dispatch(actions ...Action) error {
	s.mustInit()
	for _, a := range actions {
		if err := s.dispatch(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) dispatch(a Action) error {
	if add, ok := a.(AddBudget); ok && add.Budget.ID == "" {
		add.Budget.ID = s.newID()
		a = add
	}

	s.mu.Lock()
	prev := s.state
	next, err := Reduce(prev, a)
	changed := err == nil || errors.Is(err, ErrBudgetConflict)
	var turn uint64
	if changed {
		s.state = next
		if next.Error != prev.Error || errors.Is(err, ErrBudgetConflict) {
			s.errorChangedLocked(errors.Is(err, ErrBudgetConflict))
		}
		s.seq++
		turn = s.seq
	}
	listeners := append([]Listener(nil), s.listeners...)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	if err != nil {
		s.log.Debug("action rejected", log.FieldAction, Name(a), log.FieldError, err.Error())
	}
	if changed {
		s.notify(turn, a, snapshot, listeners)
	}
	return err
}

// notify waits until every earlier transition has been delivered, then runs
// the listeners for this one.
func (s *Store) notify(turn uint64, a Action, next State, listeners []Listener) {
	s.notifyMu.Lock()
	for s.delivered != turn-1 {
		s.notifyCond.Wait()
	}
	s.notifyMu.Unlock()

	defer func() {
		s.notifyMu.Lock()
		s.delivered = turn
		s.notifyCond.Broadcast()
		s.notifyMu.Unlock()
	}()
	for _, l := range listeners {
		l(a, next)
	}
}

// errorChangedLocked invalidates any pending clear and, for conflicts, arms a
// new one. A timer only clears the error it was armed for.
func (s *Store) errorChangedLocked(conflict bool) {
	s.errGen++
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
	if !conflict || s.closed {
		return
	}
	gen := s.errGen
	s.clearTimer = time.AfterFunc(s.conflictTTL, func() { s.clearError(gen) })
}

func (s *Store) clearError(gen uint64) {
	s.mu.Lock()
	if gen != s.errGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.clearTimer = nil
	a := SetError{}
	s.state, _ = Reduce(s.state, a)
	s.errGen++
	s.seq++
	turn := s.seq
	listeners := append([]Listener(nil), s.listeners...)
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.notify(turn, a, snapshot, listeners)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mustInit()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Budgets returns a copy of the current budgets.
func (s *Store) Budgets() []core.Budget {
	return s.Snapshot().Budgets
}

// Subscribe registers l for every subsequent transition.
func (s *Store) Subscribe(l Listener) {
	s.mustInit()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Close stops any pending conflict timer. The store stays readable.
func (s *Store) Close() {
	s.mustInit()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.clearTimer != nil {
		s.clearTimer.Stop()
		s.clearTimer = nil
	}
}
