package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

func TestStore_ConflictClearsAfterTTL(t *testing.T) {
	s := New(WithConflictTTL(50 * time.Millisecond))
	defer s.Close()

	b := core.Budget{Category: food, Amount: 100, Month: "2024-01"}
	require.NoError(t, s.Dispatch(AddBudget{Budget: b}))

	err := s.Dispatch(AddBudget{Budget: b})
	require.ErrorIs(t, err, ErrBudgetConflict)
	assert.Equal(t, ConflictMessage, s.Snapshot().Error)
	assert.Len(t, s.Budgets(), 1)

	require.Eventually(t, func() bool { return s.Snapshot().Error == "" },
		time.Second, 10*time.Millisecond)
}

func TestStore_StaleTimerKeepsNewerError(t *testing.T) {
	s := New(WithConflictTTL(30 * time.Millisecond))
	defer s.Close()

	b := core.Budget{Category: food, Amount: 100, Month: "2024-01"}
	require.NoError(t, s.Dispatch(AddBudget{Budget: b}))
	require.ErrorIs(t, s.Dispatch(AddBudget{Budget: b}), ErrBudgetConflict)
	require.NoError(t, s.Dispatch(SetError{Message: "Failed to load data"}))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "Failed to load data", s.Snapshot().Error)
}

func TestStore_AssignsBudgetIDs(t *testing.T) {
	n := 0
	s := New(WithIDGenerator(func() string { n++; return "local-" + string(rune('0'+n)) }))
	require.NoError(t, s.Dispatch(
		AddBudget{Budget: core.Budget{Category: food, Month: "2024-01"}},
		AddBudget{Budget: core.Budget{ID: "remote", Category: transport, Month: "2024-01"}},
	))
	got := s.Budgets()
	require.Len(t, got, 2)
	assert.Equal(t, "local-1", got[0].ID)
	assert.Equal(t, "remote", got[1].ID)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := New()
	require.NoError(t, s.Dispatch(SetTransactions{Transactions: []core.Transaction{tx("1", 10)}}))

	snap := s.Snapshot()
	snap.Transactions[0].Amount = 1000
	assert.Equal(t, 10.0, s.Snapshot().Transactions[0].Amount)
}

func TestStore_SubscribeSeesTransitions(t *testing.T) {
	s := New()
	var mu sync.Mutex
	var names []string
	s.Subscribe(func(a Action, next State) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, Name(a))
	})

	require.NoError(t, s.Dispatch(SetLoading{Loading: true}, AddTransaction{Transaction: tx("1", 5)}))
	require.ErrorIs(t, s.Dispatch(UpdateTransaction{Transaction: tx("missing", 1)}), ErrNotFound)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"set_loading", "add_transaction"}, names)
}

func TestStore_ListenersSeeTransitionsInOrder(t *testing.T) {
	s := New()
	var mu sync.Mutex
	var sizes []int
	s.Subscribe(func(a Action, next State) {
		mu.Lock()
		defer mu.Unlock()
		sizes = append(sizes, len(next.Transactions))
	})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Dispatch(AddTransaction{Transaction: tx(fmt.Sprint("t", i), 1)}))
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sizes, n)
	for i, size := range sizes {
		assert.Equal(t, i+1, size, "delivery %d saw a stale state", i)
	}
}

func TestStore_DispatchStopsAtFirstError(t *testing.T) {
	s := New()
	err := s.Dispatch(
		UpdateTransaction{Transaction: tx("missing", 1)},
		AddTransaction{Transaction: tx("1", 5)},
	)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.Snapshot().Transactions)
}

func TestStore_NilPanics(t *testing.T) {
	var s *Store
	assert.PanicsWithValue(t, "store not initialised", func() { s.Snapshot() })
}
