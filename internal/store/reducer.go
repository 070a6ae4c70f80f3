package store

import (
	"errors"
	"fmt"
	"slices"

	"finboard/internal/core"
)

// ConflictMessage is shown when a budget would duplicate a (category, month) slot.
const ConflictMessage = "Budget already exists for this category and month"

var (
	ErrBudgetConflict = errors.New("budget already exists for this category and month")
	ErrNotFound       = errors.New("record not found")
	ErrUnknownAction  = errors.New("unknown action")
)

// State is the local cache of remote data plus the loading and error flags.
type State struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      []core.Budget      `json:"budgets"`
	IsLoading    bool               `json:"isLoading"`
	Error        string             `json:"error,omitempty"`
}

// Clone returns a copy that shares no slices with s.
func (s State) Clone() State {
	s.Transactions = cloneOrEmpty(s.Transactions)
	s.Budgets = cloneOrEmpty(s.Budgets)
	return s
}

func cloneOrEmpty[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Reduce applies a single action and returns the next state. The input state
// is never modified.
//
// A budget add or update that would duplicate an existing (category name,
// month) slot leaves the budgets untouched, sets Error to ConflictMessage and
// returns ErrBudgetConflict. Updates of unknown ids return ErrNotFound with the
// state unchanged. Deletes of unknown ids are no-ops.
func Reduce(s State, a Action) (State, error) {
	next := s.Clone()

	switch a := a.(type) {
	case SetLoading:
		next.IsLoading = a.Loading
	case SetError:
		next.Error = a.Message
	case SetTransactions:
		next.Transactions = cloneOrEmpty(a.Transactions)
	case AddTransaction:
		next.Transactions = append([]core.Transaction{a.Transaction}, next.Transactions...)
	case UpdateTransaction:
		i := slices.IndexFunc(next.Transactions, func(t core.Transaction) bool { return t.ID == a.Transaction.ID })
		if i < 0 {
			return next, fmt.Errorf("transaction %q: %w", a.Transaction.ID, ErrNotFound)
		}
		next.Transactions[i] = a.Transaction
	case DeleteTransaction:
		next.Transactions = slices.DeleteFunc(next.Transactions, func(t core.Transaction) bool { return t.ID == a.ID })
	case SetBudgets:
		next.Budgets = cloneOrEmpty(a.Budgets)
	case AddBudget:
		if conflicts(next.Budgets, a.Budget, -1) {
			next.Error = ConflictMessage
			return next, ErrBudgetConflict
		}
		next.Budgets = append(next.Budgets, a.Budget)
	case UpdateBudget:
		i := slices.IndexFunc(next.Budgets, func(b core.Budget) bool { return b.ID == a.Budget.ID })
		if i < 0 {
			return next, fmt.Errorf("budget %q: %w", a.Budget.ID, ErrNotFound)
		}
		if conflicts(next.Budgets, a.Budget, i) {
			next.Error = ConflictMessage
			return next, ErrBudgetConflict
		}
		next.Budgets[i] = a.Budget
	case DeleteBudget:
		next.Budgets = slices.DeleteFunc(next.Budgets, func(b core.Budget) bool { return b.ID == a.ID })
	default:
		return next, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
	return next, nil
}

// Conflicts reports whether b would share a (category, month) slot with a
// budget in budgets other than the one carrying b's id.
func Conflicts(budgets []core.Budget, b core.Budget) bool {
	skip := -1
	if b.ID != "" {
		skip = slices.IndexFunc(budgets, func(o core.Budget) bool { return o.ID == b.ID })
	}
	return conflicts(budgets, b, skip)
}

func conflicts(budgets []core.Budget, b core.Budget, skip int) bool {
	for i, other := range budgets {
		if i != skip && other.SameSlot(b) {
			return true
		}
	}
	return false
}
