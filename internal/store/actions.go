package store

import "finboard/internal/core"

// Action is a state transition request. The set of actions is closed.
type Action interface {
	actionName() string
}

type (
	SetLoading struct{ Loading bool }

	// SetError records a message; an empty message clears it.
	SetError struct{ Message string }

	SetTransactions struct{ Transactions []core.Transaction }

	// AddTransaction prepends, so the newest addition is shown first.
	AddTransaction struct{ Transaction core.Transaction }

	UpdateTransaction struct{ Transaction core.Transaction }

	DeleteTransaction struct{ ID string }

	SetBudgets struct{ Budgets []core.Budget }

	AddBudget struct{ Budget core.Budget }

	UpdateBudget struct{ Budget core.Budget }

	DeleteBudget struct{ ID string }
)

func (SetLoading) actionName() string        { return "set_loading" }
func (SetError) actionName() string          { return "set_error" }
func (SetTransactions) actionName() string   { return "set_transactions" }
func (AddTransaction) actionName() string    { return "add_transaction" }
func (UpdateTransaction) actionName() string { return "update_transaction" }
func (DeleteTransaction) actionName() string { return "delete_transaction" }
func (SetBudgets) actionName() string        { return "set_budgets" }
func (AddBudget) actionName() string         { return "add_budget" }
func (UpdateBudget) actionName() string      { return "update_budget" }
func (DeleteBudget) actionName() string      { return "delete_budget" }

// Name returns the snake_case name of an action, for logs and events.
func Name(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}
