package services

import (
	"finboard/internal/analytics"
	"finboard/internal/core"
)

// Dashboard is everything the overview page shows, derived from one snapshot.
type Dashboard struct {
	Month       string                       `json:"month"`
	IsLoading   bool                         `json:"isLoading"`
	Error       string                       `json:"error,omitempty"`
	Totals      core.Totals                  `json:"totals"`
	TopCategory *core.CategorySummary        `json:"topCategory,omitempty"`
	Monthly     []core.MonthlyAmount         `json:"monthlyExpenses"`
	Categories  []core.CategorySummary       `json:"categorySummary"`
	Budgets     []analytics.BudgetComparison `json:"budgetComparison"`
	Insights    []analytics.Insight          `json:"insights"`
}

// Dashboard recomputes every derived view. Budget comparison uses month, or
// the selected month when empty; insights are relative to the calendar month of now.
func (s *FinanceService) Dashboard(month string) Dashboard {
	st := s.store.Snapshot()
	if month == "" {
		month = s.Month()
	}

	d := Dashboard{
		Month:      month,
		IsLoading:  st.IsLoading,
		Error:      st.Error,
		Totals:     core.ComputeTotals(st.Transactions),
		Monthly:    nonNil(core.MonthlyExpenses(st.Transactions)),
		Categories: nonNil(core.CategorySummaries(st.Transactions)),
		Budgets:    nonNil(analytics.CompareBudgets(st.Budgets, st.Transactions, month)),
		Insights:   nonNil(analytics.Insights(st.Transactions, st.Budgets, s.now())),
	}
	if top, ok := core.TopCategory(d.Categories); ok {
		d.TopCategory = &top
	}
	return d
}

// Transactions returns the filtered, sorted transaction list.
func (s *FinanceService) Transactions(f core.TransactionFilter) []core.Transaction {
	return core.FilterTransactions(s.store.Snapshot().Transactions, f)
}

// BudgetComparison compares the budgets of month; an empty month means the selected one.
func (s *FinanceService) BudgetComparison(month string) []analytics.BudgetComparison {
	if month == "" {
		month = s.Month()
	}
	st := s.store.Snapshot()
	return nonNil(analytics.CompareBudgets(st.Budgets, st.Transactions, month))
}

func (s *FinanceService) CategorySummary() []core.CategorySummary {
	return nonNil(core.CategorySummaries(s.store.Snapshot().Transactions))
}

func (s *FinanceService) MonthlyExpenses() []core.MonthlyAmount {
	return nonNil(core.MonthlyExpenses(s.store.Snapshot().Transactions))
}

func (s *FinanceService) Insights() []analytics.Insight {
	st := s.store.Snapshot()
	return nonNil(analytics.Insights(st.Transactions, st.Budgets, s.now()))
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
