// Package analytics derives budget comparisons and spending insights from a
// snapshot of transactions and budgets. Everything here is pure.
package analytics

import "finboard/internal/core"

type Status string

const (
	StatusOnTrack    Status = "on track"
	StatusNearLimit  Status = "near limit"
	StatusOverBudget Status = "over budget"
)

// NearLimitThreshold is the spent percentage above which a budget is close to its limit.
const NearLimitThreshold = 80.0

// BudgetComparison is one budget measured against the expenses of its month.
type BudgetComparison struct {
	BudgetID   string  `json:"budgetId,omitempty"`
	Category   string  `json:"category"`
	Month      string  `json:"month"`
	Budget     float64 `json:"budget"`
	Spent      float64 `json:"spent"`
	Capped     float64 `json:"capped"`
	Remaining  float64 `json:"remaining"`
	OverBudget float64 `json:"overBudget"`
	Percentage float64 `json:"percentage"`
	Status     Status  `json:"status"`
}

// Classify maps a spent percentage onto a budget status.
func Classify(percentage float64) Status {
	switch {
	case percentage > 100:
		return StatusOverBudget
	case percentage > NearLimitThreshold:
		return StatusNearLimit
	default:
		return StatusOnTrack
	}
}

// CompareBudgets measures every budget of the given month against the expense
// transactions sharing its category name and month, in budget order.
func CompareBudgets(budgets []core.Budget, txs []core.Transaction, month string) []BudgetComparison {
	out := make([]BudgetComparison, 0, len(budgets))
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		out = append(out, Compare(b, txs))
	}
	return out
}

// Compare measures a single budget.
func Compare(b core.Budget, txs []core.Transaction) BudgetComparison {
	var spent float64
	for _, t := range txs {
		if t.IsExpense() && t.Category.Name == b.Category.Name && t.Month() == b.Month {
			spent += t.Amount
		}
	}
	var pct float64
	if b.Amount > 0 {
		pct = spent / b.Amount * 100
	}
	return BudgetComparison{
		BudgetID:   b.ID,
		Category:   b.Category.Name,
		Month:      b.Month,
		Budget:     b.Amount,
		Spent:      spent,
		Capped:     min(spent, b.Amount),
		Remaining:  max(0, b.Amount-spent),
		OverBudget: max(0, spent-b.Amount),
		Percentage: pct,
		Status:     Classify(pct),
	}
}
