package core

import (
	"sort"
	"strings"
	"time"
)

// CategorySummary is the expense share of one category within a snapshot.
type CategorySummary struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MonthlyAmount is one point of the monthly expense series.
type MonthlyAmount struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// Totals are the headline figures of a snapshot.
type Totals struct {
	Income       float64 `json:"totalIncome"`
	Expenses     float64 `json:"totalExpenses"`
	Net          float64 `json:"netIncome"`
	IncomeCount  int     `json:"incomeCount"`
	ExpenseCount int     `json:"expenseCount"`
}

// CategorySummaries groups expense transactions by category name.
// Income is ignored. Categories appear in the order they are first seen.
func CategorySummaries(txs []Transaction) []CategorySummary {
	index := map[string]int{}
	var out []CategorySummary
	var sum float64
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		i, ok := index[t.Category.Name]
		if !ok {
			i = len(out)
			index[t.Category.Name] = i
			out = append(out, CategorySummary{Category: t.Category.Name})
		}
		out[i].Total += t.Amount
		out[i].Count++
		sum += t.Amount
	}
	for i := range out {
		if sum > 0 {
			out[i].Percentage = out[i].Total / sum * 100
		}
	}
	return out
}

// TopCategory returns the summary with the largest total; the first one wins ties.
func TopCategory(summaries []CategorySummary) (CategorySummary, bool) {
	if len(summaries) == 0 {
		return CategorySummary{}, false
	}
	top := summaries[0]
	for _, s := range summaries[1:] {
		if s.Total > top.Total {
			top = s
		}
	}
	return top, true
}

// MonthlyExpenses sums expenses per month key, ascending. Months without expenses are omitted.
func MonthlyExpenses(txs []Transaction) []MonthlyAmount {
	totals := map[string]float64{}
	for _, t := range txs {
		if !t.IsExpense() {
			continue
		}
		totals[t.Month()] += t.Amount
	}
	out := make([]MonthlyAmount, 0, len(totals))
	for month, amount := range totals {
		out = append(out, MonthlyAmount{Month: month, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// MonthExpenses sums the expenses dated in the given month.
func MonthExpenses(txs []Transaction, month string) float64 {
	var sum float64
	for _, t := range txs {
		if t.IsExpense() && t.Month() == month {
			sum += t.Amount
		}
	}
	return sum
}

// InMonth returns the transactions dated in the given month, order preserved.
func InMonth(txs []Transaction, month string) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if t.Month() == month {
			out = append(out, t)
		}
	}
	return out
}

func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income += tx.Amount
			t.IncomeCount++
		case Expense:
			t.Expenses += tx.Amount
			t.ExpenseCount++
		}
	}
	t.Net = t.Income - t.Expenses
	return t
}

const (
	SortByDate   = "date"
	SortByAmount = "amount"
)

// TransactionFilter narrows and orders a transaction list for display.
type TransactionFilter struct {
	Search string          // case-insensitive substring of the description
	Type   TransactionType // empty means all
	SortBy string          // "date" (default) or "amount", both descending
}

// FilterTransactions returns a new slice; the input is left untouched.
func FilterTransactions(txs []Transaction, f TransactionFilter) []Transaction {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if needle != "" && !strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		out = append(out, t)
	}
	switch f.SortBy {
	case SortByAmount:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	default:
		sort.SliceStable(out, func(i, j int) bool { return dateOf(out[i]).After(dateOf(out[j])) })
	}
	return out
}

func dateOf(t Transaction) time.Time {
	d, _ := time.Parse(dateLayout, t.Date)
	return d
}
