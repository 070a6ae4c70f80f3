package analytics

import (
	"fmt"
	"math"
	"time"

	"finboard/internal/core"
)

type Tone string

const (
	TonePositive Tone = "positive"
	ToneWarning  Tone = "warning"
	ToneInfo     Tone = "info"
)

type InsightKind string

const (
	KindTrend       InsightKind = "trend"
	KindTopCategory InsightKind = "top_category"
	KindOverBudget  InsightKind = "over_budget"
	KindNearLimit   InsightKind = "near_limit"
	KindOnTrack     InsightKind = "on_track"
)

type Insight struct {
	Kind        InsightKind `json:"kind"`
	Tone        Tone        `json:"tone"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Value       string      `json:"value"`
}

// Insights derives the dashboard insights for the calendar month containing now.
// An insight is only produced when its triggering data exists.
func Insights(txs []core.Transaction, budgets []core.Budget, now time.Time) []Insight {
	current := core.MonthOf(now)
	var out []Insight

	if in, ok := trendInsight(txs, current, core.PreviousMonth(now)); ok {
		out = append(out, in)
	}
	if in, ok := topCategoryInsight(txs, current); ok {
		out = append(out, in)
	}
	return append(out, budgetInsights(CompareBudgets(budgets, txs, current))...)
}

func trendInsight(txs []core.Transaction, current, previous string) (Insight, bool) {
	prev := core.MonthExpenses(txs, previous)
	if prev <= 0 {
		return Insight{}, false
	}
	cur := core.MonthExpenses(txs, current)
	change := (cur - prev) / prev * 100

	in := Insight{Kind: KindTrend, Title: "Monthly Spending Trend"}
	switch {
	case change > 0:
		in.Tone = ToneWarning
		in.Description = fmt.Sprintf("Your expenses increased by %.1f%% compared to last month", change)
		in.Value = fmt.Sprintf("+%.1f%%", change)
	case change < 0:
		in.Tone = TonePositive
		in.Description = fmt.Sprintf("Your expenses decreased by %.1f%% compared to last month", math.Abs(change))
		in.Value = fmt.Sprintf("%.1f%%", change)
	default:
		in.Tone = TonePositive
		in.Description = "Your expenses are unchanged compared to last month"
		in.Value = "0.0%"
	}
	return in, true
}

func topCategoryInsight(txs []core.Transaction, current string) (Insight, bool) {
	top, ok := core.TopCategory(core.CategorySummaries(core.InMonth(txs, current)))
	if !ok {
		return Insight{}, false
	}
	return Insight{
		Kind:        KindTopCategory,
		Tone:        ToneInfo,
		Title:       "Top Spending Category",
		Description: fmt.Sprintf("%s accounts for %.1f%% of your expenses", top.Category, top.Percentage),
		Value:       core.FormatCurrency(top.Total),
	}, true
}

func budgetInsights(cmp []BudgetComparison) []Insight {
	counts := map[Status]int{}
	for _, c := range cmp {
		counts[c.Status]++
	}

	var out []Insight
	if n := counts[StatusOverBudget]; n > 0 {
		out = append(out, Insight{
			Kind:        KindOverBudget,
			Tone:        ToneWarning,
			Title:       "Over Budget",
			Description: fmt.Sprintf("You're over budget in %s", categories(n)),
			Value:       categories(n),
		})
	}
	if n := counts[StatusNearLimit]; n > 0 {
		out = append(out, Insight{
			Kind:        KindNearLimit,
			Tone:        ToneWarning,
			Title:       "Near Budget Limit",
			Description: fmt.Sprintf("You're close to your budget limit in %s", categories(n)),
			Value:       categories(n),
		})
	}
	if n := counts[StatusOnTrack]; n > 0 {
		out = append(out, Insight{
			Kind:        KindOnTrack,
			Tone:        TonePositive,
			Title:       "On Track",
			Description: fmt.Sprintf("You're on track with your budget in %s", categories(n)),
			Value:       categories(n),
		})
	}
	return out
}

func categories(n int) string {
	if n == 1 {
		return "1 category"
	}
	return fmt.Sprintf("%d categories", n)
}
