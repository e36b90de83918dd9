package dashboard

import (
	"sort"
	"time"

	"insights/internal/category"
	"insights/internal/core"
)

// defaultMonthlyBudget is the placeholder until budgets become user-editable.
var defaultMonthlyBudget = core.Money{Cents: 350000}

// emergencyFundGoal is the single illustrative savings goal shown on the
// dashboard; goal CRUD is not exposed yet.
var emergencyFundGoal = core.Goal{
	ID:       "goal-emergency-fund",
	Name:     "Emergency fund",
	Target:   core.Money{Cents: 1000000},
	Progress: core.Money{Cents: 420000},
	Priority: 1,
}

// Summarize aggregates a user's transactions into the dashboard payload for
// the given timeframe. Transfers are excluded from every rollup. The caller
// supplies now so summaries are reproducible in tests.
func Summarize(transactions []core.Transaction, tf core.Timeframe, now time.Time) core.DashboardSummary {
	periods := TrailingPeriods(tf, now)
	latest := periods[len(periods)-1]

	cashflow := make([]core.CashflowPoint, len(periods))
	for i, p := range periods {
		cashflow[i].Period = p.Label
	}

	var totals core.SummaryTotals
	var sinceStart core.Money
	breakdown := latestPeriodBreakdown(transactions, latest)

	for _, tx := range transactions {
		if tx.IsTransfer || tx.Type == core.Transfer {
			continue
		}
		// Savings since start span the entire history, not just the window.
		sinceStart = sinceStart.Add(tx.Amount)
		for i, p := range periods {
			if !p.Contains(tx.Date) {
				continue
			}
			switch tx.Type {
			case core.Income:
				cashflow[i].Income = cashflow[i].Income.Add(tx.Amount)
				totals.Income = totals.Income.Add(tx.Amount)
			case core.Expense:
				cashflow[i].Expense = cashflow[i].Expense.Add(tx.Amount.Abs())
				totals.Expenses = totals.Expenses.Add(tx.Amount.Abs())
			default:
				cashflow[i].Other = cashflow[i].Other.Add(tx.Amount)
				totals.Other = totals.Other.Add(tx.Amount)
			}
			break
		}
	}
	totals.Savings = totals.Income.Sub(totals.Expenses)

	latestIncome := cashflow[len(cashflow)-1].Income
	latestExpense := cashflow[len(cashflow)-1].Expense
	latestSavings := latestIncome.Sub(latestExpense)

	topCategories := breakdown
	if len(topCategories) > 6 {
		topCategories = topCategories[:6]
	}

	goal := emergencyFundGoal

	return core.DashboardSummary{
		Cashflow:          cashflow,
		CategoryBreakdown: breakdown,
		Totals:            totals,
		Budget: core.BudgetSnapshot{
			MonthlyBudget:    defaultMonthlyBudget,
			SpentThisMonth:   latestExpense,
			SavingsThisMonth: latestSavings,
			Categories:       topCategories,
		},
		Savings: core.SavingsSnapshot{
			LastPeriod: latestSavings,
			SinceStart: sinceStart,
			Goals:      []core.Goal{goal},
		},
	}
}

// latestPeriodBreakdown sums per-category amounts over the newest bucket
// only: signed sums per category, reported as absolute values. Income rows
// count toward their category just like expenses. Sorting is by descending
// total; equal totals keep first-seen order so repeated calls over the same
// data produce the same breakdown.
func latestPeriodBreakdown(transactions []core.Transaction, latest Period) []core.CategorySpend {
	index := make(map[int]int)
	var rows []core.CategorySpend

	for _, tx := range transactions {
		if tx.IsTransfer || tx.Type == core.Transfer || !latest.Contains(tx.Date) {
			continue
		}
		id := category.Transfers
		if tx.CategoryID != nil {
			id = *tx.CategoryID
		}
		pos, ok := index[id]
		if !ok {
			name := "Uncategorized"
			if c, found := category.ByID(id); found {
				name = c.DisplayName
			}
			pos = len(rows)
			index[id] = pos
			rows = append(rows, core.CategorySpend{CategoryID: id, CategoryName: name})
		}
		rows[pos].Total = rows[pos].Total.Add(tx.Amount)
	}

	for i := range rows {
		rows[i].Total = rows[i].Total.Abs()
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.Cents > rows[j].Total.Cents
	})
	return rows
}
