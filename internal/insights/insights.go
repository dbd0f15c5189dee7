// Package insights computes the per-user summaries shown on the dashboard:
// current-month totals, budget projection and spending by category.
package insights

import (
	"sort"
	"time"

	"fintrack/internal/model"

	"github.com/shopspring/decimal"
)

// OtherLabel names the bucket that absorbs categories beyond the top N.
const OtherLabel = "Other"

var hundred = decimal.NewFromInt(100)

// Budget is the month-to-date position against a monthly budget.
type Budget struct {
	MonthlyBudget    decimal.Decimal `json:"monthly_budget"`
	MonthlyExpenses  decimal.Decimal `json:"monthly_expenses"`
	PercentUsed      float64         `json:"percent_used"`
	Remaining        decimal.Decimal `json:"remaining"`
	DailyAverage     decimal.Decimal `json:"daily_average"`
	ProjectedExpense decimal.Decimal `json:"projected_expense"`
	WillExceedBudget bool            `json:"will_exceed_budget"`
}

// BudgetProgress projects month-end spend linearly from the daily average so far:
// projected = expenses + (expenses/currentDay) * (daysInMonth - currentDay).
func BudgetProgress(monthlyExpenses, monthlyBudget decimal.Decimal, currentDay, daysInMonth int) Budget {
	if currentDay < 1 {
		currentDay = 1
	}
	if daysInMonth < currentDay {
		daysInMonth = currentDay
	}

	daily := monthlyExpenses.Div(decimal.NewFromInt(int64(currentDay)))
	projected := monthlyExpenses.Add(daily.Mul(decimal.NewFromInt(int64(daysInMonth - currentDay))))

	b := Budget{
		MonthlyBudget:    monthlyBudget,
		MonthlyExpenses:  monthlyExpenses,
		Remaining:        monthlyBudget.Sub(monthlyExpenses),
		DailyAverage:     daily.Round(2),
		ProjectedExpense: projected.Round(2),
		WillExceedBudget: projected.GreaterThan(monthlyBudget),
	}
	if monthlyBudget.IsPositive() {
		b.PercentUsed = monthlyExpenses.Div(monthlyBudget).Mul(hundred).Round(1).InexactFloat64()
	}
	return b
}

// Totals sums one month of transactions.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
	Count   int             `json:"count"`
}

// MonthTotals sums the transactions dated in now's calendar month.
func MonthTotals(txns []model.Transaction, now time.Time) Totals {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)

	t := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for i := range txns {
		tx := &txns[i]
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		t.Count++
		switch tx.Type {
		case model.TypeIncome:
			t.Income = t.Income.Add(tx.Amount)
		case model.TypeExpense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// CategorySpend is one slice of the spending breakdown.
type CategorySpend struct {
	CategoryID string          `json:"category_id,omitempty"`
	Name       string          `json:"name"`
	Color      string          `json:"color,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Percentage float64         `json:"percentage"`
}

// SpendingByCategory groups expenses by category, largest first. Categories past
// topN are folded into a single OtherLabel entry; topN <= 0 keeps them all.
// Expenses without a known category are reported under OtherLabel as well.
func SpendingByCategory(txns []model.Transaction, categories []model.Category, topN int) []CategorySpend {
	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	totals := map[string]decimal.Decimal{}
	grand := decimal.Zero
	for i := range txns {
		tx := &txns[i]
		if tx.Type != model.TypeExpense {
			continue
		}
		key := ""
		if tx.CategoryID != nil {
			if _, ok := byID[*tx.CategoryID]; ok {
				key = *tx.CategoryID
			}
		}
		totals[key] = totals[key].Add(tx.Amount)
		grand = grand.Add(tx.Amount)
	}

	slices := make([]CategorySpend, 0, len(totals))
	uncategorized := decimal.Zero
	for id, total := range totals {
		if id == "" {
			uncategorized = total
			continue
		}
		c := byID[id]
		slices = append(slices, CategorySpend{CategoryID: id, Name: c.Name, Color: c.Color, Total: total})
	}
	sort.Slice(slices, func(i, j int) bool {
		if cmp := slices[i].Total.Cmp(slices[j].Total); cmp != 0 {
			return cmp > 0
		}
		return slices[i].Name < slices[j].Name
	})

	other := uncategorized
	if topN > 0 && len(slices) > topN {
		for _, s := range slices[topN:] {
			other = other.Add(s.Total)
		}
		slices = slices[:topN]
	}
	if other.IsPositive() {
		slices = append(slices, CategorySpend{Name: OtherLabel, Total: other})
	}

	if grand.IsPositive() {
		for i := range slices {
			slices[i].Percentage = slices[i].Total.Div(grand).Mul(hundred).Round(1).InexactFloat64()
		}
	}
	return slices
}
