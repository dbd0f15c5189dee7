package dto

import (
	"time"

	"fintrack/internal/service"
)

// MonthTotalsDTO sums the current month
type MonthTotalsDTO struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
	Count   int    `json:"count"`
}

// BudgetDTO is the month-end projection against the monthly budget
type BudgetDTO struct {
	MonthlyBudget    string  `json:"monthly_budget"`
	MonthlyExpenses  string  `json:"monthly_expenses"`
	PercentUsed      float64 `json:"percent_used"`
	Remaining        string  `json:"remaining"`
	DailyAverage     string  `json:"daily_average"`
	ProjectedExpense string  `json:"projected_expense"`
	WillExceedBudget bool    `json:"will_exceed_budget"`
}

// CategorySpendDTO is one slice of the spending breakdown
type CategorySpendDTO struct {
	CategoryID string  `json:"category_id,omitempty"`
	Name       string  `json:"name"`
	Color      string  `json:"color,omitempty"`
	Total      string  `json:"total"`
	Percentage float64 `json:"percentage"`
}

// InsightsResponseDTO is the caller's current-month summary
type InsightsResponseDTO struct {
	Month    string             `json:"month" example:"2025-03"`
	Totals   MonthTotalsDTO     `json:"totals"`
	Budget   *BudgetDTO         `json:"budget,omitempty"`
	Spending []CategorySpendDTO `json:"spending"`
}

// ExportResponseDTO links to a finished CSV export
type ExportResponseDTO struct {
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewInsightsResponse(in *service.Insights) InsightsResponseDTO {
	spending := make([]CategorySpendDTO, len(in.Spending))
	for i, s := range in.Spending {
		spending[i] = CategorySpendDTO{
			CategoryID: s.CategoryID,
			Name:       s.Name,
			Color:      s.Color,
			Total:      Money(s.Total),
			Percentage: s.Percentage,
		}
	}
	resp := InsightsResponseDTO{
		Month: in.Month,
		Totals: MonthTotalsDTO{
			Income:  Money(in.Totals.Income),
			Expense: Money(in.Totals.Expense),
			Balance: Money(in.Totals.Balance),
			Count:   in.Totals.Count,
		},
		Spending: spending,
	}
	if b := in.Budget; b != nil {
		resp.Budget = &BudgetDTO{
			MonthlyBudget:    Money(b.MonthlyBudget),
			MonthlyExpenses:  Money(b.MonthlyExpenses),
			PercentUsed:      b.PercentUsed,
			Remaining:        Money(b.Remaining),
			DailyAverage:     Money(b.DailyAverage),
			ProjectedExpense: Money(b.ProjectedExpense),
			WillExceedBudget: b.WillExceedBudget,
		}
	}
	return resp
}
