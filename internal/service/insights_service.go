package service

import (
	"context"
	"time"

	"fintrack/internal/insights"
	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SpendingTopN is how many categories the breakdown names before folding into "Other".
const SpendingTopN = 5

// Insights is the current-month dashboard summary for one user.
type Insights struct {
	Month    string
	Totals   insights.Totals
	Budget   *insights.Budget
	Spending []insights.CategorySpend
}

type InsightsService interface {
	// ForUser summarizes the current month. budget overrides the stored
	// monthly_budget preference when non-nil.
	ForUser(ctx context.Context, userID string, budget *decimal.Decimal) (*Insights, error)
}

type insightsService struct {
	txns       repository.TransactionRepository
	categories repository.CategoryRepository
	prefs      PreferencesService
	now        func() time.Time
	logger     zerolog.Logger
}

func NewInsightsService(txns repository.TransactionRepository, categories repository.CategoryRepository, prefs PreferencesService, logger zerolog.Logger) InsightsService {
	return &insightsService{
		txns:       txns,
		categories: categories,
		prefs:      prefs,
		now:        time.Now,
		logger:     logger.With().Str("service", "InsightsService").Logger(),
	}
}

func (s *insightsService) ForUser(ctx context.Context, userID string, budget *decimal.Decimal) (*Insights, error) {
	if budget != nil && budget.IsNegative() {
		return nil, invalidf("budget must not be negative")
	}
	now := s.now().UTC()
	start, end := monthWindow(now)
	last := end.Add(-time.Nanosecond)

	txns, err := s.txns.ListTransactions(ctx, userID, model.TransactionFilter{From: &start, To: &last})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load transactions for insights")
		return nil, err
	}
	cats, err := s.categories.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		p, err := s.prefs.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		budget = p.MonthlyBudget
	}

	out := &Insights{
		Month:    start.Format("2006-01"),
		Totals:   insights.MonthTotals(txns, now),
		Spending: insights.SpendingByCategory(txns, cats, SpendingTopN),
	}
	if budget != nil && budget.IsPositive() {
		daysInMonth := int(end.Sub(start).Hours() / 24)
		b := insights.BudgetProgress(out.Totals.Expense, *budget, now.Day(), daysInMonth)
		out.Budget = &b
	}
	return out, nil
}
