package repository

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PreferencesRepository stores per-user preferences.
type PreferencesRepository interface {
	GetPreferences(ctx context.Context, userID string) (*model.UserPreferences, error)
	// CreateDefaultPreferences inserts p unless the user already has a row, and returns the stored row.
	CreateDefaultPreferences(ctx context.Context, p *model.UserPreferences) (*model.UserPreferences, error)
	SavePreferences(ctx context.Context, p *model.UserPreferences) error
}

type preferencesRepo struct {
	pool *pgxpool.Pool
}

// NewPreferencesRepo creates a new PreferencesRepository.
func NewPreferencesRepo(pool *pgxpool.Pool) PreferencesRepository {
	return &preferencesRepo{pool: pool}
}

const preferencesColumns = `user_id, email_notifications, marketing_emails, theme, locale, currency, monthly_budget, updated_at`

func scanPreferences(row pgx.Row) (*model.UserPreferences, error) {
	var p model.UserPreferences
	var budget decimal.NullDecimal
	if err := row.Scan(
		&p.UserID,
		&p.EmailNotifications,
		&p.MarketingEmails,
		&p.Theme,
		&p.Locale,
		&p.Currency,
		&budget,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if budget.Valid {
		p.MonthlyBudget = &budget.Decimal
	}
	return &p, nil
}

func budgetArg(b *decimal.Decimal) decimal.NullDecimal {
	if b == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *b, Valid: true}
}

func (r *preferencesRepo) GetPreferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	p, err := scanPreferences(r.pool.QueryRow(ctx, `SELECT `+preferencesColumns+` FROM user_preferences WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting preferences for user %s: %w", userID, err)
	}
	return p, nil
}

func (r *preferencesRepo) CreateDefaultPreferences(ctx context.Context, p *model.UserPreferences) (*model.UserPreferences, error) {
	const insertQ = `
		INSERT INTO user_preferences (user_id, email_notifications, marketing_emails, theme, locale, currency, monthly_budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, insertQ,
		p.UserID, p.EmailNotifications, p.MarketingEmails, p.Theme, p.Locale, p.Currency, budgetArg(p.MonthlyBudget)); err != nil {
		return nil, fmt.Errorf("creating preferences for user %s: %w", p.UserID, err)
	}
	return r.GetPreferences(ctx, p.UserID)
}

func (r *preferencesRepo) SavePreferences(ctx context.Context, p *model.UserPreferences) error {
	query := `
		INSERT INTO user_preferences (user_id, email_notifications, marketing_emails, theme, locale, currency, monthly_budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET email_notifications = EXCLUDED.email_notifications,
			marketing_emails = EXCLUDED.marketing_emails,
			theme = EXCLUDED.theme,
			locale = EXCLUDED.locale,
			currency = EXCLUDED.currency,
			monthly_budget = EXCLUDED.monthly_budget,
			updated_at = NOW()
		RETURNING ` + preferencesColumns
	saved, err := scanPreferences(r.pool.QueryRow(ctx, query,
		p.UserID, p.EmailNotifications, p.MarketingEmails, p.Theme, p.Locale, p.Currency, budgetArg(p.MonthlyBudget)))
	if err != nil {
		return fmt.Errorf("saving preferences for user %s: %w", p.UserID, err)
	}
	*p = *saved
	return nil
}
