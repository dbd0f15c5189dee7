package repository

import (
	"context"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository reads and writes the system_settings singleton.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*model.SystemSettings, error)
	UpdateSettings(ctx context.Context, s *model.SystemSettings) error
}

type settingsRepo struct {
	pool *pgxpool.Pool
}

// NewSettingsRepo creates a new SettingsRepository.
func NewSettingsRepo(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) GetSettings(ctx context.Context) (*model.SystemSettings, error) {
	const q = `
		SELECT max_categories, max_transactions, default_currency, default_locale, date_format, updated_at
		FROM system_settings
		WHERE id = 1
	`
	var s model.SystemSettings
	if err := r.pool.QueryRow(ctx, q).Scan(
		&s.MaxCategories,
		&s.MaxTransactions,
		&s.DefaultCurrency,
		&s.DefaultLocale,
		&s.DateFormat,
		&s.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("fetch system settings: %w", err)
	}
	return &s, nil
}

func (r *settingsRepo) UpdateSettings(ctx context.Context, s *model.SystemSettings) error {
	const q = `
		INSERT INTO system_settings (id, max_categories, max_transactions, default_currency, default_locale, date_format)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET max_categories = EXCLUDED.max_categories,
			max_transactions = EXCLUDED.max_transactions,
			default_currency = EXCLUDED.default_currency,
			default_locale = EXCLUDED.default_locale,
			date_format = EXCLUDED.date_format,
			updated_at = NOW()
		RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, q,
		s.MaxCategories, s.MaxTransactions, s.DefaultCurrency, s.DefaultLocale, s.DateFormat).Scan(&s.UpdatedAt); err != nil {
		return fmt.Errorf("updating system settings: %w", err)
	}
	return nil
}
