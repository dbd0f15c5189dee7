package service

import (
	"context"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
)

// SettingsInput replaces the tunable system settings.
type SettingsInput struct {
	MaxCategories   int    `validate:"min=0"`
	MaxTransactions int    `validate:"min=0"`
	DefaultCurrency string `validate:"required,len=3"`
	DefaultLocale   string `validate:"required,min=2,max=10"`
	DateFormat      string `validate:"required,max=32"`
}

type SettingsService interface {
	Get(ctx context.Context) (*model.SystemSettings, error)
	Update(ctx context.Context, in SettingsInput) (*model.SystemSettings, error)
}

type settingsService struct {
	repo   repository.SettingsRepository
	logger zerolog.Logger
}

func NewSettingsService(repo repository.SettingsRepository, logger zerolog.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger.With().Str("service", "SettingsService").Logger()}
}

func (s *settingsService) Get(ctx context.Context) (*model.SystemSettings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load system settings")
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, in SettingsInput) (*model.SystemSettings, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	settings := &model.SystemSettings{
		MaxCategories:   in.MaxCategories,
		MaxTransactions: in.MaxTransactions,
		DefaultCurrency: in.DefaultCurrency,
		DefaultLocale:   in.DefaultLocale,
		DateFormat:      in.DateFormat,
	}
	if err := s.repo.UpdateSettings(ctx, settings); err != nil {
		s.logger.Error().Err(err).Msg("Failed to update system settings")
		return nil, err
	}
	s.logger.Info().Int("max_categories", in.MaxCategories).Int("max_transactions", in.MaxTransactions).Msg("System settings updated")
	return settings, nil
}
