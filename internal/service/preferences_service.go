package service

import (
	"context"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PreferencesPatch carries a partial preferences update; nil fields are left as-is.
type PreferencesPatch struct {
	EmailNotifications *bool
	MarketingEmails    *bool
	Theme              *string `validate:"omitempty,oneof=light dark system"`
	Locale             *string `validate:"omitempty,min=2,max=10"`
	Currency           *string `validate:"omitempty,len=3"`
	MonthlyBudget      *decimal.Decimal
	ClearBudget        bool
}

type PreferencesService interface {
	// Get returns the user's preferences, creating defaults on first read.
	Get(ctx context.Context, userID string) (*model.UserPreferences, error)
	Patch(ctx context.Context, userID string, in PreferencesPatch) (*model.UserPreferences, error)
}

type preferencesService struct {
	prefs    repository.PreferencesRepository
	settings repository.SettingsRepository
	logger   zerolog.Logger
}

func NewPreferencesService(prefs repository.PreferencesRepository, settings repository.SettingsRepository, logger zerolog.Logger) PreferencesService {
	return &preferencesService{
		prefs:    prefs,
		settings: settings,
		logger:   logger.With().Str("service", "PreferencesService").Logger(),
	}
}

func (s *preferencesService) Get(ctx context.Context, userID string) (*model.UserPreferences, error) {
	p, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	p, err = s.prefs.CreateDefaultPreferences(ctx, model.DefaultPreferences(userID, settings))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create default preferences")
		return nil, err
	}
	s.logger.Debug().Str("user_id", userID).Msg("Created default preferences")
	return p, nil
}

func (s *preferencesService) Patch(ctx context.Context, userID string, in PreferencesPatch) (*model.UserPreferences, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.MonthlyBudget != nil && in.MonthlyBudget.IsNegative() {
		return nil, invalidf("monthly_budget must not be negative")
	}

	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.EmailNotifications != nil {
		p.EmailNotifications = *in.EmailNotifications
	}
	if in.MarketingEmails != nil {
		p.MarketingEmails = *in.MarketingEmails
	}
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	if in.Locale != nil {
		p.Locale = *in.Locale
	}
	if in.Currency != nil {
		p.Currency = *in.Currency
	}
	switch {
	case in.ClearBudget:
		p.MonthlyBudget = nil
	case in.MonthlyBudget != nil:
		p.MonthlyBudget = in.MonthlyBudget
	}

	if err := s.prefs.SavePreferences(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to save preferences")
		return nil, err
	}
	return p, nil
}
