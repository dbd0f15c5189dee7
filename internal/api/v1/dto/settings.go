package dto

import (
	"time"

	"fintrack/internal/model"
)

// SettingsDTO replaces the system settings
type SettingsDTO struct {
	MaxCategories   int    `json:"max_categories" minimum:"0" doc:"Free-tier category limit; 0 disables it"`
	MaxTransactions int    `json:"max_transactions" minimum:"0" doc:"Free-tier monthly transaction limit; 0 disables it"`
	DefaultCurrency string `json:"default_currency" minLength:"3" maxLength:"3"`
	DefaultLocale   string `json:"default_locale" minLength:"2" maxLength:"10"`
	DateFormat      string `json:"date_format" minLength:"1" maxLength:"32"`
}

// SettingsResponseDTO is returned in API responses for system settings
type SettingsResponseDTO struct {
	SettingsDTO
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSettingsResponse(s *model.SystemSettings) SettingsResponseDTO {
	return SettingsResponseDTO{
		SettingsDTO: SettingsDTO{
			MaxCategories:   s.MaxCategories,
			MaxTransactions: s.MaxTransactions,
			DefaultCurrency: s.DefaultCurrency,
			DefaultLocale:   s.DefaultLocale,
			DateFormat:      s.DateFormat,
		},
		UpdatedAt: s.UpdatedAt,
	}
}
