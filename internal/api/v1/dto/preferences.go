package dto

import (
	"time"

	"fintrack/internal/model"
)

// PreferencesPatchDTO is used for partial preference updates. Sending
// "monthly_budget": "" clears the budget.
type PreferencesPatchDTO struct {
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	MarketingEmails    *bool   `json:"marketing_emails,omitempty"`
	Theme              *string `json:"theme,omitempty" enum:"light,dark,system"`
	Locale             *string `json:"locale,omitempty" minLength:"2" maxLength:"10"`
	Currency           *string `json:"currency,omitempty" minLength:"3" maxLength:"3"`
	MonthlyBudget      *string `json:"monthly_budget,omitempty" pattern:"^([0-9]+(\\.[0-9]{1,2})?)?$"`
}

// PreferencesResponseDTO is returned in API responses for preferences
type PreferencesResponseDTO struct {
	EmailNotifications bool      `json:"email_notifications"`
	MarketingEmails    bool      `json:"marketing_emails"`
	Theme              string    `json:"theme"`
	Locale             string    `json:"locale"`
	Currency           string    `json:"currency"`
	MonthlyBudget      *string   `json:"monthly_budget,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewPreferencesResponse(p *model.UserPreferences) PreferencesResponseDTO {
	return PreferencesResponseDTO{
		EmailNotifications: p.EmailNotifications,
		MarketingEmails:    p.MarketingEmails,
		Theme:              p.Theme,
		Locale:             p.Locale,
		Currency:           p.Currency,
		MonthlyBudget:      OptionalMoney(p.MonthlyBudget),
		UpdatedAt:          p.UpdatedAt,
	}
}
