package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserPreferences holds per-user notification and display flags.
type UserPreferences struct {
	UserID             string           `db:"user_id" json:"user_id"`
	EmailNotifications bool             `db:"email_notifications" json:"email_notifications"`
	MarketingEmails    bool             `db:"marketing_emails" json:"marketing_emails"`
	Theme              string           `db:"theme" json:"theme"`
	Locale             string           `db:"locale" json:"locale"`
	Currency           string           `db:"currency" json:"currency"`
	MonthlyBudget      *decimal.Decimal `db:"monthly_budget" json:"monthly_budget,omitempty"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// DefaultPreferences returns the preferences created on first read.
func DefaultPreferences(userID string, s *SystemSettings) *UserPreferences {
	p := &UserPreferences{
		UserID:             userID,
		EmailNotifications: true,
		Theme:              "system",
		Locale:             "pt-BR",
		Currency:           "BRL",
	}
	if s != nil {
		p.Locale = s.DefaultLocale
		p.Currency = s.DefaultCurrency
	}
	return p
}
