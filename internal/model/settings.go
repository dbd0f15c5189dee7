package model

import "time"

// SystemSettings is the singleton row of tunable limits and formatting defaults.
type SystemSettings struct {
	MaxCategories   int       `db:"max_categories" json:"max_categories"`
	MaxTransactions int       `db:"max_transactions" json:"max_transactions"`
	DefaultCurrency string    `db:"default_currency" json:"default_currency"`
	DefaultLocale   string    `db:"default_locale" json:"default_locale"`
	DateFormat      string    `db:"date_format" json:"date_format"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
