package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a catalog entry customers can subscribe to.
type Plan struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Currency      string          `db:"currency" json:"currency"`
	Interval      string          `db:"interval" json:"interval"`
	StripePriceID string          `db:"stripe_price_id" json:"stripe_price_id"`
	Features      []string        `db:"features" json:"features"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
