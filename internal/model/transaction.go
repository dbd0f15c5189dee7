package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger entry. Amount is always positive; Type decides the sign.
type Transaction struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	CategoryID  *string         `db:"category_id" json:"category_id,omitempty"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Type        string          `db:"type" json:"type"`
	Date        time.Time       `db:"date" json:"date"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Signed returns the amount with the sign implied by Type.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	Type       string
	CategoryID string
	Limit      int
	Offset     int
}
