package dto

import (
	"time"

	"fintrack/internal/model"
)

// TransactionDTO is used for transaction create and update requests
type TransactionDTO struct {
	Description string  `json:"description" minLength:"1" maxLength:"200"`
	Amount      string  `json:"amount" pattern:"^[0-9]+(\\.[0-9]{1,2})?$" doc:"Positive amount with up to two decimals"`
	Type        string  `json:"type" enum:"INCOME,EXPENSE"`
	CategoryID  *string `json:"category_id,omitempty" format:"uuid"`
	Date        string  `json:"date" doc:"YYYY-MM-DD or RFC 3339 timestamp"`
}

// TransactionResponseDTO is returned in API responses for transactions
type TransactionResponseDTO struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Type        string    `json:"type"`
	CategoryID  *string   `json:"category_id,omitempty"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewTransactionResponse(t *model.Transaction) TransactionResponseDTO {
	return TransactionResponseDTO{
		ID:          t.ID,
		Description: t.Description,
		Amount:      Money(t.Amount),
		Type:        t.Type,
		CategoryID:  t.CategoryID,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
