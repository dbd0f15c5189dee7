package model

import "time"

// Transaction and category kinds.
const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// Category groups transactions. A nil UserID marks a system default visible to everyone.
type Category struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Color     string    `db:"color" json:"color"`
	Icon      string    `db:"icon" json:"icon"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsDefault reports whether the category is a system default.
func (c *Category) IsDefault() bool {
	return c.UserID == nil
}

// VisibleTo reports whether userID may reference the category.
func (c *Category) VisibleTo(userID string) bool {
	return c.UserID == nil || *c.UserID == userID
}
