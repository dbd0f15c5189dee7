package model

import (
	"strings"
	"time"
)

// Role values as stored in users.role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account holder.
type User struct {
	ID                     string     `db:"id" json:"id"`
	Name                   string     `db:"name" json:"name"`
	Email                  string     `db:"email" json:"email"`
	PasswordHash           string     `db:"password_hash" json:"-"`
	Role                   string     `db:"role" json:"role"`
	IsActive               bool       `db:"is_active" json:"is_active"`
	StripeCustomerID       *string    `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID   *string    `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	StripePriceID          *string    `db:"stripe_price_id" json:"stripe_price_id,omitempty"`
	StripeCurrentPeriodEnd *time.Time `db:"stripe_current_period_end" json:"stripe_current_period_end,omitempty"`
	TokenVersion           int        `db:"token_version" json:"-"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeRole maps legacy upper-case role values ("ADMIN") to the lower-case form.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// NormalizeEmail lower-cases and trims an email address for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
