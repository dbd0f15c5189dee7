package dto

import (
	"time"

	"fintrack/internal/model"
)

// RegisterDTO is used for incoming sign-up requests
type RegisterDTO struct {
	Name     string `json:"name" minLength:"2" maxLength:"100"`
	Email    string `json:"email" format:"email" maxLength:"254"`
	Password string `json:"password" minLength:"8" maxLength:"72"`
}

// LoginDTO is used for incoming login requests
type LoginDTO struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"1"`
}

// SessionResponseDTO is returned after a successful login
type SessionResponseDTO struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      UserResponseDTO `json:"user"`
}

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	Role                   string     `json:"role" enum:"admin,user"`
	IsActive               bool       `json:"is_active"`
	StripeCustomerID       *string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID   *string    `json:"stripe_subscription_id,omitempty"`
	StripePriceID          *string    `json:"stripe_price_id,omitempty"`
	StripeCurrentPeriodEnd *time.Time `json:"stripe_current_period_end,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// ProfilePatchDTO is used for partial profile updates
type ProfilePatchDTO struct {
	Name  *string `json:"name,omitempty" minLength:"2" maxLength:"100"`
	Email *string `json:"email,omitempty" format:"email" maxLength:"254"`
}

// ProfileReplaceDTO is used for full profile replacement
type ProfileReplaceDTO struct {
	Name  string `json:"name" minLength:"2" maxLength:"100"`
	Email string `json:"email" format:"email" maxLength:"254"`
}

// ProfileReplacedResponseDTO reports whether the replacement ended every session
type ProfileReplacedResponseDTO struct {
	User      UserResponseDTO `json:"user"`
	SignedOut bool            `json:"signed_out"`
}

// UserAccessDTO is used by admins to change a user's role or active flag
type UserAccessDTO struct {
	Role     *string `json:"role,omitempty" doc:"admin or user (case-insensitive)"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UserListResponseDTO is a page of users
type UserListResponseDTO struct {
	Users      []UserResponseDTO `json:"users"`
	TotalCount int               `json:"total_count"`
}

func NewUserResponse(u *model.User) UserResponseDTO {
	return UserResponseDTO{
		ID:                     u.ID,
		Name:                   u.Name,
		Email:                  u.Email,
		Role:                   model.NormalizeRole(u.Role),
		IsActive:               u.IsActive,
		StripeCustomerID:       u.StripeCustomerID,
		StripeSubscriptionID:   u.StripeSubscriptionID,
		StripePriceID:          u.StripePriceID,
		StripeCurrentPeriodEnd: u.StripeCurrentPeriodEnd,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}
