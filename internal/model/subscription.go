package model

import "time"

// Local subscription states.
const (
	SubscriptionActive    = "active"
	SubscriptionCanceled  = "canceled"
	SubscriptionInactive  = "inactive"
	SubscriptionCanceling = "canceling"
)

// Mirror fallbacks when Stripe omits the price nickname or unit amount.
const (
	DefaultPlanLabel  = "basic"
	DefaultPriceMinor = 990
)

// Subscription mirrors the payments provider's subscription for one user.
type Subscription struct {
	ID                   string     `db:"id" json:"id"`
	UserID               string     `db:"user_id" json:"user_id"`
	StripeSubscriptionID string     `db:"stripe_subscription_id" json:"stripe_subscription_id"`
	StripeCustomerID     string     `db:"stripe_customer_id" json:"stripe_customer_id"`
	StripePriceID        string     `db:"stripe_price_id" json:"stripe_price_id"`
	Status               string     `db:"status" json:"status"`
	Plan                 string     `db:"plan" json:"plan"`
	Price                int64      `db:"price" json:"price"` // minor units
	CurrentPeriodEnd     *time.Time `db:"current_period_end" json:"current_period_end,omitempty"`
	CanceledAt           *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`
	LastEventAt          time.Time  `db:"last_event_at" json:"-"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsPaid reports whether the subscription currently grants paid-tier access.
func (s *Subscription) IsPaid() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionCanceling
}

// SubscriptionMirror is the state written by the webhook mirror for one event.
type SubscriptionMirror struct {
	UserID               string
	StripeSubscriptionID string
	StripeCustomerID     string
	StripePriceID        string
	Status               string
	Plan                 string
	Price                int64
	CurrentPeriodEnd     *time.Time
	EventAt              time.Time
}
