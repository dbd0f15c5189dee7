package dto

import (
	"time"

	"fintrack/internal/model"

	"github.com/shopspring/decimal"
)

// SubscriptionResponseDTO is the caller's mirrored subscription. Free-tier
// users get status "inactive" with no Stripe fields.
type SubscriptionResponseDTO struct {
	Status               string     `json:"status" enum:"active,canceling,canceled,inactive"`
	Plan                 string     `json:"plan,omitempty"`
	Price                string     `json:"price,omitempty" doc:"Price in major units"`
	IsPaid               bool       `json:"is_paid"`
	StripeSubscriptionID string     `json:"stripe_subscription_id,omitempty"`
	StripePriceID        string     `json:"stripe_price_id,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
}

// CheckoutDTO selects the plan to subscribe to
type CheckoutDTO struct {
	PlanID string `json:"plan_id" format:"uuid"`
}

// RedirectResponseDTO carries a Stripe-hosted page to send the user to
type RedirectResponseDTO struct {
	URL string `json:"url"`
}

func NewSubscriptionResponse(s *model.Subscription) SubscriptionResponseDTO {
	if s == nil {
		return SubscriptionResponseDTO{Status: model.SubscriptionInactive}
	}
	return SubscriptionResponseDTO{
		Status:               s.Status,
		Plan:                 s.Plan,
		Price:                Money(decimal.New(s.Price, -2)),
		IsPaid:               s.IsPaid(),
		StripeSubscriptionID: s.StripeSubscriptionID,
		StripePriceID:        s.StripePriceID,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CanceledAt:           s.CanceledAt,
	}
}
