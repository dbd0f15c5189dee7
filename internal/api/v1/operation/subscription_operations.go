package operation

import "fintrack/internal/api/v1/dto"

type GetSubscriptionInput struct{}

type GetSubscriptionOutput struct {
	Body dto.SubscriptionResponseDTO `json:"body"`
}

type CreateCheckoutInput struct {
	Body dto.CheckoutDTO `json:"body"`
}

type CreatePortalInput struct{}

type RedirectOutput struct {
	Body dto.RedirectResponseDTO `json:"body"`
}

type CancelSubscriptionInput struct{}

type CancelSubscriptionOutput struct {
	Body dto.SubscriptionResponseDTO `json:"body"`
}
