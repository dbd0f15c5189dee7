package handler

import (
	"context"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/api/v1/operation"
	"fintrack/internal/service"

	"github.com/rs/zerolog"
)

// SubscriptionHandler implements the caller's billing endpoints
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	logger              zerolog.Logger
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService, logger: logger}
}

// GetSubscription returns the mirrored subscription, or "inactive" on the free tier
func (h *SubscriptionHandler) GetSubscription(ctx context.Context, input *operation.GetSubscriptionInput) (*operation.GetSubscriptionOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := h.subscriptionService.GetSubscription(ctx, claims.UserID())
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetSubscriptionOutput{Body: dto.NewSubscriptionResponse(sub)}, nil
}

// CreateCheckout opens a Stripe Checkout session for the chosen plan
func (h *SubscriptionHandler) CreateCheckout(ctx context.Context, input *operation.CreateCheckoutInput) (*operation.RedirectOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	url, err := h.subscriptionService.CreateCheckout(ctx, claims.UserID(), input.Body.PlanID)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.RedirectOutput{Body: dto.RedirectResponseDTO{URL: url}}, nil
}

// CreatePortal opens the Stripe billing portal
func (h *SubscriptionHandler) CreatePortal(ctx context.Context, input *operation.CreatePortalInput) (*operation.RedirectOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	url, err := h.subscriptionService.CreatePortal(ctx, claims.UserID())
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.RedirectOutput{Body: dto.RedirectResponseDTO{URL: url}}, nil
}

// CancelSubscription cancels at the end of the current period
func (h *SubscriptionHandler) CancelSubscription(ctx context.Context, input *operation.CancelSubscriptionInput) (*operation.CancelSubscriptionOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := h.subscriptionService.CancelAtPeriodEnd(ctx, claims.UserID())
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.CancelSubscriptionOutput{Body: dto.NewSubscriptionResponse(sub)}, nil
}
