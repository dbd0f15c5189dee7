package service

import (
	"context"
	"fmt"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/rs/zerolog"
)

// SubscriptionService defines the user-facing subscription operations.
type SubscriptionService interface {
	// GetSubscription returns the mirrored subscription or nil for free-tier users.
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	IsPaid(ctx context.Context, userID string) (bool, error)
	CreateCheckout(ctx context.Context, userID, planID string) (string, error)
	CreatePortal(ctx context.Context, userID string) (string, error)
	CancelAtPeriodEnd(ctx context.Context, userID string) (*model.Subscription, error)
}

type subscriptionService struct {
	subs     repository.SubscriptionRepository
	users    repository.UserRepository
	plans    repository.PlanRepository
	payments PaymentsGateway
	logger   zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService with a scoped logger.
func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository, plans repository.PlanRepository, payments PaymentsGateway, logger zerolog.Logger) SubscriptionService {
	return &subscriptionService{
		subs:     subs,
		users:    users,
		plans:    plans,
		payments: payments,
		logger:   logger.With().Str("service", "SubscriptionService").Logger(),
	}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.subs.GetSubscription(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch subscription")
		return nil, err
	}
	return sub, nil
}

// IsPaid reports whether the user currently holds an active or canceling subscription.
func (s *subscriptionService) IsPaid(ctx context.Context, userID string) (bool, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub != nil && sub.IsPaid(), nil
}

func (s *subscriptionService) CreateCheckout(ctx context.Context, userID, planID string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for checkout session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	plan, err := s.plans.GetPlanByID(ctx, planID)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", planID).Msg("Failed to fetch plan for checkout session")
		return "", fmt.Errorf("fetch plan: %w", err)
	}
	if plan == nil || !plan.IsActive || plan.StripePriceID == "" {
		return "", ErrPlanUnavailable
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return "", err
	}

	url, err := s.payments.CreateCheckoutSession(ctx, customerID, plan.StripePriceID, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("plan_id", planID).Msg("Failed to create Stripe checkout session")
		return "", err
	}
	return url, nil
}

// ensureCustomer returns the user's Stripe customer, creating and storing one on first checkout.
func (s *subscriptionService) ensureCustomer(ctx context.Context, user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	customerID, err := s.payments.CreateCustomer(ctx, user.ID, user.Email, user.Name)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create Stripe customer")
		return "", err
	}
	if err := s.users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to store Stripe customer id")
		return "", fmt.Errorf("store stripe customer id: %w", err)
	}
	return customerID, nil
}

func (s *subscriptionService) CreatePortal(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user for portal session")
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}
	url, err := s.payments.CreatePortalSession(ctx, *user.StripeCustomerID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create Stripe billing portal session")
		return "", err
	}
	return url, nil
}

// CancelAtPeriodEnd asks Stripe to stop renewing and marks the local row canceling.
// The webhook that follows confirms the same state.
func (s *subscriptionService) CancelAtPeriodEnd(ctx context.Context, userID string) (*model.Subscription, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.IsPaid() {
		return nil, ErrSubscriptionNotFound
	}
	if sub.Status == model.SubscriptionCanceling {
		return sub, nil
	}

	if _, err := s.payments.CancelAtPeriodEnd(ctx, sub.StripeSubscriptionID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("subscription_id", sub.StripeSubscriptionID).Msg("Failed to cancel subscription at period end")
		return nil, err
	}
	if err := s.subs.SetStatus(ctx, userID, model.SubscriptionCanceling); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to store canceling status")
		return nil, fmt.Errorf("set subscription status: %w", err)
	}
	sub.Status = model.SubscriptionCanceling
	s.logger.Info().Str("user_id", userID).Str("subscription_id", sub.StripeSubscriptionID).Msg("Subscription set to cancel at period end")
	return sub, nil
}
