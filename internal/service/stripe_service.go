package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// MetadataUserID is the metadata key carrying our user id on Stripe objects.
const MetadataUserID = "userId"

// Stripe event types the mirror processes. Anything else is acknowledged and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

var mirroredEvents = map[string]bool{
	EventCheckoutCompleted:   true,
	EventSubscriptionCreated: true,
	EventSubscriptionUpdated: true,
	EventSubscriptionDeleted: true,
}

// StripeService mirrors Stripe subscription state into the local database.
type StripeService struct {
	webhookSecret string
	payments      PaymentsGateway
	subs          repository.SubscriptionRepository
	users         repository.UserRepository
	publisher     events.Publisher
	logger        zerolog.Logger
}

// NewStripeService returns the webhook mirror with a scoped logger.
func NewStripeService(webhookSecret string, payments PaymentsGateway, subs repository.SubscriptionRepository, users repository.UserRepository, publisher events.Publisher, logger zerolog.Logger) *StripeService {
	return &StripeService{
		webhookSecret: webhookSecret,
		payments:      payments,
		subs:          subs,
		users:         users,
		publisher:     publisher,
		logger:        logger.With().Str("service", "StripeService").Logger(),
	}
}

// HandleWebhook verifies the signed payload and applies the event.
//
// Errors: ErrInvalidSignature and ErrMissingUserMetadata are caller faults;
// ErrUserNotFound means the metadata names an unknown user; everything else,
// including ErrUnhandledEvent and ErrSubscriptionNotFound, is a server fault.
//
// Without a configured webhook secret every event is rejected; an empty HMAC
// key would accept payloads signed by anyone.
func (s *StripeService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhookSecret == "" {
		s.logger.Error().Msg("Rejected webhook: STRIPE_WEBHOOK_SECRET is not configured")
		return fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected webhook with invalid signature")
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	eventType := string(event.Type)
	if !mirroredEvents[eventType] {
		s.logger.Debug().Str("event_type", eventType).Str("event_id", event.ID).Msg("Ignoring webhook event")
		return nil
	}
	return s.dispatch(ctx, event)
}

func (s *StripeService) dispatch(ctx context.Context, event stripe.Event) error {
	eventAt := time.Unix(event.Created, 0).UTC()
	log := s.logger.With().Str("event_type", string(event.Type)).Str("event_id", event.ID).Logger()

	var (
		mirror *model.SubscriptionMirror
		err    error
	)
	switch string(event.Type) {
	case EventCheckoutCompleted:
		mirror, err = s.mirrorFromCheckout(ctx, event.Data.Raw, eventAt)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		mirror, err = mirrorFromSubscriptionEvent(event.Data.Raw, eventAt)
	case EventSubscriptionDeleted:
		return s.handleDeleted(ctx, event.Data.Raw, eventAt, log)
	default:
		return fmt.Errorf("%w: %s", ErrUnhandledEvent, event.Type)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Could not build subscription mirror from event")
		return err
	}

	applied, err := s.subs.ApplyMirror(ctx, mirror)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("user_id", mirror.UserID).Msg("Webhook references unknown user")
		return ErrUserNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", mirror.UserID).Msg("Failed to apply subscription mirror")
		return fmt.Errorf("apply subscription mirror: %w", err)
	}
	if !applied {
		log.Info().Str("user_id", mirror.UserID).Msg("Skipped stale subscription event")
		return nil
	}

	log.Info().Str("user_id", mirror.UserID).Str("subscription_id", mirror.StripeSubscriptionID).Str("status", mirror.Status).Msg("Mirrored subscription")
	s.publishChanged(ctx, mirror.UserID, mirror.Status, mirror.Plan)
	return nil
}

func (s *StripeService) mirrorFromCheckout(ctx context.Context, raw json.RawMessage, eventAt time.Time) (*model.SubscriptionMirror, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	userID, err := userIDFromMetadata(sess.Metadata)
	if err != nil {
		return nil, err
	}
	if sess.Subscription == nil || sess.Subscription.ID == "" {
		return nil, fmt.Errorf("checkout session %s has no subscription", sess.ID)
	}
	sub, err := s.payments.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return nil, err
	}
	return mirrorFromSubscription(userID, sub, eventAt), nil
}

func mirrorFromSubscriptionEvent(raw json.RawMessage, eventAt time.Time) (*model.SubscriptionMirror, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	userID, err := userIDFromMetadata(sub.Metadata)
	if err != nil {
		return nil, err
	}
	return mirrorFromSubscription(userID, &sub, eventAt), nil
}

func (s *StripeService) handleDeleted(ctx context.Context, raw json.RawMessage, eventAt time.Time, log zerolog.Logger) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	userID, err := userIDFromMetadata(sub.Metadata)
	if err != nil {
		return err
	}
	m := mirrorFromSubscription(userID, &sub, eventAt)

	applied, err := s.subs.MarkCanceled(ctx, userID, sub.ID, m.CurrentPeriodEnd, eventAt)
	if errors.Is(err, repository.ErrNotFound) {
		log.Error().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("No subscription row to cancel")
		return fmt.Errorf("%w: user %s", ErrSubscriptionNotFound, userID)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to mark subscription canceled")
		return fmt.Errorf("mark subscription canceled: %w", err)
	}
	if !applied {
		log.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("Skipped stale or foreign cancellation")
		return nil
	}

	log.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("Subscription canceled")
	s.publishChanged(ctx, userID, model.SubscriptionCanceled, m.Plan)
	return nil
}

// publishChanged is best-effort: the mirror is already committed.
func (s *StripeService) publishChanged(ctx context.Context, userID, status, plan string) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil || u == nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Skipping subscription.changed event: user lookup failed")
		return
	}
	e := events.New(events.TypeSubscriptionChanged, u, map[string]string{"status": status, "plan": plan})
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to publish subscription.changed")
	}
}

func userIDFromMetadata(metadata map[string]string) (string, error) {
	raw := metadata[MetadataUserID]
	if raw == "" {
		return "", ErrMissingUserMetadata
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a user id", ErrMissingUserMetadata, raw)
	}
	return id.String(), nil
}

// mirrorFromSubscription copies the billing fields of sub, falling back to the
// default plan label and price when the price carries neither.
func mirrorFromSubscription(userID string, sub *stripe.Subscription, eventAt time.Time) *model.SubscriptionMirror {
	m := &model.SubscriptionMirror{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		Status:               MapSubscriptionStatus(sub.Status, sub.CancelAtPeriodEnd),
		Plan:                 model.DefaultPlanLabel,
		Price:                model.DefaultPriceMinor,
		EventAt:              eventAt,
	}
	if sub.Customer != nil {
		m.StripeCustomerID = sub.Customer.ID
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return m
	}
	item := sub.Items.Data[0]
	if item.CurrentPeriodEnd > 0 {
		end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
		m.CurrentPeriodEnd = &end
	}
	if item.Price != nil {
		m.StripePriceID = item.Price.ID
		if item.Price.Nickname != "" {
			m.Plan = item.Price.Nickname
		}
		if item.Price.UnitAmount > 0 {
			m.Price = item.Price.UnitAmount
		}
	}
	return m
}

// MapSubscriptionStatus folds Stripe's subscription states into the local ones.
func MapSubscriptionStatus(status stripe.SubscriptionStatus, cancelAtPeriodEnd bool) string {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		if cancelAtPeriodEnd {
			return model.SubscriptionCanceling
		}
		return model.SubscriptionActive
	case stripe.SubscriptionStatusCanceled:
		return model.SubscriptionCanceled
	default:
		return model.SubscriptionInactive
	}
}
