package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository defines methods for accessing the mirrored subscriptions.
type SubscriptionRepository interface {
	GetSubscription(ctx context.Context, userID string) (*model.Subscription, error)
	// ApplyMirror upserts the user's subscription and copies the billing fields
	// onto the user row in one transaction. Events older than the stored
	// last_event_at are skipped; applied reports whether anything was written.
	ApplyMirror(ctx context.Context, m *model.SubscriptionMirror) (applied bool, err error)
	// MarkCanceled flags an existing subscription as canceled. Returns ErrNotFound
	// when the user has no subscription row.
	MarkCanceled(ctx context.Context, userID, stripeSubscriptionID string, periodEnd *time.Time, eventAt time.Time) (applied bool, err error)
	// SetStatus changes the local status without touching the event watermark.
	SetStatus(ctx context.Context, userID, status string) error
	CountActiveByPriceID(ctx context.Context, stripePriceID string) (int, error)
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `
	id, user_id, stripe_subscription_id, stripe_customer_id, stripe_price_id, status,
	plan, price, current_period_end, canceled_at, last_event_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StripeSubscriptionID,
		&s.StripeCustomerID,
		&s.StripePriceID,
		&s.Status,
		&s.Plan,
		&s.Price,
		&s.CurrentPeriodEnd,
		&s.CanceledAt,
		&s.LastEventAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSubscription returns the user's subscription regardless of status.
func (r *subscriptionRepo) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return s, nil
}

func (r *subscriptionRepo) ApplyMirror(ctx context.Context, m *model.SubscriptionMirror) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("starting transaction for subscription mirror: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var canceledAt *time.Time
	if m.Status == model.SubscriptionCanceled {
		canceledAt = &m.EventAt
	}

	// The WHERE on the conflict arm keeps newer state when events arrive out of order.
	const upsertQ = `
		INSERT INTO subscriptions (
			id, user_id, stripe_subscription_id, stripe_customer_id, stripe_price_id,
			status, plan, price, current_period_end, canceled_at, last_event_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE
		SET stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_price_id = EXCLUDED.stripe_price_id,
			status = EXCLUDED.status,
			plan = EXCLUDED.plan,
			price = EXCLUDED.price,
			current_period_end = EXCLUDED.current_period_end,
			canceled_at = CASE
				WHEN EXCLUDED.status = 'canceled' THEN COALESCE(subscriptions.canceled_at, EXCLUDED.canceled_at)
				ELSE NULL
			END,
			last_event_at = EXCLUDED.last_event_at,
			updated_at = NOW()
		WHERE subscriptions.last_event_at <= EXCLUDED.last_event_at
		RETURNING id
	`
	var id string
	err = tx.QueryRow(ctx, upsertQ,
		uuid.NewString(),
		m.UserID,
		m.StripeSubscriptionID,
		m.StripeCustomerID,
		m.StripePriceID,
		m.Status,
		m.Plan,
		m.Price,
		m.CurrentPeriodEnd,
		canceledAt,
		m.EventAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if isPgError(err, pgForeignKeyViolation) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("upsert subscription for user %s: %w", m.UserID, err)
	}

	const userQ = `
		UPDATE users
		SET stripe_customer_id = NULLIF($2, ''),
			stripe_subscription_id = NULLIF($3, ''),
			stripe_price_id = NULLIF($4, ''),
			stripe_current_period_end = $5,
			updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, userQ, m.UserID, m.StripeCustomerID, m.StripeSubscriptionID, m.StripePriceID, m.CurrentPeriodEnd); err != nil {
		return false, fmt.Errorf("mirror billing fields for user %s: %w", m.UserID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing subscription mirror for user %s: %w", m.UserID, err)
	}
	return true, nil
}

func (r *subscriptionRepo) MarkCanceled(ctx context.Context, userID, stripeSubscriptionID string, periodEnd *time.Time, eventAt time.Time) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("starting transaction for subscription cancel: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var currentSubID string
	var lastEventAt time.Time
	err = tx.QueryRow(ctx, `
		SELECT stripe_subscription_id, last_event_at
		FROM subscriptions
		WHERE user_id = $1
		FOR UPDATE`, userID).Scan(&currentSubID, &lastEventAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("locking subscription for user %s: %w", userID, err)
	}
	// A deletion for a subscription the user already replaced must not cancel the new one.
	if (stripeSubscriptionID != "" && currentSubID != stripeSubscriptionID) || lastEventAt.After(eventAt) {
		return false, nil
	}

	const cancelQ = `
		UPDATE subscriptions
		SET status = 'canceled',
			current_period_end = $2,
			canceled_at = COALESCE(canceled_at, $3),
			last_event_at = $3,
			updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := tx.Exec(ctx, cancelQ, userID, periodEnd, eventAt); err != nil {
		return false, fmt.Errorf("cancel subscription for user %s: %w", userID, err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE users SET stripe_current_period_end = $2, updated_at = NOW()
		WHERE id = $1`, userID, periodEnd); err != nil {
		return false, fmt.Errorf("mirror period end for user %s: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing subscription cancel for user %s: %w", userID, err)
	}
	return true, nil
}

func (r *subscriptionRepo) SetStatus(ctx context.Context, userID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE user_id = $1`, userID, status)
	if err != nil {
		return fmt.Errorf("setting subscription status for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActiveByPriceID counts subscriptions still granting access on the given price.
func (r *subscriptionRepo) CountActiveByPriceID(ctx context.Context, stripePriceID string) (int, error) {
	var count int
	const q = `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE stripe_price_id = $1
		  AND status IN ('active', 'canceling')
	`
	if err := r.pool.QueryRow(ctx, q, stripePriceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting subscriptions on price %s: %w", stripePriceID, err)
	}
	return count, nil
}
