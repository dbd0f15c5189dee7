package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PlanCount is the number of paying subscriptions on one plan label.
type PlanCount struct {
	Plan  string `json:"plan"`
	Count int    `json:"count"`
}

// MetricsRepository runs the read-only aggregate queries behind the admin dashboards.
// Every range is half-open: [start, end).
type MetricsRepository interface {
	SumTransactions(ctx context.Context, txType string, start, end time.Time) (decimal.Decimal, error)
	CountNewUsers(ctx context.Context, start, end time.Time) (int, error)
	// CountPaidNewUsers counts users created in the range that carry a Stripe price.
	CountPaidNewUsers(ctx context.Context, start, end time.Time) (int, error)
	CountChurned(ctx context.Context, start, end time.Time) (int, error)
	// CountSubscribersDuring counts subscriptions created before end that were not
	// canceled before start, i.e. every subscription that could churn in the range.
	CountSubscribersDuring(ctx context.Context, start, end time.Time) (int, error)
	// SumMRR sums plan prices over paying subscriptions overlapping the range.
	SumMRR(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	PlanDistribution(ctx context.Context) ([]PlanCount, error)
}

type metricsRepo struct {
	pool *pgxpool.Pool
}

// NewMetricsRepo creates a new MetricsRepository.
func NewMetricsRepo(pool *pgxpool.Pool) MetricsRepository {
	return &metricsRepo{pool: pool}
}

func (r *metricsRepo) SumTransactions(ctx context.Context, txType string, start, end time.Time) (decimal.Decimal, error) {
	const q = `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE type = $1
		  AND date >= $2
		  AND date < $3
	`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, q, txType, start, end).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("summing %s transactions: %w", txType, err)
	}
	return sum, nil
}

func (r *metricsRepo) count(ctx context.Context, what, q string, args ...any) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", what, err)
	}
	return n, nil
}

func (r *metricsRepo) CountNewUsers(ctx context.Context, start, end time.Time) (int, error) {
	return r.count(ctx, "new users", `
		SELECT COUNT(*) FROM users
		WHERE created_at >= $1 AND created_at < $2`, start, end)
}

func (r *metricsRepo) CountPaidNewUsers(ctx context.Context, start, end time.Time) (int, error) {
	return r.count(ctx, "paid new users", `
		SELECT COUNT(*) FROM users
		WHERE created_at >= $1 AND created_at < $2
		  AND stripe_price_id IS NOT NULL`, start, end)
}

func (r *metricsRepo) CountChurned(ctx context.Context, start, end time.Time) (int, error) {
	return r.count(ctx, "churned subscriptions", `
		SELECT COUNT(*) FROM subscriptions
		WHERE canceled_at >= $1 AND canceled_at < $2`, start, end)
}

func (r *metricsRepo) CountSubscribersDuring(ctx context.Context, start, end time.Time) (int, error) {
	return r.count(ctx, "subscribers", `
		SELECT COUNT(*) FROM subscriptions
		WHERE created_at < $2
		  AND (canceled_at IS NULL OR canceled_at >= $1)`, start, end)
}

func (r *metricsRepo) SumMRR(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	const q = `
		SELECT COALESCE(SUM(p.price), 0)
		FROM subscriptions s
		JOIN plans p ON p.stripe_price_id = s.stripe_price_id
		WHERE s.status IN ('active', 'canceling')
		  AND s.created_at < $2
		  AND (s.current_period_end IS NULL OR s.current_period_end >= $1)
	`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, q, start, end).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("summing MRR: %w", err)
	}
	return sum, nil
}

func (r *metricsRepo) PlanDistribution(ctx context.Context) ([]PlanCount, error) {
	const q = `
		SELECT plan, COUNT(*)
		FROM subscriptions
		WHERE status IN ('active', 'canceling')
		GROUP BY plan
		ORDER BY COUNT(*) DESC, plan
	`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying plan distribution: %w", err)
	}
	defer rows.Close()

	dist := []PlanCount{}
	for rows.Next() {
		var pc PlanCount
		if err := rows.Scan(&pc.Plan, &pc.Count); err != nil {
			return nil, fmt.Errorf("scanning plan distribution row: %w", err)
		}
		dist = append(dist, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan distribution rows: %w", err)
	}
	return dist, nil
}
