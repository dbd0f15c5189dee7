package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlanRepository defines methods for accessing the plan catalog.
type PlanRepository interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]model.Plan, error)
	GetPlanByID(ctx context.Context, id string) (*model.Plan, error)
	GetPlanByStripePriceID(ctx context.Context, priceID string) (*model.Plan, error)
	// CreatePlan inserts p. Returns ErrDuplicate if the Stripe price is already in the catalog.
	CreatePlan(ctx context.Context, p *model.Plan) error
	UpdatePlan(ctx context.Context, p *model.Plan) error
	DeletePlan(ctx context.Context, id string) error
	// UpsertPlanByStripePriceID creates or refreshes the plan for p.StripePriceID.
	UpsertPlanByStripePriceID(ctx context.Context, p *model.Plan) error
}

type planRepo struct {
	pool *pgxpool.Pool
}

// NewPlanRepo creates a new PlanRepository.
func NewPlanRepo(pool *pgxpool.Pool) PlanRepository {
	return &planRepo{pool: pool}
}

const planColumns = `id, name, description, price, currency, interval, stripe_price_id, features, is_active, created_at, updated_at`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	var rawFeatures []byte
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Currency,
		&p.Interval,
		&p.StripePriceID,
		&rawFeatures,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawFeatures, &p.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features for plan %s: %w", p.ID, err)
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return &p, nil
}

func marshalFeatures(features []string) (string, error) {
	if features == nil {
		features = []string{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("marshal plan features: %w", err)
	}
	return string(raw), nil
}

func (r *planRepo) ListPlans(ctx context.Context, activeOnly bool) ([]model.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY price, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	plans := []model.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan rows: %w", err)
	}
	return plans, nil
}

func (r *planRepo) GetPlanByID(ctx context.Context, id string) (*model.Plan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch plan %s: %w", id, err)
	}
	return p, nil
}

func (r *planRepo) GetPlanByStripePriceID(ctx context.Context, priceID string) (*model.Plan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE stripe_price_id = $1`, priceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch plan for price %s: %w", priceID, err)
	}
	return p, nil
}

func (r *planRepo) CreatePlan(ctx context.Context, p *model.Plan) error {
	features, err := marshalFeatures(p.Features)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO plans (id, name, description, price, currency, interval, stripe_price_id, features, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
		RETURNING ` + planColumns
	created, err := scanPlan(r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.Interval, p.StripePriceID, features, p.IsActive))
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return ErrDuplicate
		}
		return fmt.Errorf("creating plan %s: %w", p.Name, err)
	}
	*p = *created
	return nil
}

func (r *planRepo) UpdatePlan(ctx context.Context, p *model.Plan) error {
	features, err := marshalFeatures(p.Features)
	if err != nil {
		return err
	}
	query := `
		UPDATE plans
		SET name = $2, description = $3, price = $4, currency = $5, interval = $6,
			stripe_price_id = $7, features = $8::jsonb, is_active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + planColumns
	updated, err := scanPlan(r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.Interval, p.StripePriceID, features, p.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isPgError(err, pgUniqueViolation) {
			return ErrDuplicate
		}
		return fmt.Errorf("updating plan %s: %w", p.ID, err)
	}
	*p = *updated
	return nil
}

func (r *planRepo) DeletePlan(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *planRepo) UpsertPlanByStripePriceID(ctx context.Context, p *model.Plan) error {
	features, err := marshalFeatures(p.Features)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO plans (id, name, description, price, currency, interval, stripe_price_id, features, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
		ON CONFLICT (stripe_price_id) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			interval = EXCLUDED.interval,
			features = EXCLUDED.features,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING ` + planColumns
	saved, err := scanPlan(r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.Interval, p.StripePriceID, features, p.IsActive))
	if err != nil {
		return fmt.Errorf("upserting plan for price %s: %w", p.StripePriceID, err)
	}
	*p = *saved
	return nil
}
