package service

import (
	"context"
	"errors"
	"strings"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlanInput is the payload for creating a plan.
type PlanInput struct {
	Name          string `validate:"required,min=2,max=60"`
	Description   string `validate:"max=500"`
	Price         decimal.Decimal
	Currency      string   `validate:"omitempty,len=3"`
	Interval      string   `validate:"omitempty,oneof=month year"`
	StripePriceID string   `validate:"required,startswith=price_"`
	Features      []string `validate:"dive,required,max=120"`
	IsActive      *bool
}

// PlanPatch carries a partial plan update; nil fields are left as-is.
type PlanPatch struct {
	Name          *string `validate:"omitempty,min=2,max=60"`
	Description   *string `validate:"omitempty,max=500"`
	Price         *decimal.Decimal
	Currency      *string   `validate:"omitempty,len=3"`
	Interval      *string   `validate:"omitempty,oneof=month year"`
	StripePriceID *string   `validate:"omitempty,startswith=price_"`
	Features      *[]string `validate:"omitempty"`
	IsActive      *bool
}

type PlanService interface {
	List(ctx context.Context, activeOnly bool) ([]model.Plan, error)
	Create(ctx context.Context, in PlanInput) (*model.Plan, error)
	Patch(ctx context.Context, id string, in PlanPatch) (*model.Plan, error)
	// Delete removes a plan unless subscriptions still bill on its price.
	Delete(ctx context.Context, id string) error
	// Seed upserts plans keyed by Stripe price and returns how many were written.
	Seed(ctx context.Context, plans []model.Plan) (int, error)
}

type planService struct {
	plans  repository.PlanRepository
	subs   repository.SubscriptionRepository
	logger zerolog.Logger
}

func NewPlanService(plans repository.PlanRepository, subs repository.SubscriptionRepository, logger zerolog.Logger) PlanService {
	return &planService{plans: plans, subs: subs, logger: logger.With().Str("service", "PlanService").Logger()}
}

func (s *planService) List(ctx context.Context, activeOnly bool) ([]model.Plan, error) {
	plans, err := s.plans.ListPlans(ctx, activeOnly)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list plans")
		return nil, err
	}
	return plans, nil
}

func (s *planService) Create(ctx context.Context, in PlanInput) (*model.Plan, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, invalidf("price must not be negative")
	}
	p := &model.Plan{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		Currency:      strings.ToLower(in.Currency),
		Interval:      in.Interval,
		StripePriceID: in.StripePriceID,
		Features:      in.Features,
		IsActive:      true,
	}
	if p.Currency == "" {
		p.Currency = "brl"
	}
	if p.Interval == "" {
		p.Interval = "month"
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := s.plans.CreatePlan(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPlanPriceTaken
		}
		s.logger.Error().Err(err).Str("plan", in.Name).Msg("Failed to create plan")
		return nil, err
	}
	s.logger.Info().Str("plan_id", p.ID).Str("stripe_price_id", p.StripePriceID).Msg("Plan created")
	return p, nil
}

func (s *planService) Patch(ctx context.Context, id string, in PlanPatch) (*model.Plan, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, invalidf("price must not be negative")
	}
	p, err := s.plans.GetPlanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Currency != nil {
		p.Currency = strings.ToLower(*in.Currency)
	}
	if in.Interval != nil {
		p.Interval = *in.Interval
	}
	if in.StripePriceID != nil {
		p.StripePriceID = *in.StripePriceID
	}
	if in.Features != nil {
		p.Features = *in.Features
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := s.plans.UpdatePlan(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrPlanPriceTaken
		}
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to update plan")
		return nil, err
	}
	return p, nil
}

func (s *planService) Delete(ctx context.Context, id string) error {
	p, err := s.plans.GetPlanByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	active, err := s.subs.CountActiveByPriceID(ctx, p.StripePriceID)
	if err != nil {
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to count subscriptions for plan")
		return err
	}
	if active > 0 {
		s.logger.Info().Str("plan_id", id).Int("active_subscriptions", active).Msg("Refusing to delete plan in use")
		return ErrPlanInUse
	}

	if err := s.plans.DeletePlan(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error().Err(err).Str("plan_id", id).Msg("Failed to delete plan")
		return err
	}
	s.logger.Info().Str("plan_id", id).Msg("Plan deleted")
	return nil
}

func (s *planService) Seed(ctx context.Context, plans []model.Plan) (int, error) {
	for i := range plans {
		p := &plans[i]
		if p.StripePriceID == "" {
			return i, invalidf("plan %q has no stripe price id", p.Name)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if err := s.plans.UpsertPlanByStripePriceID(ctx, p); err != nil {
			return i, err
		}
		s.logger.Info().Str("plan", p.Name).Str("stripe_price_id", p.StripePriceID).Msg("Seeded plan")
	}
	return len(plans), nil
}
