package handler

import (
	"context"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/api/v1/operation"
	"fintrack/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

// PlanHandler implements the plan catalog and the system settings
type PlanHandler struct {
	planService     service.PlanService
	settingsService service.SettingsService
	logger          zerolog.Logger
}

func NewPlanHandler(planService service.PlanService, settingsService service.SettingsService, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{planService: planService, settingsService: settingsService, logger: logger}
}

// ListPublicPlans lists the plans open for checkout; no session required
func (h *PlanHandler) ListPublicPlans(ctx context.Context, input *operation.ListPublicPlansInput) (*operation.ListPlansOutput, error) {
	return h.list(ctx, true)
}

func (h *PlanHandler) ListPlans(ctx context.Context, input *operation.ListPlansInput) (*operation.ListPlansOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return h.list(ctx, input.ActiveOnly)
}

func (h *PlanHandler) list(ctx context.Context, activeOnly bool) (*operation.ListPlansOutput, error) {
	plans, err := h.planService.List(ctx, activeOnly)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	resp := make([]dto.PlanResponseDTO, len(plans))
	for i := range plans {
		resp[i] = dto.NewPlanResponse(&plans[i])
	}
	return &operation.ListPlansOutput{Body: resp}, nil
}

func (h *PlanHandler) CreatePlan(ctx context.Context, input *operation.CreatePlanInput) (*operation.CreatePlanOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	price, err := dto.ParseMoney(input.Body.Price)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	plan, err := h.planService.Create(ctx, service.PlanInput{
		Name:          input.Body.Name,
		Description:   input.Body.Description,
		Price:         price,
		Currency:      input.Body.Currency,
		Interval:      input.Body.Interval,
		StripePriceID: input.Body.StripePriceID,
		Features:      input.Body.Features,
		IsActive:      input.Body.IsActive,
	})
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.CreatePlanOutput{Body: dto.NewPlanResponse(plan)}, nil
}

func (h *PlanHandler) UpdatePlan(ctx context.Context, input *operation.UpdatePlanInput) (*operation.UpdatePlanOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	patch := service.PlanPatch{
		Name:          input.Body.Name,
		Description:   input.Body.Description,
		Currency:      input.Body.Currency,
		Interval:      input.Body.Interval,
		StripePriceID: input.Body.StripePriceID,
		Features:      input.Body.Features,
		IsActive:      input.Body.IsActive,
	}
	if input.Body.Price != nil {
		price, err := dto.ParseMoney(*input.Body.Price)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		patch.Price = &price
	}
	plan, err := h.planService.Patch(ctx, input.PlanID, patch)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.UpdatePlanOutput{Body: dto.NewPlanResponse(plan)}, nil
}

// DeletePlan removes a plan nobody is billed on
func (h *PlanHandler) DeletePlan(ctx context.Context, input *operation.DeletePlanInput) (*operation.DeletePlanOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := h.planService.Delete(ctx, input.PlanID); err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.DeletePlanOutput{}, nil
}

func (h *PlanHandler) GetSettings(ctx context.Context, input *operation.GetSettingsInput) (*operation.GetSettingsOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	settings, err := h.settingsService.Get(ctx)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetSettingsOutput{Body: dto.NewSettingsResponse(settings)}, nil
}

func (h *PlanHandler) UpdateSettings(ctx context.Context, input *operation.UpdateSettingsInput) (*operation.UpdateSettingsOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	settings, err := h.settingsService.Update(ctx, service.SettingsInput{
		MaxCategories:   input.Body.MaxCategories,
		MaxTransactions: input.Body.MaxTransactions,
		DefaultCurrency: input.Body.DefaultCurrency,
		DefaultLocale:   input.Body.DefaultLocale,
		DateFormat:      input.Body.DateFormat,
	})
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.UpdateSettingsOutput{Body: dto.NewSettingsResponse(settings)}, nil
}
