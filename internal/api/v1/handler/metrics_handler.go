package handler

import (
	"context"
	"errors"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/api/v1/operation"
	"fintrack/internal/charts"
	"fintrack/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

// MetricsHandler implements the admin dashboard, reports and dead-letter views
type MetricsHandler struct {
	metricsService service.MetricsService
	dlqService     service.DLQService
	logger         zerolog.Logger
}

func NewMetricsHandler(metricsService service.MetricsService, dlqService service.DLQService, logger zerolog.Logger) *MetricsHandler {
	return &MetricsHandler{metricsService: metricsService, dlqService: dlqService, logger: logger}
}

// GetDashboard aggregates revenue, costs and user figures per month over a range
func (h *MetricsHandler) GetDashboard(ctx context.Context, input *operation.GetDashboardInput) (*operation.GetDashboardOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	from, err := optionalDate("from", input.From)
	if err != nil {
		return nil, err
	}
	to, err := optionalDate("to", input.To)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, huma.Error400BadRequest("from must not be after to")
	}

	dashboard, err := h.metricsService.DashboardRange(ctx, from, to)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetDashboardOutput{Body: dto.NewDashboardResponse(dashboard)}, nil
}

// GetOverview covers the six months ending at the anchor month
func (h *MetricsHandler) GetOverview(ctx context.Context, input *operation.MonthInput) (*operation.GetOverviewOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	overview, err := h.metricsService.Overview(ctx, input.Year, input.Month)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetOverviewOutput{Body: dto.NewOverviewResponse(overview)}, nil
}

func (h *MetricsHandler) GetReports(ctx context.Context, input *operation.MonthInput) (*operation.GetReportsOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	report, err := h.metricsService.Reports(ctx, input.Year, input.Month)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetReportsOutput{Body: dto.NewReportResponse(report)}, nil
}

// GetReportChart renders one of the report series as a PNG
func (h *MetricsHandler) GetReportChart(ctx context.Context, input *operation.GetReportChartInput) (*operation.GetReportChartOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	report, err := h.metricsService.Reports(ctx, input.Year, input.Month)
	if err != nil {
		return nil, mapError(err, h.logger)
	}

	draw := charts.RevenueVsCosts
	if input.Kind == "users" {
		draw = charts.Users
	}
	png, err := draw(report)
	if errors.Is(err, charts.ErrNotEnoughData) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		h.logger.Error().Err(err).Str("kind", input.Kind).Msg("Failed to render report chart")
		return nil, huma.Error500InternalServerError("Failed to render chart")
	}
	return &operation.GetReportChartOutput{
		ContentType:  "image/png",
		CacheControl: "private, max-age=300",
		Body:         png,
	}, nil
}

// ListDeadLetters returns the most recent notifications that exhausted their retries
func (h *MetricsHandler) ListDeadLetters(ctx context.Context, input *operation.ListDeadLettersInput) (*operation.ListDeadLettersOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	msgs, err := h.dlqService.Recent(ctx, input.Limit)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	resp := make([]dto.DeadLetterResponseDTO, len(msgs))
	for i := range msgs {
		resp[i] = dto.NewDeadLetterResponse(&msgs[i])
	}
	return &operation.ListDeadLettersOutput{Body: resp}, nil
}
