package handler

import (
	"context"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/api/v1/operation"
	"fintrack/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UserHandler implements the caller's profile, preferences, insights and
// export, plus the admin user list
type UserHandler struct {
	userService        service.UserService
	preferencesService service.PreferencesService
	insightsService    service.InsightsService
	exportService      service.ExportService
	logger             zerolog.Logger
}

func NewUserHandler(
	userService service.UserService,
	preferencesService service.PreferencesService,
	insightsService service.InsightsService,
	exportService service.ExportService,
	logger zerolog.Logger,
) *UserHandler {
	return &UserHandler{
		userService:        userService,
		preferencesService: preferencesService,
		insightsService:    insightsService,
		exportService:      exportService,
		logger:             logger,
	}
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(ctx context.Context, input *operation.GetProfileInput) (*operation.GetProfileOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.userService.Get(ctx, claims.UserID())
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetProfileOutput{Body: dto.NewUserResponse(user)}, nil
}

// PatchProfile updates the name and/or email
func (h *UserHandler) PatchProfile(ctx context.Context, input *operation.PatchProfileInput) (*operation.PatchProfileOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.userService.PatchProfile(ctx, claims.UserID(), service.ProfilePatch{
		Name:  input.Body.Name,
		Email: input.Body.Email,
	})
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.PatchProfileOutput{Body: dto.NewUserResponse(user)}, nil
}

// ReplaceProfile replaces the profile. Changing the email ends every session.
func (h *UserHandler) ReplaceProfile(ctx context.Context, input *operation.ReplaceProfileInput) (*operation.ReplaceProfileOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.userService.ReplaceProfile(ctx, claims.UserID(), service.ProfileInput{
		Name:  input.Body.Name,
		Email: input.Body.Email,
	})
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.ReplaceProfileOutput{
		Body: dto.ProfileReplacedResponseDTO{
			User:      dto.NewUserResponse(res.User),
			SignedOut: res.SignedOut,
		},
	}, nil
}

// DeleteProfile cancels any subscription and deletes the account
func (h *UserHandler) DeleteProfile(ctx context.Context, input *operation.DeleteProfileInput) (*operation.DeleteProfileOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.userService.Delete(ctx, claims.UserID()); err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID()).Msg("Failed to delete user")
		return nil, mapError(err, h.logger)
	}
	return &operation.DeleteProfileOutput{}, nil
}

// GetPreferences returns the caller's preferences, creating defaults on first read
func (h *UserHandler) GetPreferences(ctx context.Context, input *operation.GetPreferencesInput) (*operation.GetPreferencesOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := h.preferencesService.Get(ctx, claims.UserID())
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetPreferencesOutput{Body: dto.NewPreferencesResponse(prefs)}, nil
}

func (h *UserHandler) PatchPreferences(ctx context.Context, input *operation.PatchPreferencesInput) (*operation.PatchPreferencesOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	patch := service.PreferencesPatch{
		EmailNotifications: input.Body.EmailNotifications,
		MarketingEmails:    input.Body.MarketingEmails,
		Theme:              input.Body.Theme,
		Locale:             input.Body.Locale,
		Currency:           input.Body.Currency,
	}
	if b := input.Body.MonthlyBudget; b != nil {
		if *b == "" {
			patch.ClearBudget = true
		} else {
			budget, err := dto.ParseMoney(*b)
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			patch.MonthlyBudget = &budget
		}
	}
	prefs, err := h.preferencesService.Patch(ctx, claims.UserID(), patch)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.PatchPreferencesOutput{Body: dto.NewPreferencesResponse(prefs)}, nil
}

// GetInsights summarizes the caller's current month
func (h *UserHandler) GetInsights(ctx context.Context, input *operation.GetInsightsInput) (*operation.GetInsightsOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	var budget *decimal.Decimal
	if input.Budget != "" {
		b, err := dto.ParseMoney(input.Budget)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		budget = &b
	}
	insights, err := h.insightsService.ForUser(ctx, claims.UserID(), budget)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetInsightsOutput{Body: dto.NewInsightsResponse(insights)}, nil
}

// ExportTransactions uploads a CSV of the caller's transactions and links to it
func (h *UserHandler) ExportTransactions(ctx context.Context, input *operation.ExportTransactionsInput) (*operation.ExportTransactionsOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	export, err := h.exportService.ExportTransactions(ctx, claims.UserID())
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.ExportTransactionsOutput{
		Body: dto.ExportResponseDTO{URL: export.URL, Rows: export.Rows, ExpiresAt: export.ExpiresAt},
	}, nil
}

// ListUsers pages through every account (admin)
func (h *UserHandler) ListUsers(ctx context.Context, input *operation.ListUsersInput) (*operation.ListUsersOutput, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	users, total, err := h.userService.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	resp := dto.UserListResponseDTO{Users: make([]dto.UserResponseDTO, len(users)), TotalCount: total}
	for i := range users {
		resp.Users[i] = dto.NewUserResponse(&users[i])
	}
	return &operation.ListUsersOutput{Body: resp}, nil
}

// UpdateUserAccess changes a user's role or active flag (admin)
func (h *UserHandler) UpdateUserAccess(ctx context.Context, input *operation.UpdateUserAccessInput) (*operation.UpdateUserAccessOutput, error) {
	claims, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if input.Body.Role == nil && input.Body.IsActive == nil {
		return nil, huma.Error400BadRequest("Nothing to update: provide role or is_active")
	}
	user, err := h.userService.UpdateAccess(ctx, claims.UserID(), input.UserID, input.Body.Role, input.Body.IsActive)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	h.logger.Info().Str("actor_id", claims.UserID()).Str("user_id", user.ID).Msg("Updated user access")
	return &operation.UpdateUserAccessOutput{Body: dto.NewUserResponse(user)}, nil
}
