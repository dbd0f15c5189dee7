package handler

import (
	"context"
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

func init() {
	// Schema violations are reported as 400 like every other validation failure.
	newError := huma.NewError
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newError(status, msg, errs...)
	}
}

// QuotaError is the response body for a free-tier limit hit. Clients branch on
// Code instead of parsing Detail.
type QuotaError struct {
	Status   int    `json:"status"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
	Code     string `json:"code"`
	Resource string `json:"resource"`
	Limit    int    `json:"limit"`
}

func (e *QuotaError) Error() string { return e.Detail }

func (e *QuotaError) GetStatus() int { return e.Status }

func (e *QuotaError) ContentType(ct string) string {
	if ct == "application/json" {
		return "application/problem+json"
	}
	return ct
}

func newQuotaError(qe *service.QuotaExceededError) *QuotaError {
	return &QuotaError{
		Status:   http.StatusBadRequest,
		Title:    http.StatusText(http.StatusBadRequest),
		Detail:   qe.Error(),
		Code:     "quota_exceeded",
		Resource: qe.Resource,
		Limit:    qe.Limit,
	}
}

// mapError converts a service error into the HTTP error returned to the client.
// Anything unrecognized is logged and hidden behind a generic 500.
func mapError(err error, logger zerolog.Logger) error {
	var (
		quota *service.QuotaExceededError
		inval *service.ValidationError
	)
	switch {
	case errors.As(err, &quota):
		return newQuotaError(quota)
	case errors.As(err, &inval):
		return huma.Error400BadRequest(inval.Message)
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSubscriptionNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAccountDisabled):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return huma.Error401Unauthorized(err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPlanInUse),
		errors.Is(err, service.ErrPlanPriceTaken),
		errors.Is(err, service.ErrPlanUnavailable),
		errors.Is(err, service.ErrCategoryMismatch),
		errors.Is(err, service.ErrCategoryTypeLocked),
		errors.Is(err, service.ErrNoBillingAccount):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, service.ErrExportDisabled):
		return huma.Error503ServiceUnavailable(err.Error())
	}
	logger.Error().Err(err).Msg("Request failed")
	return huma.Error500InternalServerError("Internal server error")
}

func currentUser(ctx context.Context) (*auth.Claims, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized: no session")
	}
	return claims, nil
}

func requireAdmin(ctx context.Context) (*auth.Claims, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() {
		return nil, huma.Error403Forbidden("Forbidden: admin role required")
	}
	return claims, nil
}

func actorOf(claims *auth.Claims) service.Actor {
	return service.Actor{UserID: claims.UserID(), Admin: claims.IsAdmin()}
}
