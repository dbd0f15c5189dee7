package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("forbidden")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountDisabled      = errors.New("account disabled")
	ErrPlanInUse            = errors.New("plan has active subscriptions")
	ErrPlanPriceTaken       = errors.New("a plan already uses this stripe price")
	ErrPlanUnavailable      = errors.New("plan is not available")
	ErrCategoryMismatch     = errors.New("category type does not match transaction type")
	ErrCategoryTypeLocked   = errors.New("category type cannot change while transactions use it")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrMissingUserMetadata  = errors.New("missing userId in event metadata")
	ErrUnhandledEvent       = errors.New("unhandled event type")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoBillingAccount     = errors.New("user has no billing account")
	ErrExportDisabled       = errors.New("export storage is not configured")
)

// Quota resources.
const (
	ResourceCategories   = "categories"
	ResourceTransactions = "transactions"
)

// QuotaExceededError reports that a free-tier user reached a creation limit.
type QuotaExceededError struct {
	Resource string
	Limit    int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("limit of %d %s reached for the free plan", e.Limit, e.Resource)
}

// ValidationError wraps input that failed a business or schema rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct's validate tags and folds failures into a ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
