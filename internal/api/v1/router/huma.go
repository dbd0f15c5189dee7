package router

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

var bearer = []map[string][]string{{"bearer": {}}}

// RegisterRoutes registers all Huma operations
func RegisterRoutes(api huma.API, h Handlers, logger zerolog.Logger) {
	logger.Info().Msg("Registering routes")
	count := 0
	register := func(op huma.Operation) huma.Operation {
		count++
		if op.Security == nil {
			op.Security = bearer
		}
		return op
	}

	// ========== AUTH OPERATIONS ==========
	huma.Register(api, register(huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/auth/register",
		Summary:       "Create an account",
		Description:   "Registers a new user with email and password and seeds default preferences",
		Tags:          []string{"auth"},
		Security:      []map[string][]string{},
		DefaultStatus: http.StatusCreated,
	}), h.Auth.Register)

	huma.Register(api, register(huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "Log in",
		Description: "Exchanges email and password for a bearer token",
		Tags:        []string{"auth"},
		Security:    []map[string][]string{},
	}), h.Auth.Login)

	// ========== PROFILE OPERATIONS ==========
	huma.Register(api, register(huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/user",
		Summary:     "Get profile",
		Description: "Retrieves the profile of the authenticated user",
		Tags:        []string{"user"},
	}), h.User.GetProfile)

	huma.Register(api, register(huma.Operation{
		OperationID: "patchProfile",
		Method:      http.MethodPatch,
		Path:        "/api/user",
		Summary:     "Update profile fields",
		Description: "Updates the name and/or email of the authenticated user",
		Tags:        []string{"user"},
	}), h.User.PatchProfile)

	huma.Register(api, register(huma.Operation{
		OperationID: "replaceProfile",
		Method:      http.MethodPut,
		Path:        "/api/user",
		Summary:     "Replace profile",
		Description: "Replaces the profile; an email change signs the user out of every session",
		Tags:        []string{"user"},
	}), h.User.ReplaceProfile)

	huma.Register(api, register(huma.Operation{
		OperationID:   "deleteProfile",
		Method:        http.MethodDelete,
		Path:          "/api/user",
		Summary:       "Delete account",
		Description:   "Cancels any Stripe subscription, then deletes the user and all their data",
		Tags:          []string{"user"},
		DefaultStatus: http.StatusNoContent,
	}), h.User.DeleteProfile)

	huma.Register(api, register(huma.Operation{
		OperationID: "getPreferences",
		Method:      http.MethodGet,
		Path:        "/api/user/preferences",
		Summary:     "Get preferences",
		Description: "Returns the user's preferences, creating defaults on first read",
		Tags:        []string{"user"},
	}), h.User.GetPreferences)

	huma.Register(api, register(huma.Operation{
		OperationID: "patchPreferences",
		Method:      http.MethodPatch,
		Path:        "/api/user/preferences",
		Summary:     "Update preferences",
		Description: "Updates notification, display and budget preferences",
		Tags:        []string{"user"},
	}), h.User.PatchPreferences)

	huma.Register(api, register(huma.Operation{
		OperationID: "getInsights",
		Method:      http.MethodGet,
		Path:        "/api/user/insights",
		Summary:     "Get monthly insights",
		Description: "Current-month totals, budget projection and spending by category",
		Tags:        []string{"user"},
	}), h.User.GetInsights)

	huma.Register(api, register(huma.Operation{
		OperationID: "exportTransactions",
		Method:      http.MethodPost,
		Path:        "/api/user/export",
		Summary:     "Export transactions",
		Description: "Writes the user's transactions to CSV and returns a short-lived download link",
		Tags:        []string{"user"},
	}), h.User.ExportTransactions)

	// ========== CATEGORY OPERATIONS ==========
	huma.Register(api, register(huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/categories",
		Summary:     "List categories",
		Description: "Lists the user's categories and the system defaults",
		Tags:        []string{"categories"},
	}), h.Category.ListCategories)

	huma.Register(api, register(huma.Operation{
		OperationID:   "createCategory",
		Method:        http.MethodPost,
		Path:          "/api/categories",
		Summary:       "Create a category",
		Description:   "Creates a category; free-tier users are limited by max_categories",
		Tags:          []string{"categories"},
		DefaultStatus: http.StatusCreated,
	}), h.Category.CreateCategory)

	huma.Register(api, register(huma.Operation{
		OperationID: "updateCategory",
		Method:      http.MethodPut,
		Path:        "/api/categories/{categoryId}",
		Summary:     "Update a category",
		Tags:        []string{"categories"},
	}), h.Category.UpdateCategory)

	huma.Register(api, register(huma.Operation{
		OperationID:   "deleteCategory",
		Method:        http.MethodDelete,
		Path:          "/api/categories/{categoryId}",
		Summary:       "Delete a category",
		Description:   "Deletes a category; its transactions become uncategorized",
		Tags:          []string{"categories"},
		DefaultStatus: http.StatusNoContent,
	}), h.Category.DeleteCategory)

	// ========== TRANSACTION OPERATIONS ==========
	huma.Register(api, register(huma.Operation{
		OperationID: "listTransactions",
		Method:      http.MethodGet,
		Path:        "/api/transactions",
		Summary:     "List transactions",
		Description: "Lists the user's transactions, newest first, with optional filters",
		Tags:        []string{"transactions"},
	}), h.Transaction.ListTransactions)

	huma.Register(api, register(huma.Operation{
		OperationID: "getTransaction",
		Method:      http.MethodGet,
		Path:        "/api/transactions/{transactionId}",
		Summary:     "Get a transaction",
		Tags:        []string{"transactions"},
	}), h.Transaction.GetTransaction)

	huma.Register(api, register(huma.Operation{
		OperationID:   "createTransaction",
		Method:        http.MethodPost,
		Path:          "/api/transactions",
		Summary:       "Create a transaction",
		Description:   "Records income or an expense; free-tier users are limited by max_transactions per month",
		Tags:          []string{"transactions"},
		DefaultStatus: http.StatusCreated,
	}), h.Transaction.CreateTransaction)

	huma.Register(api, register(huma.Operation{
		OperationID: "updateTransaction",
		Method:      http.MethodPut,
		Path:        "/api/transactions/{transactionId}",
		Summary:     "Update a transaction",
		Tags:        []string{"transactions"},
	}), h.Transaction.UpdateTransaction)

	huma.Register(api, register(huma.Operation{
		OperationID:   "deleteTransaction",
		Method:        http.MethodDelete,
		Path:          "/api/transactions/{transactionId}",
		Summary:       "Delete a transaction",
		Tags:          []string{"transactions"},
		DefaultStatus: http.StatusNoContent,
	}), h.Transaction.DeleteTransaction)

	// ========== SUBSCRIPTION OPERATIONS ==========
	huma.Register(api, register(huma.Operation{
		OperationID: "listPublicPlans",
		Method:      http.MethodGet,
		Path:        "/api/plans",
		Summary:     "List plans",
		Description: "Lists the plans available for checkout",
		Tags:        []string{"subscriptions"},
		Security:    []map[string][]string{},
	}), h.Plan.ListPublicPlans)

	huma.Register(api, register(huma.Operation{
		OperationID: "getSubscription",
		Method:      http.MethodGet,
		Path:        "/api/subscriptions/me",
		Summary:     "Get subscription",
		Description: "Returns the subscription mirrored from Stripe, or status inactive",
		Tags:        []string{"subscriptions"},
	}), h.Subscription.GetSubscription)

	huma.Register(api, register(huma.Operation{
		OperationID: "createCheckout",
		Method:      http.MethodPost,
		Path:        "/api/subscriptions/checkout",
		Summary:     "Start checkout",
		Description: "Creates a Stripe Checkout session for a plan and returns its URL",
		Tags:        []string{"subscriptions"},
	}), h.Subscription.CreateCheckout)

	huma.Register(api, register(huma.Operation{
		OperationID: "createPortal",
		Method:      http.MethodPost,
		Path:        "/api/subscriptions/portal",
		Summary:     "Open billing portal",
		Tags:        []string{"subscriptions"},
	}), h.Subscription.CreatePortal)

	huma.Register(api, register(huma.Operation{
		OperationID: "cancelSubscription",
		Method:      http.MethodPost,
		Path:        "/api/subscriptions/cancel",
		Summary:     "Cancel subscription",
		Description: "Cancels at the end of the current billing period",
		Tags:        []string{"subscriptions"},
	}), h.Subscription.CancelSubscription)

	// ========== ADMIN OPERATIONS ==========
	huma.Register(api, register(huma.Operation{
		OperationID: "listPlans",
		Method:      http.MethodGet,
		Path:        "/api/admin/plans",
		Summary:     "List all plans",
		Tags:        []string{"admin"},
	}), h.Plan.ListPlans)

	huma.Register(api, register(huma.Operation{
		OperationID:   "createPlan",
		Method:        http.MethodPost,
		Path:          "/api/admin/plans",
		Summary:       "Create a plan",
		Tags:          []string{"admin"},
		DefaultStatus: http.StatusCreated,
	}), h.Plan.CreatePlan)

	huma.Register(api, register(huma.Operation{
		OperationID: "updatePlan",
		Method:      http.MethodPatch,
		Path:        "/api/admin/plans/{planId}",
		Summary:     "Update a plan",
		Tags:        []string{"admin"},
	}), h.Plan.UpdatePlan)

	huma.Register(api, register(huma.Operation{
		OperationID:   "deletePlan",
		Method:        http.MethodDelete,
		Path:          "/api/admin/plans/{planId}",
		Summary:       "Delete a plan",
		Description:   "Fails while any subscription still bills on the plan's price",
		Tags:          []string{"admin"},
		DefaultStatus: http.StatusNoContent,
	}), h.Plan.DeletePlan)

	huma.Register(api, register(huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/admin/settings",
		Summary:     "Get system settings",
		Tags:        []string{"admin"},
	}), h.Plan.GetSettings)

	huma.Register(api, register(huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        "/api/admin/settings",
		Summary:     "Replace system settings",
		Tags:        []string{"admin"},
	}), h.Plan.UpdateSettings)

	huma.Register(api, register(huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/admin/users",
		Summary:     "List users",
		Tags:        []string{"admin"},
	}), h.User.ListUsers)

	huma.Register(api, register(huma.Operation{
		OperationID: "updateUserAccess",
		Method:      http.MethodPatch,
		Path:        "/api/admin/users/{userId}",
		Summary:     "Change role or active flag",
		Description: "Admins cannot demote or deactivate themselves",
		Tags:        []string{"admin"},
	}), h.User.UpdateUserAccess)

	huma.Register(api, register(huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/api/admin/reports/dashboard",
		Summary:     "Metrics dashboard",
		Description: "Monthly revenue, costs, signups, churn and conversion over a date range",
		Tags:        []string{"admin", "metrics"},
	}), h.Metrics.GetDashboard)

	huma.Register(api, register(huma.Operation{
		OperationID: "getReportChart",
		Method:      http.MethodGet,
		Path:        "/api/admin/reports/chart.png",
		Summary:     "Report chart",
		Description: "Renders the six-month revenue or user series as a PNG",
		Tags:        []string{"admin", "metrics"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}), h.Metrics.GetReportChart)

	huma.Register(api, register(huma.Operation{
		OperationID: "getReports",
		Method:      http.MethodGet,
		Path:        "/api/admin/reports",
		Summary:     "Report datasets",
		Description: "Six months of chart-ready series ending at the anchor month",
		Tags:        []string{"admin", "metrics"},
	}), h.Metrics.GetReports)

	huma.Register(api, register(huma.Operation{
		OperationID: "getOverview",
		Method:      http.MethodGet,
		Path:        "/api/admin/metrics/overview",
		Summary:     "Metrics overview",
		Description: "Six-month dashboard plus the current plan distribution",
		Tags:        []string{"admin", "metrics"},
	}), h.Metrics.GetOverview)

	huma.Register(api, register(huma.Operation{
		OperationID: "listDeadLetters",
		Method:      http.MethodGet,
		Path:        "/api/admin/dead-letters",
		Summary:     "List dead letters",
		Description: "Notifications that exhausted their delivery retries",
		Tags:        []string{"admin"},
	}), h.Metrics.ListDeadLetters)

	logger.Info().Int("total_operations", count).Msg("All operations registered successfully")
}
