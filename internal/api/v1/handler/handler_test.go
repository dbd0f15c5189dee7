package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/model"
	"fintrack/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsFor(userID, role string) *auth.Claims {
	return &auth.Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: userID}}
}

// newTestAPI returns a Huma test API whose requests carry claims, or no
// session at all when claims is nil.
func newTestAPI(t *testing.T, claims *auth.Claims) humatest.TestAPI {
	_, api := humatest.New(t)
	if claims != nil {
		api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
			next(huma.WithContext(ctx, auth.WithClaims(ctx.Context(), claims)))
		})
	}
	return api
}

type fakeTransactionService struct {
	service.TransactionService
	created   service.TransactionInput
	createErr error
	filter    model.TransactionFilter
	gets      int
}

func (f *fakeTransactionService) Create(_ context.Context, userID string, in service.TransactionInput) (*model.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = in
	return &model.Transaction{ID: "t1", UserID: userID, Description: in.Description, Amount: in.Amount, Type: in.Type, Date: in.Date}, nil
}

func (f *fakeTransactionService) List(_ context.Context, _ string, filter model.TransactionFilter) ([]model.Transaction, error) {
	f.filter = filter
	return []model.Transaction{}, nil
}

func (f *fakeTransactionService) Get(context.Context, string, string) (*model.Transaction, error) {
	f.gets++
	return nil, service.ErrNotFound
}

func registerTransactions(api huma.API, h *TransactionHandler) {
	huma.Register(api, huma.Operation{OperationID: "createTransaction", Method: http.MethodPost, Path: "/api/transactions", DefaultStatus: http.StatusCreated}, h.CreateTransaction)
	huma.Register(api, huma.Operation{OperationID: "listTransactions", Method: http.MethodGet, Path: "/api/transactions"}, h.ListTransactions)
	huma.Register(api, huma.Operation{OperationID: "getTransaction", Method: http.MethodGet, Path: "/api/transactions/{transactionId}"}, h.GetTransaction)
}

func TestCreateTransaction(t *testing.T) {
	svc := &fakeTransactionService{}
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	registerTransactions(api, NewTransactionHandler(svc, zerolog.Nop()))

	resp := api.Post("/api/transactions", map[string]any{
		"description": "Groceries",
		"amount":      "42.5",
		"type":        "EXPENSE",
		"date":        "2025-03-14",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.True(t, decimal.RequireFromString("42.5").Equal(svc.created.Amount))
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), svc.created.Date)

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "42.50", body["amount"])
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	registerTransactions(api, NewTransactionHandler(&fakeTransactionService{}, zerolog.Nop()))

	tests := []struct {
		name string
		body map[string]any
	}{
		{"negative amount", map[string]any{"description": "x", "amount": "-5", "type": "EXPENSE", "date": "2025-03-14"}},
		{"three decimals", map[string]any{"description": "x", "amount": "1.005", "type": "EXPENSE", "date": "2025-03-14"}},
		{"unknown type", map[string]any{"description": "x", "amount": "5", "type": "TRANSFER", "date": "2025-03-14"}},
		{"bad date", map[string]any{"description": "x", "amount": "5", "type": "INCOME", "date": "14/03/2025"}},
		{"missing description", map[string]any{"amount": "5", "type": "INCOME", "date": "2025-03-14"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.Post("/api/transactions", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
		})
	}
}

func TestCreateTransactionQuotaExceeded(t *testing.T) {
	svc := &fakeTransactionService{createErr: &service.QuotaExceededError{Resource: service.ResourceTransactions, Limit: 50}}
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	registerTransactions(api, NewTransactionHandler(svc, zerolog.Nop()))

	resp := api.Post("/api/transactions", map[string]any{
		"description": "Coffee", "amount": "3", "type": "EXPENSE", "date": "2025-03-14",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body QuotaError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "quota_exceeded", body.Code)
	assert.Equal(t, "transactions", body.Resource)
	assert.Equal(t, 50, body.Limit)
	assert.Equal(t, http.StatusBadRequest, body.Status)
}

func TestListTransactionsFilters(t *testing.T) {
	svc := &fakeTransactionService{}
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	registerTransactions(api, NewTransactionHandler(svc, zerolog.Nop()))

	resp := api.Get("/api/transactions?from=2025-01-01&type=INCOME&limit=10")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, svc.filter.From)
	assert.Nil(t, svc.filter.To)
	assert.Equal(t, "INCOME", svc.filter.Type)
	assert.Equal(t, 10, svc.filter.Limit)

	resp = api.Get("/api/transactions?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestMissingSessionIsUnauthorized(t *testing.T) {
	api := newTestAPI(t, nil)
	registerTransactions(api, NewTransactionHandler(&fakeTransactionService{}, zerolog.Nop()))

	resp := api.Get("/api/transactions")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestNotFoundMapsTo404(t *testing.T) {
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	registerTransactions(api, NewTransactionHandler(&fakeTransactionService{}, zerolog.Nop()))

	resp := api.Get("/api/transactions/0b7e2c1a-5d3f-4e6a-9c8b-7a6f5e4d3c2b")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMalformedIDsAreRejected(t *testing.T) {
	svc := &fakeTransactionService{}
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	registerTransactions(api, NewTransactionHandler(svc, zerolog.Nop()))

	resp := api.Get("/api/transactions/abc")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, svc.gets)

	resp = api.Get("/api/transactions?category_id=not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, svc.filter.CategoryID)

	plans := &fakePlanService{}
	admin := newTestAPI(t, claimsFor("admin", model.RoleAdmin))
	registerPlans(admin, NewPlanHandler(plans, nil, zerolog.Nop()))
	assert.Equal(t, http.StatusBadRequest, admin.Delete("/api/admin/plans/p1").Code)
	assert.Empty(t, plans.deleted)
}

const (
	proPlanID    = "3f2a9c4e-1b7d-4e8f-a2c6-5d9e0f1a2b3c"
	legacyPlanID = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

type fakePlanService struct {
	service.PlanService
	deleteErr error
	deleted   []string
}

func (f *fakePlanService) List(_ context.Context, activeOnly bool) ([]model.Plan, error) {
	plans := []model.Plan{{ID: proPlanID, Name: "Pro", Price: decimal.RequireFromString("19.9"), IsActive: true}}
	if !activeOnly {
		plans = append(plans, model.Plan{ID: legacyPlanID, Name: "Legacy", Price: decimal.NewFromInt(5)})
	}
	return plans, nil
}

func (f *fakePlanService) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func registerPlans(api huma.API, h *PlanHandler) {
	huma.Register(api, huma.Operation{OperationID: "listPublicPlans", Method: http.MethodGet, Path: "/api/plans"}, h.ListPublicPlans)
	huma.Register(api, huma.Operation{OperationID: "listPlans", Method: http.MethodGet, Path: "/api/admin/plans"}, h.ListPlans)
	huma.Register(api, huma.Operation{OperationID: "deletePlan", Method: http.MethodDelete, Path: "/api/admin/plans/{planId}", DefaultStatus: http.StatusNoContent}, h.DeletePlan)
}

func TestPlanRoutesRequireAdmin(t *testing.T) {
	svc := &fakePlanService{}
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	registerPlans(api, NewPlanHandler(svc, nil, zerolog.Nop()))

	assert.Equal(t, http.StatusForbidden, api.Get("/api/admin/plans").Code)
	assert.Equal(t, http.StatusForbidden, api.Delete("/api/admin/plans/"+proPlanID).Code)
	assert.Empty(t, svc.deleted)

	resp := api.Get("/api/plans")
	require.Equal(t, http.StatusOK, resp.Code)
	var plans []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, "19.90", plans[0]["price"])
}

func TestDeletePlan(t *testing.T) {
	svc := &fakePlanService{}
	api := newTestAPI(t, claimsFor("admin", model.RoleAdmin))
	registerPlans(api, NewPlanHandler(svc, nil, zerolog.Nop()))

	assert.Equal(t, http.StatusNoContent, api.Delete("/api/admin/plans/"+proPlanID).Code)
	assert.Equal(t, []string{proPlanID}, svc.deleted)

	svc.deleteErr = service.ErrPlanInUse
	resp := api.Delete("/api/admin/plans/" + legacyPlanID)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "active subscriptions")
}

type fakePreferencesService struct {
	service.PreferencesService
	patch service.PreferencesPatch
}

func (f *fakePreferencesService) Patch(_ context.Context, userID string, in service.PreferencesPatch) (*model.UserPreferences, error) {
	f.patch = in
	return &model.UserPreferences{UserID: userID, Theme: "dark", Currency: "BRL", MonthlyBudget: in.MonthlyBudget}, nil
}

func TestPatchPreferencesBudget(t *testing.T) {
	prefs := &fakePreferencesService{}
	api := newTestAPI(t, claimsFor("u1", model.RoleUser))
	h := NewUserHandler(nil, prefs, nil, nil, zerolog.Nop())
	huma.Register(api, huma.Operation{OperationID: "patchPreferences", Method: http.MethodPatch, Path: "/api/user/preferences"}, h.PatchPreferences)

	resp := api.Patch("/api/user/preferences", map[string]any{"monthly_budget": "1500"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, prefs.patch.MonthlyBudget)
	assert.False(t, prefs.patch.ClearBudget)
	assert.Contains(t, resp.Body.String(), `"monthly_budget":"1500.00"`)

	resp = api.Patch("/api/user/preferences", map[string]any{"monthly_budget": ""})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, prefs.patch.ClearBudget)
	assert.Nil(t, prefs.patch.MonthlyBudget)
}

type fakeMetricsService struct {
	service.MetricsService
	report *service.Report
}

func (f *fakeMetricsService) Reports(context.Context, int, int) (*service.Report, error) {
	return f.report, nil
}

func TestReportChart(t *testing.T) {
	labels := []string{"2025-01", "2025-02", "2025-03"}
	metrics := &fakeMetricsService{report: &service.Report{
		Revenue: service.Chart{Labels: labels, Datasets: []service.Dataset{{Label: "Revenue", Data: []float64{10, 20, 30}}}},
		Costs:   service.Chart{Labels: labels, Datasets: []service.Dataset{{Label: "Costs", Data: []float64{5, 5, 5}}}},
		Users:   service.Chart{Labels: labels, Datasets: []service.Dataset{{Label: "New users", Data: []float64{1, 2, 3}}}},
	}}
	api := newTestAPI(t, claimsFor("admin", model.RoleAdmin))
	h := NewMetricsHandler(metrics, nil, zerolog.Nop())
	huma.Register(api, huma.Operation{OperationID: "getReportChart", Method: http.MethodGet, Path: "/api/admin/reports/chart.png"}, h.GetReportChart)

	for _, kind := range []string{"revenue", "users"} {
		resp := api.Get("/api/admin/reports/chart.png?kind=" + kind)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, resp.Body.Bytes()[:4])
	}

	metrics.report = &service.Report{}
	assert.Equal(t, http.StatusBadRequest, api.Get("/api/admin/reports/chart.png").Code)
}

func TestMapErrorHidesUnknownErrors(t *testing.T) {
	err := mapError(assert.AnError, zerolog.Nop())
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.GetStatus())
	assert.NotContains(t, err.Error(), assert.AnError.Error())
}
