package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/api/v1/handler"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/middleware"
	"fintrack/internal/model"
	"fintrack/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookSecret = "whsec_router_test"

type fakeSessions struct {
	users map[string]*model.User
}

func (f fakeSessions) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}

type fakeSubscriptions struct {
	service.SubscriptionService
}

func (fakeSubscriptions) GetSubscription(context.Context, string) (*model.Subscription, error) {
	return nil, nil
}

type testServer struct {
	srv    *httptest.Server
	tokens *auth.TokenManager
	user   *model.User
}

func newTestServer(t *testing.T) *testServer {
	logger := zerolog.Nop()
	user := &model.User{ID: "u1", Email: "ana@example.com", Role: model.RoleUser, IsActive: true, TokenVersion: 2}
	tokens := auth.NewTokenManager("router-secret", time.Hour)
	sessions := fakeSessions{users: map[string]*model.User{user.ID: user}}

	h := Handlers{
		Subscription: handler.NewSubscriptionHandler(fakeSubscriptions{}, logger),
		Webhook:      handler.NewWebhookHandler(service.NewStripeService(webhookSecret, nil, nil, nil, nil, logger), logger),
	}
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	srv := httptest.NewServer(NewHandler(cfg, h, middleware.AuthMiddleware(tokens, sessions, IsPublic, logger), logger))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, tokens: tokens, user: user}
}

func (s *testServer) do(t *testing.T, method, path, token string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodGet, "/healthz", "", "").StatusCode)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/openapi.json", "", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/subscriptions/me", "", "").StatusCode)
}

func TestSessionTokens(t *testing.T) {
	s := newTestServer(t)

	token, _, err := s.tokens.Issue(s.user)
	require.NoError(t, err)
	resp := s.do(t, http.MethodGet, "/api/subscriptions/me", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "inactive", body["status"])

	stale := *s.user
	stale.TokenVersion = 1
	token, _, err = s.tokens.Issue(&stale)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/subscriptions/me", token, "").StatusCode)
}

func TestStripeWebhook(t *testing.T) {
	s := newTestServer(t)
	payload := `{"id":"evt_1","object":"event","type":"invoice.paid","created":1700000000,"data":{"object":{}}}`

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/webhooks/stripe", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: []byte(payload), Secret: webhookSecret})
	req, err = http.NewRequest(http.MethodPost, s.srv.URL+"/api/webhooks/stripe", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Stripe-Signature", signed.Header)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["received"])
}

func TestIsPublic(t *testing.T) {
	tests := []struct {
		method, path string
		want         bool
	}{
		{http.MethodPost, "/api/auth/login", true},
		{http.MethodGet, "/api/plans", true},
		{http.MethodPost, "/api/plans", false},
		{http.MethodGet, "/api/admin/plans", false},
		{http.MethodGet, "/docs", true},
		{http.MethodGet, "/schemas/UserResponseDTO.json", true},
		{http.MethodOptions, "/api/transactions", true},
		{http.MethodGet, "/api/transactions", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.path, nil)
		assert.Equal(t, tt.want, IsPublic(r), "%s %s", tt.method, tt.path)
	}
}
