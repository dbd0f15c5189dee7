package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushRequest(t *testing.T, path string, data []byte, attrs map[string]string) *http.Request {
	t.Helper()
	var env events.PushEnvelope
	env.Message.Data = data
	env.Message.MessageID = "m-1"
	env.Message.Attributes = attrs
	env.Subscription = "projects/p/subscriptions/fintrack-notifier"
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
}

func passThrough(next http.Handler) http.Handler { return next }

func TestPushRoutes(t *testing.T) {
	m := &fakeMailer{}
	dlq := &fakeDeadLetters{}
	h := PushRoutes(New(m, nil, zerolog.Nop()).Handle, dlq, passThrough, zerolog.Nop())

	data, err := json.Marshal(events.New(events.TypeUserRegistered, user(), nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pushRequest(t, "/pubsub/push", data, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, m.sent, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, pushRequest(t, "/pubsub/dead-letter", data, map[string]string{
		"CloudPubSubDeadLetterSourceDeliveryCount": "5",
	}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, dlq.records, 1)
	assert.Equal(t, 5, dlq.records[0].attempts)
	assert.Equal(t, events.TypeUserRegistered, dlq.records[0].eventType)
	assert.Equal(t, "pubsub:projects/p/subscriptions/fintrack-notifier", dlq.records[0].source)
}

func TestPushRoutesRequireAuth(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	h := PushRoutes(func(context.Context, events.Event) error { return nil }, &fakeDeadLetters{}, deny, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pushRequest(t, "/pubsub/push", []byte(`{}`), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeadLetterRejectsBadEnvelope(t *testing.T) {
	h := PushRoutes(func(context.Context, events.Event) error { return nil }, &fakeDeadLetters{}, passThrough, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pubsub/dead-letter", bytes.NewBufferString("nope")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
