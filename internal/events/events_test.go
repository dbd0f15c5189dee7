package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCopiesUser(t *testing.T) {
	e := New(TypeUserRegistered, &model.User{ID: "u1", Email: "a@b.c", Name: "Ana"}, nil)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "Ana", e.Name)
	assert.WithinDuration(t, time.Now(), e.OccurredAt, time.Minute)
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := Decode([]byte(`{"id":"x"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewPublisherSelectsBackend(t *testing.T) {
	ctx := context.Background()

	p, err := NewPublisher(ctx, &config.Config{EventsBackend: BackendNone}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, p.Publish(ctx, New(TypeUserRegistered, nil, nil)))

	_, err = NewPublisher(ctx, &config.Config{EventsBackend: "kafka"}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewPublisher(ctx, &config.Config{EventsBackend: BackendPGMQ}, nil, zerolog.Nop())
	assert.Error(t, err)

	_, err = NewPublisher(ctx, &config.Config{EventsBackend: BackendPubSub}, nil, zerolog.Nop())
	assert.Error(t, err, "missing project id")
}

func pushBody(t *testing.T, data []byte) *bytes.Reader {
	t.Helper()
	var env PushEnvelope
	env.Message.Data = data
	env.Message.MessageID = "m1"
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestPushHandler(t *testing.T) {
	event, err := json.Marshal(New(TypeSubscriptionChanged, &model.User{ID: "u1"}, map[string]string{"status": "active"}))
	require.NoError(t, err)

	var got Event
	ok := PushHandler(func(_ context.Context, e Event) error {
		got = e
		return nil
	}, zerolog.Nop())

	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push", pushBody(t, event)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "active", got.Data["status"])

	failing := PushHandler(func(context.Context, Event) error { return errors.New("smtp down") }, zerolog.Nop())
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push", pushBody(t, event)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push", pushBody(t, []byte(`{}`))))
	assert.Equal(t, http.StatusNoContent, rec.Code, "malformed events are acked")

	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/push", bytes.NewReader([]byte("nope"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAMQPRoundTrip(t *testing.T) {
	url := os.Getenv("AMQP_TEST_URL")
	if url == "" {
		t.Skip("AMQP_TEST_URL not set")
	}
	client, err := NewAMQPClient(url, "fintrack-test", "fintrack-test-events", zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sent := New(TypeUserRegistered, &model.User{ID: "u1", Email: "a@b.c"}, nil)
	require.NoError(t, client.Publish(ctx, sent))

	received := make(chan Event, 1)
	go func() {
		_ = client.Receive(ctx, func(_ context.Context, e Event) error {
			received <- e
			return nil
		})
	}()

	select {
	case e := <-received:
		assert.Equal(t, sent.ID, e.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestPubSubPublishWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}
	ctx := context.Background()
	cfg := &config.Config{GCPProjectID: "test-project", PubSubEmulatorHost: emulator, PubSubTopic: "fintrack-test"}

	pub, err := NewPubSubPublisher(ctx, cfg)
	require.NoError(t, err)
	defer pub.Close()

	if exists, err := pub.topic.Exists(ctx); err == nil && !exists {
		_, err := pub.client.CreateTopic(ctx, cfg.PubSubTopic)
		require.NoError(t, err)
	}
	require.NoError(t, pub.Publish(ctx, New(TypeUserRegistered, &model.User{ID: "u1"}, nil)))
}
