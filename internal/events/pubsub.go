package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"fintrack/internal/config"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// PubSubClientOptions points the client at the emulator when one is configured.
func PubSubClientOptions(cfg *config.Config) []option.ClientOption {
	if cfg.PubSubEmulatorHost != "" {
		return []option.ClientOption{
			option.WithEndpoint(cfg.PubSubEmulatorHost),
			option.WithoutAuthentication(),
		}
	}
	if cfg.GCPCredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.GCPCredentialsFile)}
	}
	return nil
}

// PubSubPublisher publishes events to a single Google Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher creates a publisher for cfg.PubSubTopic in cfg.GCPProjectID.
func NewPubSubPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is required for the pubsub backend")
	}
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID, PubSubClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client, topic: client.Topic(cfg.PubSubTopic)}, nil
}

// Publish sends the event and waits for the server to acknowledge it.
func (p *PubSubPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       body,
		Attributes: map[string]string{"type": e.Type},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish %s to topic %s: %w", e.Type, p.topic.ID(), err)
	}
	return nil
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// PubSubSubscriber pulls events from a Pub/Sub subscription.
type PubSubSubscriber struct {
	client *pubsub.Client
	sub    *pubsub.Subscription
	logger zerolog.Logger
}

func NewPubSubSubscriber(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*PubSubSubscriber, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP_PROJECT_ID is required for the pubsub backend")
	}
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID, PubSubClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubSubscriber{client: client, sub: client.Subscription(cfg.PubSubSubscription), logger: logger}, nil
}

// Receive blocks until ctx is done. Undecodable messages are acked and dropped;
// handler failures are nacked so the subscription's retry policy applies.
func (s *PubSubSubscriber) Receive(ctx context.Context, h Handler) error {
	return s.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		e, err := Decode(m.Data)
		if err != nil {
			s.logger.Error().Err(err).Str("message_id", m.ID).Msg("Dropping malformed event")
			m.Ack()
			return
		}
		if err := h(ctx, e); err != nil {
			s.logger.Warn().Err(err).Str("event_type", e.Type).Str("message_id", m.ID).Msg("Handler failed; nacking")
			m.Nack()
			return
		}
		m.Ack()
	})
}

func (s *PubSubSubscriber) Close() error {
	return s.client.Close()
}

// PushEnvelope is the JSON body Pub/Sub sends to push endpoints.
type PushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		MessageID  string            `json:"messageId"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DeliveryAttempt reads the delivery count Pub/Sub stamps on dead-lettered
// messages. It returns 0 when the attribute is absent.
func (e PushEnvelope) DeliveryAttempt() int {
	n, _ := strconv.Atoi(e.Message.Attributes["CloudPubSubDeadLetterSourceDeliveryCount"])
	return n
}

// DecodePush reads a push request body.
func DecodePush(r io.Reader) (PushEnvelope, error) {
	var env PushEnvelope
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return env, fmt.Errorf("read push body: %w", err)
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("decode push envelope: %w", err)
	}
	return env, nil
}

// PushHandler adapts h to a Pub/Sub push endpoint. A 2xx response acks the
// message; anything else makes Pub/Sub redeliver it.
func PushHandler(h Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env, err := DecodePush(r.Body)
		if err != nil {
			http.Error(w, "invalid push envelope", http.StatusBadRequest)
			return
		}
		e, err := Decode(env.Message.Data)
		if err != nil {
			// Malformed events can never succeed; ack them so they are not redelivered.
			logger.Error().Err(err).Str("message_id", env.Message.MessageID).Msg("Dropping malformed pushed event")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if err := h(r.Context(), e); err != nil {
			logger.Warn().Err(err).Str("event_type", e.Type).Str("message_id", env.Message.MessageID).Msg("Pushed event handler failed")
			http.Error(w, "handler failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
