package events

import (
	"context"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/pgmq"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Backend names accepted in EVENTS_BACKEND.
const (
	BackendNone   = "none"
	BackendPubSub = "pubsub"
	BackendAMQP   = "amqp"
	BackendPGMQ   = "pgmq"
)

// Publisher sends domain events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Handler processes one delivered event. A non-nil error asks the backend to redeliver.
type Handler func(ctx context.Context, e Event) error

// Subscriber delivers events to a handler until ctx is done.
type Subscriber interface {
	Receive(ctx context.Context, h Handler) error
	Close() error
}

// NewPublisher returns the publisher selected by cfg.EventsBackend. The pool is
// only used by the pgmq backend.
func NewPublisher(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (Publisher, error) {
	switch cfg.EventsBackend {
	case "", BackendNone:
		return NoopPublisher{logger: logger}, nil
	case BackendPubSub:
		p, err := NewPubSubPublisher(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendAMQP:
		c, err := NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendPGMQ:
		if pool == nil {
			return nil, fmt.Errorf("pgmq backend requires a database pool")
		}
		return NewPGMQPublisher(pgmq.New(pool), cfg.NotifierQueueName), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}

// NoopPublisher drops events. It is used when no broker is configured.
type NoopPublisher struct {
	logger zerolog.Logger
}

func (p NoopPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Debug().Str("event_type", e.Type).Str("user_id", e.UserID).Msg("Events disabled; dropping event")
	return nil
}

func (NoopPublisher) Close() error { return nil }
