package events

import (
	"context"
	"encoding/json"
	"fmt"

	"fintrack/internal/pgmq"
)

// PGMQPublisher enqueues events into a pgmq queue in the application database.
type PGMQPublisher struct {
	client *pgmq.Client
	queue  string
}

func NewPGMQPublisher(client *pgmq.Client, queue string) *PGMQPublisher {
	return &PGMQPublisher{client: client, queue: queue}
}

func (p *PGMQPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Send(ctx, p.queue, body); err != nil {
		return fmt.Errorf("enqueue %s event: %w", e.Type, err)
	}
	return nil
}

func (p *PGMQPublisher) Close() error { return nil }
