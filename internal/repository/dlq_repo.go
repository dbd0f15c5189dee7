package repository

import (
	"context"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQRepository records notification events that could not be delivered.
type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
	ListRecent(ctx context.Context, limit int) ([]model.DeadLetterMessage, error)
}

type dlqRepository struct {
	pool *pgxpool.Pool
}

func NewDLQRepository(pool *pgxpool.Pool) DLQRepository {
	return &dlqRepository{pool: pool}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	query := `
        INSERT INTO dead_letter_messages (id, source, event_type, payload, last_error, attempts)
        VALUES ($1, $2, $3, $4::jsonb, $5, $6)
        RETURNING created_at
    `
	err := r.pool.QueryRow(
		ctx,
		query,
		message.ID,
		message.Source,
		message.EventType,
		message.Payload,
		message.LastError,
		message.Attempts,
	).Scan(&message.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording dead letter %s: %w", message.ID, err)
	}
	return nil
}

func (r *dlqRepository) ListRecent(ctx context.Context, limit int) ([]model.DeadLetterMessage, error) {
	query := `
        SELECT id, source, event_type, payload::text, last_error, attempts, created_at
        FROM dead_letter_messages
        ORDER BY created_at DESC
        LIMIT $1
    `
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying dead letters: %w", err)
	}
	defer rows.Close()

	messages := []model.DeadLetterMessage{}
	for rows.Next() {
		var m model.DeadLetterMessage
		if err := rows.Scan(&m.ID, &m.Source, &m.EventType, &m.Payload, &m.LastError, &m.Attempts, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dead letter row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dead letter rows: %w", err)
	}
	return messages, nil
}
