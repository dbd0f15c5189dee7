package service

import (
	"context"
	"encoding/json"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type DLQService interface {
	// Record stores a message that exhausted its retries. Payloads that are not
	// JSON are kept as a JSON string.
	Record(ctx context.Context, source, eventType string, payload []byte, attempts int, cause error) error
	Recent(ctx context.Context, limit int) ([]model.DeadLetterMessage, error)
}

type dlqService struct {
	repo   repository.DLQRepository
	logger zerolog.Logger
}

func NewDLQService(repo repository.DLQRepository, logger zerolog.Logger) DLQService {
	return &dlqService{repo: repo, logger: logger.With().Str("service", "DLQService").Logger()}
}

func (s *dlqService) Record(ctx context.Context, source, eventType string, payload []byte, attempts int, cause error) error {
	if !json.Valid(payload) {
		// Keep the raw bytes when they are not valid JSON.
		quoted, err := json.Marshal(string(payload))
		if err != nil {
			return err
		}
		payload = quoted
	}
	msg := &model.DeadLetterMessage{
		ID:        uuid.NewString(),
		Source:    source,
		EventType: eventType,
		Payload:   string(payload),
		Attempts:  attempts,
	}
	if cause != nil {
		msg.LastError = cause.Error()
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("source", source).Str("event_type", eventType).Msg("Failed to record dead letter")
		return err
	}
	s.logger.Warn().Str("source", source).Str("event_type", eventType).Int("attempts", attempts).Msg("Dead-lettered message")
	return nil
}

func (s *dlqService) Recent(ctx context.Context, limit int) ([]model.DeadLetterMessage, error) {
	return s.repo.ListRecent(ctx, limit)
}
