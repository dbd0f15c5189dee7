package dto

import (
	"encoding/json"
	"time"

	"fintrack/internal/model"
)

// DeadLetterResponseDTO is a notification that exhausted its retries
type DeadLetterResponseDTO struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	EventType string          `json:"event_type,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	LastError string          `json:"last_error,omitempty"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewDeadLetterResponse(m *model.DeadLetterMessage) DeadLetterResponseDTO {
	return DeadLetterResponseDTO{
		ID:        m.ID,
		Source:    m.Source,
		EventType: m.EventType,
		Payload:   json.RawMessage(m.Payload),
		LastError: m.LastError,
		Attempts:  m.Attempts,
		CreatedAt: m.CreatedAt,
	}
}
