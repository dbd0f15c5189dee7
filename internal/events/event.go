// Package events publishes domain events to the configured broker and
// delivers them to consumers such as the notifier.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/model"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeUserRegistered      = "user.registered"
	TypeProfileUpdated      = "user.profile_updated"
	TypeSubscriptionChanged = "subscription.changed"
)

// Event is the envelope every backend carries as JSON.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	UserID     string            `json:"user_id"`
	Email      string            `json:"email,omitempty"`
	Name       string            `json:"name,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

// New builds an event about u stamped with a fresh id.
func New(eventType string, u *model.User, data map[string]string) Event {
	e := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if u != nil {
		e.UserID = u.ID
		e.Email = u.Email
		e.Name = u.Name
	}
	return e
}

// Decode parses a JSON event body and rejects envelopes without a type.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("decode event: missing type")
	}
	return e, nil
}
