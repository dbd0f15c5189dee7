package model

import "time"

// DeadLetterMessage is a notification event that exhausted its delivery retries.
type DeadLetterMessage struct {
	ID        string    `db:"id" json:"id"`
	Source    string    `db:"source" json:"source"`
	EventType string    `db:"event_type" json:"event_type"`
	Payload   string    `db:"payload" json:"payload"` // raw JSON event
	LastError string    `db:"last_error" json:"last_error"`
	Attempts  int       `db:"attempts" json:"attempts"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
