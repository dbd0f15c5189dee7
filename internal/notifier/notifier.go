// Package notifier turns domain events into transactional email.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"fintrack/internal/events"
	"fintrack/internal/mailer"
	"fintrack/internal/model"

	"github.com/rs/zerolog"
)

// Preferences looks up a user's notification settings.
type Preferences interface {
	Get(ctx context.Context, userID string) (*model.UserPreferences, error)
}

type mailTemplate struct {
	subject string
	body    *template.Template
	// security notices go out even when the user opted out of email.
	security bool
	// recipient picks the address; nil means the event's email.
	recipient func(e events.Event) string
}

var templates = map[string]mailTemplate{
	events.TypeUserRegistered: {
		subject: "Welcome to fintrack",
		body: template.Must(template.New("registered").Parse(`Hi {{.Name}},

Your fintrack account is ready. Start by adding your first transaction
and setting a monthly budget in your preferences.
`)),
	},
	events.TypeSubscriptionChanged: {
		subject: "Your subscription was updated",
		body: template.Must(template.New("subscription").Parse(`Hi {{.Name}},

Your subscription is now {{index .Data "status"}}{{with index .Data "plan"}} on the {{.}} plan{{end}}.
`)),
	},
	events.TypeProfileUpdated: {
		subject:  "Your fintrack email address was changed",
		security: true,
		recipient: func(e events.Event) string {
			if prev := e.Data["previous_email"]; prev != e.Email {
				return prev
			}
			return ""
		},
		body: template.Must(template.New("profile").Parse(`Hi {{.Name}},

The email address on your fintrack account was changed to {{.Email}}.
All sessions were signed out. If you did not make this change, contact support.
`)),
	},
}

// Notifier sends one email per supported event.
type Notifier struct {
	mail   mailer.Mailer
	prefs  Preferences
	logger zerolog.Logger
}

func New(mail mailer.Mailer, prefs Preferences, logger zerolog.Logger) *Notifier {
	return &Notifier{mail: mail, prefs: prefs, logger: logger.With().Str("component", "notifier").Logger()}
}

// Handle is an events.Handler. Unsupported event types are acknowledged and skipped.
func (n *Notifier) Handle(ctx context.Context, e events.Event) error {
	tmpl, ok := templates[e.Type]
	if !ok {
		n.logger.Debug().Str("event_type", e.Type).Msg("No email for event type")
		return nil
	}

	to := e.Email
	if tmpl.recipient != nil {
		to = tmpl.recipient(e)
	}
	log := n.logger.With().Str("event_type", e.Type).Str("event_id", e.ID).Str("user_id", e.UserID).Logger()
	if to == "" {
		log.Debug().Msg("Event has no recipient; skipping")
		return nil
	}

	if !tmpl.security && n.prefs != nil && e.UserID != "" {
		p, err := n.prefs.Get(ctx, e.UserID)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		if p != nil && !p.EmailNotifications {
			log.Debug().Msg("User opted out of email notifications")
			return nil
		}
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, e); err != nil {
		return fmt.Errorf("render %s email: %w", e.Type, err)
	}
	if err := n.mail.Send(ctx, mailer.Message{To: to, Subject: tmpl.subject, Body: body.String()}); err != nil {
		return err
	}
	log.Info().Msg("Notification sent")
	return nil
}
