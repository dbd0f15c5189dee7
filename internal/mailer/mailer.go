// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/config"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// Message is a plain-text email to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// New returns an SMTP mailer when SMTP_HOST is set and a logging mailer otherwise.
func New(cfg *config.Config, logger zerolog.Logger) (Mailer, error) {
	if !cfg.MailEnabled() {
		logger.Warn().Msg("SMTP_HOST not set; emails will only be logged")
		return LogMailer{logger: logger}, nil
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends through an SMTP relay, upgrading to TLS when offered.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.SMTPFrom}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg, err := buildMsg(s.from, m)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", m.To, err)
	}
	return nil
}

func buildMsg(from string, m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	return msg, nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) LogMailer {
	return LogMailer{logger: logger}
}

func (l LogMailer) Send(_ context.Context, m Message) error {
	l.logger.Info().Str("to", m.To).Str("subject", m.Subject).Msg("Email (not sent, SMTP disabled)")
	return nil
}
