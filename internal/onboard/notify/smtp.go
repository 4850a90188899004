package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Sender delivers one rendered email. The queue workers invoke it after
// dequeueing; swapping the implementation is how the service switches between
// live SMTP and demo operation without touching the chain.
type Sender interface {
	SendEmail(ctx context.Context, email Email) error
}

// SMTPConfig holds the relay settings for live delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether a relay is usable.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port != 0 && c.From != ""
}

// SMTPSender delivers via an SMTP relay using gomail.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendEmail(_ context.Context, email Email) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.Text)
	m.AddAlternative("text/html", email.HTML)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", email.To, err)
	}
	return nil
}

// LogSender writes the email to the log instead of a relay. It backs the
// queue channel in demo deployments so the worker fleet stays exercised.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) SendEmail(ctx context.Context, email Email) error {
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "log sender delivered email",
			"to", email.To,
			"subject", email.Subject,
		)
	}
	return nil
}
