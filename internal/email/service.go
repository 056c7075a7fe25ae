// Package email sends notification e-mails to clinic clients.
package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

type Service interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService returns a Service that sends through an SMTP relay.
func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type logService struct {
	logger zerolog.Logger
}

// NewLogService returns a Service that only logs the messages. It is used
// when no SMTP host is configured.
func NewLogService(logger zerolog.Logger) Service {
	return &logService{logger: logger}
}

func (s *logService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Msg("email not sent, smtp disabled")
	return nil
}
