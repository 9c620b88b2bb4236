package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/petify/petify-api/pkg/logger"
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

type SMTPService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) *SMTPService {
	return &SMTPService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPService) SendCustom(ctx context.Context, to, subject, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// NoopService logs instead of sending. Used when SMTP is not configured.
type NoopService struct {
	log *logger.Logger
}

func NewNoopService(log *logger.Logger) *NoopService {
	return &NoopService{log: log}
}

func (s *NoopService) SendCustom(_ context.Context, to, subject, _ string) error {
	s.log.Debug("Email delivery disabled, dropping message", "to", to, "subject", subject)
	return nil
}
