package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medivet/vetcare-api/internal/config"
	"github.com/medivet/vetcare-api/pkg/logger"
)

type Service interface {
	SendWelcome(ctx context.Context, to string, name string) error
	SendCustom(ctx context.Context, to string, subject string, body string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPService builds the mail sender. An empty host disables sending:
// every call becomes a logged no-op so clinics without a mail relay still run.
func NewSMTPService(cfg config.SMTPConfig, log *logger.Logger) Service {
	svc := &smtpService{
		from:   cfg.From,
		logger: log.WithComponent("email"),
	}
	if cfg.Host != "" {
		svc.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return svc
}

func (s *smtpService) SendWelcome(ctx context.Context, to string, name string) error {
	subject := "Welcome to VetCare"
	body := fmt.Sprintf("Hello %s,\r\n\r\nYour VetCare account is ready. Sign in with this email address to get started.\r\n", name)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(_ context.Context, to string, subject string, body string) error {
	if s.dialer == nil {
		s.logger.Warn("smtp not configured, skipping email", "to", to, "subject", subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	s.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}
