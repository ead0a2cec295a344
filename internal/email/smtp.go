package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP transport settings
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	SiteURL  string `mapstructure:"site_url"`
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	// links in outgoing mail point at the public site
	siteURL string
}

// NewSMTPService creates an email service backed by an SMTP relay
func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		siteURL: cfg.SiteURL,
	}
}

func (s *smtpService) SendConfirmation(to, token string) error {
	subject := "Confirm your email"
	body := fmt.Sprintf(
		"Welcome aboard.\n\nPlease confirm your email address by visiting:\n%s/confirm-email/%s\n",
		s.siteURL, token,
	)
	return s.send(to, subject, body)
}

func (s *smtpService) SendPasswordReset(to, token string) error {
	subject := "Password Reset Request"
	body := fmt.Sprintf(
		"Please click this link to reset your password: %s/reset-password/%s\n",
		s.siteURL, token,
	)
	return s.send(to, subject, body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
