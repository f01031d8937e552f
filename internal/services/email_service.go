package services

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendNotification(to, subject, body string) error
	SendWelcomeEmail(to, name string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendNotification(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", fmt.Sprintf(`
		<h3>%s</h3>
		<p>%s</p>
		<p>Studio RIT</p>
	`, html.EscapeString(subject), html.EscapeString(body)))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}

func (s *emailService) SendWelcomeEmail(to, name string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to Studio RIT!")
	m.SetBody("text/html", fmt.Sprintf(`
		<h2>Welcome to Studio RIT, %s!</h2>
		<p>Your account has been created with the volunteer role.</p>
		<p>A coordinator can add you to project teams from now on.</p>
	`, html.EscapeString(name)))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
