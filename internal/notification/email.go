package notification

import (
	"fmt"
	"net/smtp"

	"github.com/tendant/simple-teams/pkg/domain"
)

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

type EmailService struct {
	config EmailConfig
}

func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config}
}

func (s *EmailService) SendInviteEmail(to, teamName string, role domain.Role, acceptURL string) error {
	subject := fmt.Sprintf("You've been invited to join %s", teamName)
	body := fmt.Sprintf(`<html><body>
		<h2>Team Invitation</h2>
		<p>You have been invited to join the team <strong>%s</strong> as <strong>%s</strong>.</p>
		<p><a href="%s">Click here to accept the invitation</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This invitation will expire in 7 days.</p>
		<p>If you were not expecting this invitation, you can ignore this email.</p>
	</body></html>`, teamName, role, acceptURL, acceptURL)
	return s.sendEmail(to, subject, body)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	return smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg))
}
