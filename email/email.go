package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"

	"github.com/rs/zerolog/log"
)

// EmailService sends contact-form notifications to the site owner.
type EmailService struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	ContactEmail string
	Enabled      bool
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.EmailConfig) *EmailService {
	return &EmailService{
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		FromEmail:    cfg.FromEmail,
		FromName:     cfg.FromName,
		ContactEmail: cfg.ContactEmail,
		Enabled:      cfg.Enabled,
	}
}

// SendContactNotification forwards a contact-form submission.
func (es *EmailService) SendContactNotification(name, fromEmail, message string) error {
	if !es.Enabled {
		log.Warn().
			Str("from", fromEmail).
			Msg("Email service disabled - contact notification not sent")
		return nil
	}
	if es.ContactEmail == "" {
		return fmt.Errorf("no contact email configured")
	}

	subject := fmt.Sprintf("New contact form message from %s", name)
	body := fmt.Sprintf(
		"Name: %s\r\nEmail: %s\r\nReceived: %s\r\n\r\n%s\r\n",
		name, fromEmail, time.Now().Format(time.RFC3339), message,
	)

	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nReply-To: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		es.FromName, es.FromEmail, es.ContactEmail, fromEmail, subject, body,
	)

	addr := es.SMTPHost + ":" + es.SMTPPort
	auth := smtp.PlainAuth("", es.SMTPUsername, es.SMTPPassword, es.SMTPHost)

	if err := smtp.SendMail(addr, auth, es.FromEmail, []string{es.ContactEmail}, []byte(msg)); err != nil {
		log.Error().Err(err).Str("to", es.ContactEmail).Msg("Failed to send contact notification")
		return err
	}

	log.Info().Str("to", es.ContactEmail).Msg("Contact notification sent")
	return nil
}
