package mailer

import (
	"github.com/trailpost/tours-api/pkg/logger"
)

// DevMailer logs mail instead of sending it. Default outside production
// so signup and password-reset flows work without MailerSend keys.
type DevMailer struct{}

func (DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("dev mail", "to", toEmail, "subject", subject, "text", text)
	return "dev", nil
}

func (d DevMailer) SendWelcome(toEmail, toName, profileURL string) error {
	_, err := d.Send(toEmail, toName, "Welcome to Trailpost!", "profile: "+profileURL, "")
	return err
}

func (d DevMailer) SendPasswordReset(toEmail, toName, resetURL string) error {
	_, err := d.Send(toEmail, toName, "Password reset", "reset: "+resetURL, "")
	return err
}
