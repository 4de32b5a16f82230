package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type Mailer struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

func NewMailer(apiKey, fromName, fromEmail string) (*Mailer, error) {
	if apiKey == "" || fromEmail == "" {
		return nil, errors.New("mailer disabled (missing MAILERSEND_API_KEY or EMAIL_FROM)")
	}
	return &Mailer{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: fromName, Email: fromEmail},
	}, nil
}

func (m *Mailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}

func (m *Mailer) SendWelcome(toEmail, toName, profileURL string) error {
	subject := "Welcome to Trailpost!"
	text := fmt.Sprintf("Hi %s, welcome aboard. Manage your account here: %s", toName, profileURL)
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Welcome aboard! You can manage your account <a href="%s">here</a>.</p>`, toName, profileURL)
	_, err := m.Send(toEmail, toName, subject, text, html)
	return err
}

func (m *Mailer) SendPasswordReset(toEmail, toName, resetURL string) error {
	subject := "Your password reset token (valid for 10 minutes)"
	text := fmt.Sprintf("Forgot your password? Submit a PATCH with your new password to: %s\nIf you didn't, ignore this email.", resetURL)
	html := fmt.Sprintf(`<p>Forgot your password? <a href="%s">Reset it here</a>. The link expires in 10 minutes.</p><p>If you didn't request this, ignore this email.</p>`, resetURL)
	_, err := m.Send(toEmail, toName, subject, text, html)
	return err
}
