package mailer

// Service is the outbound-mail collaborator. The API only ever sends
// two kinds of mail; both are thin wrappers over Send.
type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendWelcome(toEmail, toName, profileURL string) error
	SendPasswordReset(toEmail, toName, resetURL string) error
}
