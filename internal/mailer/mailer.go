// Package mailer sends password reset emails over SMTP.
package mailer

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends transactional mail for the reset flow.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

// New creates a Mailer for the given SMTP server. baseURL is the public
// base of the application, used to build reset links.
func New(host string, port int, username, password, from, baseURL string) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SendPasswordReset mails a reset link embedding the token to the given
// address. The context is accepted for interface symmetry; gomail dials
// synchronously.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", m.baseURL, token)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password reset")
	msg.SetBody("text/plain", fmt.Sprintf(
		"A password reset was requested for your account.\n\n"+
			"Open the link below within one hour to choose a new password:\n\n%s\n\n"+
			"If you did not request this, you can ignore this message.\n", link))

	return m.dialer.DialAndSend(msg)
}
