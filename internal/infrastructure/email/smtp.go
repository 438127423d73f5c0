// Package email delivers transactional mail over SMTP.
package email

import (
	"context"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPDispatcher sends plain-text mail through a single SMTP endpoint. Each
// Send dials a fresh connection; the auth flows send at most one message per
// request, so connection reuse is not worth the state.
type SMTPDispatcher struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
}

// NewSMTPDispatcher constructs a dispatcher. Empty username disables SMTP
// auth, which is what local debug servers such as MailHog expect.
func NewSMTPDispatcher(host string, port int, username, password, from string, timeout time.Duration) *SMTPDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPDispatcher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		timeout:  timeout,
	}
}

// Send delivers a plain-text message. Honors ctx; a deadline hit surfaces as
// an ordinary error so callers treat it as a dispatch failure.
func (d *SMTPDispatcher) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(d.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(d.port),
		mail.WithTimeout(d.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if d.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(d.username),
			mail.WithPassword(d.password),
		)
	}

	client, err := mail.NewClient(d.host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
