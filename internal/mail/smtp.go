package mail

import (
	"context"
	"fmt"
	netmail "net/mail"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 10 * time.Second

type sendFunc func(ctx context.Context, msg *gomail.Msg) error

// SMTPMailer delivers mail through an SMTP relay. Delivery is bounded by
// the caller's context.
type SMTPMailer struct {
	from string
	send sendFunc
	now  func() time.Time
}

// NewSMTPMailer validates sender and prepares PLAIN auth when user is set.
func NewSMTPMailer(host string, port int, user, password, sender string) (*SMTPMailer, error) {
	addr, err := netmail.ParseAddress(sender)
	if err != nil {
		return nil, fmt.Errorf("mail sender %q: %w", sender, err)
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
	}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(password),
		)
	}

	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPMailer{
		from: addr.String(),
		send: func(ctx context.Context, msg *gomail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		now: time.Now,
	}, nil
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, username, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	content, err := Verification(m.from, to, username, link, m.now())
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(content.From); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(content.To); err != nil {
		return fmt.Errorf("smtp to %s: %w", to, err)
	}
	msg.Subject(content.Subject)
	msg.SetDateWithValue(content.Date)
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextHTML, content.HTML)

	// the relay may stall past the deadline; the send goroutine ends on the
	// client timeout
	done := make(chan error, 1)
	go func() { done <- m.send(ctx, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}
