package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v3"
)

var ErrNotConfigured = errors.New("notify: resend needs an API key, sender and recipient")

// Config holds Resend settings. Notifications are off without an API key.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL"`
	SenderName  string `env:"RESEND_FROM_NAME" envDefault:"Folio"`
	AdminEmail  string `env:"NOTIFY_EMAIL"`
}

// Resend emails the site owner through the Resend API.
type Resend struct {
	client *resend.Client
	cfg    Config
}

// NewResend creates a Resend notifier.
func NewResend(cfg Config) (*Resend, error) {
	if cfg.APIKey == "" || cfg.SenderEmail == "" || cfg.AdminEmail == "" {
		return nil, ErrNotConfigured
	}
	return &Resend{client: resend.NewClient(cfg.APIKey), cfg: cfg}, nil
}

func (r *Resend) MessageReceived(ctx context.Context, m Message) error {
	if _, err := r.client.Emails.SendWithContext(ctx, r.request(m)); err != nil {
		return fmt.Errorf("notify: failed to send email: %w", err)
	}
	return nil
}

func (r *Resend) request(m Message) *resend.SendEmailRequest {
	from := r.cfg.SenderEmail
	if r.cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", r.cfg.SenderName, r.cfg.SenderEmail)
	}

	subject := "New message from " + m.Name
	if m.Subject != "" {
		subject += ": " + m.Subject
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s <%s>\n", m.Name, m.Email)
	if m.Subject != "" {
		fmt.Fprintf(&body, "Subject: %s\n", m.Subject)
	}
	body.WriteString("\n")
	body.WriteString(m.Body)

	req := &resend.SendEmailRequest{
		From:    from,
		To:      []string{r.cfg.AdminEmail},
		Subject: subject,
		Text:    body.String(),
	}
	if m.Email != "" {
		req.ReplyTo = m.Email
	}
	return req
}

// Open returns a Resend notifier when an API key is configured, and Nope
// otherwise.
func Open(cfg Config) (Notifier, error) {
	if cfg.APIKey == "" {
		return Nope{}, nil
	}
	return NewResend(cfg)
}
