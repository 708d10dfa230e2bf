package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"clubhub/internal/logger"
)

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends notifications over SMTP.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer builds a mailer; STARTTLS is used when the server offers it.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// Send delivers n.
func (m *SMTPMailer) Send(ctx context.Context, n Notification) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(n.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(mail.TypeTextPlain, n.Body)
	return m.client.DialAndSendWithContext(ctx, msg)
}

// LogMailer writes notifications to the log instead of sending them.
type LogMailer struct{}

// Send logs n.
func (LogMailer) Send(_ context.Context, n Notification) error {
	logger.Info.Printf("mail (not sent, SMTP not configured) to=%s subject=%q", n.To, n.Subject)
	return nil
}

// NewMailer returns an SMTPMailer when cfg names a host and a LogMailer otherwise.
func NewMailer(cfg SMTPConfig) (Mailer, error) {
	if cfg.Host == "" {
		logger.Warn.Println("SMTP_HOST not set, notifications will only be logged")
		return LogMailer{}, nil
	}
	return NewSMTPMailer(cfg)
}
