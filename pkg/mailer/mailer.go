package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/pkg/config"
)

// Message describes a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridMailer delivers mail through the SendGrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

// NewSendgrid builds a SendGrid-backed mailer from configuration.
func NewSendgrid(cfg config.EmailConfig) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
	}
}

// Send delivers a single message and reports delivery failure.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	mail := sgmail.NewSingleEmail(m.from, msg.Subject, sgmail.NewEmail("", msg.To), "", msg.HTML)
	resp, err := m.client.SendWithContext(ctx, mail)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}

// ConsoleMailer logs messages instead of delivering them. Used in development
// when no SendGrid key is configured.
type ConsoleMailer struct {
	logger *zap.Logger
}

// NewConsole builds a console mailer.
func NewConsole(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send writes the message to the log.
func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("email (console)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// FromConfig picks the SendGrid mailer when a key is present, console otherwise.
func FromConfig(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if cfg.SendgridAPIKey != "" {
		return NewSendgrid(cfg)
	}
	return NewConsole(logger)
}
