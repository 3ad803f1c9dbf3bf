package email

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

// ErrNotConfigured is returned by the noop sender.
var ErrNotConfigured = errors.New("email provider not configured")

// Sender delivers a rendered message to a single recipient. One attempt, no retries.
type Sender interface {
	Send(ctx context.Context, to string, msg Message) error
	Provider() string
}

// NewSender picks Resend when an API key is configured, then SMTP, then a noop sender.
func NewSender(cfg config.EmailConfig, logg *logger.Logger) Sender {
	switch {
	case strings.TrimSpace(cfg.ResendAPIKey) != "":
		return NewResendSender(cfg)
	case strings.TrimSpace(cfg.SMTPHost) != "":
		return NewSMTPSender(cfg)
	default:
		return NoopSender{logg: logg}
	}
}

// NoopSender logs the message and reports ErrNotConfigured.
type NoopSender struct {
	logg *logger.Logger
}

func (n NoopSender) Send(ctx context.Context, to string, msg Message) error {
	if n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{"to": to, "subject": msg.Subject})
		n.logg.Warn(ctx, "email.skipped.no_provider")
	}
	return ErrNotConfigured
}

func (NoopSender) Provider() string {
	return "none"
}
