package email

import (
	"context"
	"fmt"

	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/resend/resend-go/v2"
)

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	emails resendEmails
	from   string
}

func NewResendSender(cfg config.EmailConfig) *ResendSender {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &ResendSender{emails: client.Emails, from: fromAddress(cfg)}
}

func (s *ResendSender) Send(ctx context.Context, to string, msg Message) error {
	_, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

func (s *ResendSender) Provider() string {
	return "resend"
}

func fromAddress(cfg config.EmailConfig) string {
	if cfg.AppName == "" {
		return cfg.From
	}
	return fmt.Sprintf("%s <%s>", cfg.AppName, cfg.From)
}
