package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/email"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/metrics"
)

const sendTimeout = 10 * time.Second

// Result reports the outcome of a best-effort email sent after a primary
// action committed. It never fails the primary action.
type Result struct {
	Kind      enums.NotificationKind `json:"kind"`
	Recipient string                 `json:"recipient"`
	Delivered bool                   `json:"delivered"`
	Provider  string                 `json:"provider"`
	Error     string                 `json:"error,omitempty"`
}

// Service delivers the transactional emails.
type Service interface {
	Verification(ctx context.Context, user *models.User, url string) Result
	PasswordReset(ctx context.Context, user *models.User, url string) Result
	Welcome(ctx context.Context, user *models.User, tempPassword string) Result
	Deliver(ctx context.Context, kind enums.NotificationKind, to string, msg email.Message) Result
}

type outcomeRecorder interface {
	Observe(kind, outcome string)
}

type ServiceParams struct {
	Sender   email.Sender
	Logger   *logger.Logger
	Metrics  outcomeRecorder
	AppName  string
	LoginURL string
}

type service struct {
	sender   email.Sender
	logg     *logger.Logger
	metrics  outcomeRecorder
	appName  string
	loginURL string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email sender required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		sender:   params.Sender,
		logg:     params.Logger,
		metrics:  params.Metrics,
		appName:  params.AppName,
		loginURL: params.LoginURL,
	}, nil
}

func (s *service) Verification(ctx context.Context, user *models.User, url string) Result {
	msg := email.VerificationEmail(email.VerificationData{AppName: s.appName, Name: nameOf(user), URL: url})
	return s.Deliver(ctx, enums.NotificationVerification, user.Email, msg)
}

func (s *service) PasswordReset(ctx context.Context, user *models.User, url string) Result {
	msg := email.PasswordResetEmail(email.PasswordResetData{AppName: s.appName, Name: nameOf(user), URL: url})
	return s.Deliver(ctx, enums.NotificationPasswordReset, user.Email, msg)
}

func (s *service) Welcome(ctx context.Context, user *models.User, tempPassword string) Result {
	msg := email.WelcomeEmail(email.WelcomeData{
		AppName:      s.appName,
		Name:         nameOf(user),
		Email:        user.Email,
		TempPassword: tempPassword,
		LoginURL:     s.loginURL,
	})
	return s.Deliver(ctx, enums.NotificationWelcome, user.Email, msg)
}

// Deliver makes a single send attempt. The send outlives request cancellation
// but is bounded by its own timeout.
func (s *service) Deliver(ctx context.Context, kind enums.NotificationKind, to string, msg email.Message) Result {
	result := Result{Kind: kind, Recipient: to, Provider: s.sender.Provider()}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"kind":      string(kind),
		"recipient": to,
		"provider":  result.Provider,
	})

	err := s.sender.Send(sendCtx, to, msg)
	switch {
	case err == nil:
		result.Delivered = true
		s.observe(kind, metrics.OutcomeDelivered)
		s.logg.Info(logCtx, "notification.sent")
	case errors.Is(err, email.ErrNotConfigured):
		result.Error = err.Error()
		s.observe(kind, metrics.OutcomeSkipped)
		s.logg.Warn(logCtx, "notification.skipped")
	default:
		result.Error = err.Error()
		s.observe(kind, metrics.OutcomeFailed)
		s.logg.Error(logCtx, "notification.failed", err)
	}
	return result
}

func (s *service) observe(kind enums.NotificationKind, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(string(kind), outcome)
}

func nameOf(user *models.User) string {
	if user == nil || user.Name == nil {
		return ""
	}
	return strings.TrimSpace(*user.Name)
}
