package auth

import (
	"time"

	"github.com/angelmondragon/adminkit-backend/internal/notifications"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
)

// SignUpRequest is the email/password registration payload.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Name        string `json:"name" validate:"omitempty,max=100"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

// SignInRequest is the email/password login payload.
type SignInRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe *bool  `json:"rememberMe,omitempty"`
}

// Persistent reports whether the cookie should outlive the browser session.
// Omitting rememberMe means remember.
func (r SignInRequest) Persistent() bool {
	return r.RememberMe == nil || *r.RememberMe
}

type SendVerificationRequest struct {
	Email       string `json:"email" validate:"required,email"`
	CallbackURL string `json:"callbackURL,omitempty"`
}

type ForgotPasswordRequest struct {
	Email      string `json:"email" validate:"required,email"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// SignUpResult pairs the new account with the verification email outcome.
type SignUpResult struct {
	User         *models.User         `json:"user"`
	Notification notifications.Result `json:"notification"`
}

// SignInResult carries the new session. Token is also set as a cookie.
type SignInResult struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}
