package controllers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/api/middleware"
	"github.com/angelmondragon/adminkit-backend/api/responses"
	"github.com/angelmondragon/adminkit-backend/api/validators"
	"github.com/angelmondragon/adminkit-backend/internal/auth"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

// sessionCookies is the cookie surface the auth handlers need.
type sessionCookies interface {
	Set(w http.ResponseWriter, token string, expiresAt time.Time)
	SetBrowserSession(w http.ResponseWriter, token string)
	Clear(w http.ResponseWriter)
}

type sessionPayload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func AuthSignUp(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		var req auth.SignUpRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SignUp(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result, "Account created. Check your inbox to verify your email.")
	}
}

func AuthSignIn(svc auth.Service, cookies sessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		var req auth.SignInRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SignIn(r.Context(), req, sessionMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if req.Persistent() {
			cookies.Set(w, result.Token, result.ExpiresAt)
		} else {
			cookies.SetBrowserSession(w, result.Token)
		}
		responses.WriteSuccess(w, result)
	}
}

func AuthSignOut(svc auth.Service, cookies sessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		if token := middleware.TokenFromContext(r.Context()); token != "" {
			if err := svc.SignOut(r.Context(), token); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		cookies.Clear(w)
		responses.WriteMessage(w, nil, "Signed out")
	}
}

// AuthGetSession answers with a null payload when the request is anonymous.
func AuthGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolved := middleware.SessionFromContext(r.Context())
		if resolved == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}

func AuthVerifyEmail(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		token := strings.TrimSpace(r.URL.Query().Get("token"))
		callbackURL := strings.TrimSpace(r.URL.Query().Get("callbackURL"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "token is required"))
			return
		}

		user, err := svc.VerifyEmail(r.Context(), token)
		if err != nil {
			if callbackURL != "" {
				http.Redirect(w, r, withQuery(svc.RedirectTarget(callbackURL), "error", "invalid_token"), http.StatusFound)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if callbackURL != "" {
			http.Redirect(w, r, svc.RedirectTarget(callbackURL), http.StatusFound)
			return
		}
		responses.WriteMessage(w, user, "Email verified")
	}
}

func AuthSendVerificationEmail(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		var req auth.SendVerificationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SendVerificationEmail(r.Context(), req.Email, req.CallbackURL); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, nil, "If the account exists, a verification email has been sent.")
	}
}

// AuthForgotPassword serves both /forget-password and /request-password-reset.
func AuthForgotPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		var req auth.ForgotPasswordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RequestPasswordReset(r.Context(), req.Email, req.RedirectTo); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, nil, "If the account exists, a password reset email has been sent.")
	}
}

func AuthResetPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		var req auth.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResetPassword(r.Context(), req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, nil, "Password updated")
	}
}

func AuthSocialSignIn(svc auth.OAuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		provider, err := enums.ParseProvider(r.URL.Query().Get("provider"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported provider"))
			return
		}
		if !svc.Enabled(provider) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "%s sign-in is not configured", provider))
			return
		}

		target, err := svc.AuthorizeURL(r.Context(), provider, r.URL.Query().Get("callbackURL"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// AuthOAuthCallback never renders JSON: failures redirect back to the
// frontend with an error query parameter.
func AuthOAuthCallback(svc auth.OAuthService, authSvc auth.Service, cookies sessionCookies, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || authSvc == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}

		fallback := authSvc.RedirectTarget("")
		provider, err := enums.ParseProvider(pathParam(r, "provider"))
		if err != nil {
			http.Redirect(w, r, withQuery(fallback, "error", "unsupported_provider"), http.StatusFound)
			return
		}

		q := r.URL.Query()
		if providerErr := q.Get("error"); providerErr != "" {
			http.Redirect(w, r, withQuery(fallback, "error", providerErr), http.StatusFound)
			return
		}

		result, err := svc.Callback(r.Context(), provider, q.Get("code"), q.Get("state"), sessionMeta(r))
		if err != nil {
			ctx := logg.WithField(r.Context(), "provider", string(provider))
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.oauth_callback_failed")
			code := "oauth_failed"
			if pkgerrors.IsCode(err, pkgerrors.CodeEmailNotVerified) {
				code = "email_not_verified"
			}
			http.Redirect(w, r, withQuery(fallback, "error", code), http.StatusFound)
			return
		}

		cookies.Set(w, result.Token, result.ExpiresAt)
		http.Redirect(w, r, authSvc.RedirectTarget(result.CallbackURL), http.StatusFound)
	}
}

func withQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
