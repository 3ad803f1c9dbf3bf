package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/adminkit-backend/api/responses"
	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Resolved, error)
}

type tokenReader interface {
	Token(r *http.Request) string
}

// Session resolves the caller's session from the cookie or bearer token.
// Requests without a valid session get 401.
func Session(resolver sessionResolver, cookies tokenReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return sessionMiddleware(resolver, cookies, logg, true)
}

// OptionalSession attaches the session when present and never rejects.
func OptionalSession(resolver sessionResolver, cookies tokenReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return sessionMiddleware(resolver, cookies, logg, false)
}

func sessionMiddleware(resolver sessionResolver, cookies tokenReader, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := cookies.Token(r)
			if token == "" {
				if required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			resolved, err := resolver.Resolve(ctx, token)
			if err != nil {
				if !errors.Is(err, session.ErrInvalidSession) {
					if required {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve session"))
						return
					}
					logg.Error(ctx, "session.resolve_failed", err)
				}
				if required {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithSession(ctx, resolved, token)
			ctx = logg.WithSessionUser(ctx, resolved.User.ID, string(resolved.User.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability rejects callers whose role lacks capability with 403.
// It must run after Session.
func RequireCapability(capability enums.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
				return
			}
			if !enums.HasCapability(user.Role, capability) {
				logCtx := logg.WithField(r.Context(), "capability", string(capability))
				logg.Warn(logCtx, "authz.denied")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
