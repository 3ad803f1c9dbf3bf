package middleware

import (
	"context"

	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
)

type contextKey string

const (
	ctxResolved contextKey = "session"
	ctxToken    contextKey = "session_token"
)

// WithSession stores the resolved session and its raw token on ctx.
func WithSession(ctx context.Context, resolved *session.Resolved, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxResolved, resolved)
	return context.WithValue(ctx, ctxToken, token)
}

func SessionFromContext(ctx context.Context) *session.Resolved {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxResolved).(*session.Resolved); ok {
		return v
	}
	return nil
}

func UserFromContext(ctx context.Context) *models.User {
	if resolved := SessionFromContext(ctx); resolved != nil {
		return resolved.User
	}
	return nil
}

func UserIDFromContext(ctx context.Context) string {
	if user := UserFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.Role {
	if user := UserFromContext(ctx); user != nil {
		return user.Role
	}
	return ""
}

// TokenFromContext returns the session token the request authenticated with.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxToken).(string); ok {
		return v
	}
	return ""
}
