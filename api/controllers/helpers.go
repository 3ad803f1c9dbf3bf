package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/adminkit-backend/api/middleware"
	"github.com/angelmondragon/adminkit-backend/api/responses"
	"github.com/angelmondragon/adminkit-backend/internal/users"
	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const maxUserAgentLength = 512

var errServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "service unavailable")

func sessionMeta(r *http.Request) session.Meta {
	ua := r.UserAgent()
	if len(ua) > maxUserAgentLength {
		ua = ua[:maxUserAgentLength]
	}
	return session.Meta{IPAddress: middleware.RemoteHost(r), UserAgent: ua}
}

func actorFrom(r *http.Request) users.Actor {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		return users.Actor{}
	}
	return users.Actor{ID: user.ID, Role: user.Role}
}

// currentUserID writes 401 and returns false when no session is attached.
func currentUserID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	id := middleware.UserIDFromContext(r.Context())
	if id == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized"))
		return "", false
	}
	return id, true
}

func pathParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}
