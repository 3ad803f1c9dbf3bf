package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/config"
)

const (
	cookieSuffix  = ".session_token"
	secureCookie  = "__Secure-"
	bearerPrefix  = "Bearer "
	defaultPrefix = "adminkit"
)

// Cookies builds and reads the session cookie.
type Cookies struct {
	name   string
	domain string
	secure bool
}

func NewCookies(auth config.AuthConfig, app config.AppConfig) Cookies {
	prefix := strings.TrimSpace(auth.CookiePrefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	name := prefix + cookieSuffix
	if app.IsProd() {
		name = secureCookie + name
	}
	return Cookies{
		name:   name,
		domain: strings.TrimSpace(auth.CookieDomain),
		secure: app.IsProd(),
	}
}

// Name returns the cookie name.
func (c Cookies) Name() string {
	return c.name
}

// Set writes the session cookie expiring alongside the session.
func (c Cookies) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		Domain:   c.domain,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetBrowserSession writes a cookie without Expires, dropped when the browser closes.
func (c Cookies) SetBrowserSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		Domain:   c.domain,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token extracts the session token from the cookie or a bearer header.
func (c Cookies) Token(r *http.Request) string {
	if cookie, err := r.Cookie(c.name); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	}
	return ""
}
