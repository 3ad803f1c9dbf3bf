package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/api/responses"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/metrics"
	"github.com/angelmondragon/adminkit-backend/pkg/ratelimit"
)

const (
	headerLimit     = "X-Ratelimit-Limit"
	headerRemaining = "X-Ratelimit-Remaining"
	headerReset     = "X-Ratelimit-Reset"
)

// RateLimitOptions configures one fixed-window limiter.
type RateLimitOptions struct {
	Prefix   string
	Max      int
	Window   time.Duration
	Disabled bool
}

// RateLimit counts requests per client IP under Prefix. Store failures let
// the request through.
func RateLimit(opts RateLimitOptions, store ratelimit.Store, logg *logger.Logger, m *metrics.RateLimitMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Disabled || store == nil {
				setRateHeaders(w, opts.Max, math.MaxInt32, 0)
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := ClientIP(r)
			hit, err := store.Hit(ctx, opts.Prefix+":"+ip, opts.Window)
			if err != nil {
				m.IncStoreError(opts.Prefix)
				logg.Error(logg.WithField(ctx, "prefix", opts.Prefix), "ratelimit.store_failed", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(opts.Max) - hit.Count
			if remaining < 0 {
				remaining = 0
			}
			resetIn := int64(math.Ceil(time.Until(hit.ResetAt).Seconds()))
			if resetIn < 0 {
				resetIn = 0
			}
			setRateHeaders(w, opts.Max, remaining, resetIn)

			if hit.Count > int64(opts.Max) {
				m.IncRejected(opts.Prefix)
				logg.Warn(logg.WithFields(ctx, map[string]any{
					"prefix": opts.Prefix,
					"ip":     ip,
					"count":  hit.Count,
				}), "ratelimit.blocked")
				w.Header().Set("Retry-After", strconv.FormatInt(resetIn, 10))
				msg := fmt.Sprintf("Too many requests. Limit is %d requests per %d seconds.", opts.Max, int(opts.Window.Seconds()))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msg))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func setRateHeaders(w http.ResponseWriter, limit int, remaining, reset int64) {
	w.Header().Set(headerLimit, strconv.Itoa(limit))
	w.Header().Set(headerRemaining, strconv.FormatInt(remaining, 10))
	w.Header().Set(headerReset, strconv.FormatInt(reset, 10))
}

// ClientIP picks the first x-forwarded-for entry, then x-real-ip, then
// cf-connecting-ip, falling back to "unknown".
func ClientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	for _, h := range []string{"X-Real-Ip", "Cf-Connecting-Ip"} {
		if ip := strings.TrimSpace(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	return "unknown"
}

// RemoteHost returns the peer host, used only for session metadata.
func RemoteHost(r *http.Request) string {
	if ip := ClientIP(r); ip != "unknown" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
