package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/ratelimit"
)

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (ratelimit.Hit, error) {
	return ratelimit.Hit{}, errors.New("redis down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimitBlocksAfterMax(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Stop)
	handler := RateLimit(RateLimitOptions{Prefix: "auth", Max: 2, Window: time.Minute}, store, logger.Nop(), nil)(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in/email", nil)
		req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		if i < 2 {
			if last.Code != http.StatusOK {
				t.Fatalf("request %d: expected 200 got %d", i, last.Code)
			}
			if got := last.Header().Get("X-Ratelimit-Remaining"); got != strconv.Itoa(1-i) {
				t.Fatalf("request %d: unexpected remaining %s", i, got)
			}
		}
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", last.Code)
	}
	if last.Header().Get("X-Ratelimit-Limit") != "2" || last.Header().Get("X-Ratelimit-Remaining") != "0" {
		t.Fatalf("unexpected headers %v", last.Header())
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(last.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Too many requests. Limit is 2 requests per 60 seconds." {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	t.Cleanup(store.Stop)
	handler := RateLimit(RateLimitOptions{Prefix: "api", Max: 1, Window: time.Minute}, store, logger.Nop(), nil)(okHandler())

	for _, ip := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.Header.Set("X-Real-Ip", ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("ip %s: expected 200 got %d", ip, rec.Code)
		}
	}
}

func TestRateLimitDisabledReportsMaxRemaining(t *testing.T) {
	handler := RateLimit(RateLimitOptions{Prefix: "api", Max: 1, Window: time.Minute, Disabled: true}, nil, logger.Nop(), nil)(okHandler())
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if rec.Header().Get("X-Ratelimit-Remaining") != "2147483647" {
			t.Fatalf("unexpected remaining %s", rec.Header().Get("X-Ratelimit-Remaining"))
		}
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	handler := RateLimit(RateLimitOptions{Prefix: "api", Max: 1, Window: time.Minute}, failingStore{}, logger.Nop(), nil)(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestClientIPPriority(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Del("X-Forwarded-For")
	if got := ClientIP(req); got != "unknown" {
		t.Fatalf("expected unknown got %s", got)
	}
	req.Header.Set("Cf-Connecting-Ip", "3.3.3.3")
	if got := ClientIP(req); got != "3.3.3.3" {
		t.Fatalf("expected cf ip got %s", got)
	}
	req.Header.Set("X-Real-Ip", "2.2.2.2")
	if got := ClientIP(req); got != "2.2.2.2" {
		t.Fatalf("expected real ip got %s", got)
	}
	req.Header.Set("X-Forwarded-For", " 1.1.1.1 ,2.2.2.2")
	if got := ClientIP(req); got != "1.1.1.1" {
		t.Fatalf("expected forwarded ip got %s", got)
	}
}
