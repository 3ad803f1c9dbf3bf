package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCounter struct {
	counts map[string]int64
	left   time.Duration
	err    error
}

func (f *fakeCounter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.counts[key]++
	if f.counts[key] == 1 {
		return 1, ttl, nil
	}
	return f.counts[key], f.left, nil
}

func (f *fakeCounter) RateLimitKey(scope string) string {
	return "rl:" + scope
}

func TestRedisStoreHit(t *testing.T) {
	counter := &fakeCounter{counts: map[string]int64{}, left: 20 * time.Second}
	store, err := NewRedisStore(counter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	hit, err := store.Hit(context.Background(), "auth:ip", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit.Count != 1 || !hit.ResetAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected first hit %+v", hit)
	}

	hit, _ = store.Hit(context.Background(), "auth:ip", time.Minute)
	if hit.Count != 2 || !hit.ResetAt.Equal(now.Add(20*time.Second)) {
		t.Fatalf("unexpected second hit %+v", hit)
	}
	if counter.counts["rl:auth:ip"] != 2 {
		t.Fatalf("expected namespaced key, got %v", counter.counts)
	}
}

func TestRedisStorePropagatesErrors(t *testing.T) {
	store, _ := NewRedisStore(&fakeCounter{counts: map[string]int64{}, err: errors.New("down")})
	if _, err := store.Hit(context.Background(), "k", time.Minute); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewRedisStore(nil); err == nil {
		t.Fatal("expected nil client to be rejected")
	}
}
