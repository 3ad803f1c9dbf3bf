package ratelimit

import (
	"context"
	"fmt"
	"time"
)

type counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)
	RateLimitKey(scope string) string
}

// RedisStore shares windows across instances through INCR and EXPIRE.
type RedisStore struct {
	client counter
	now    func() time.Time
}

func NewRedisStore(client counter) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (Hit, error) {
	count, left, err := s.client.IncrWithTTL(ctx, s.client.RateLimitKey(key), window)
	if err != nil {
		return Hit{}, fmt.Errorf("rate limit counter: %w", err)
	}
	if left <= 0 {
		left = window
	}
	return Hit{Count: count, ResetAt: s.now().Add(left)}, nil
}
