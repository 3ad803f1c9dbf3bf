// Package ratelimit provides fixed-window request counters keyed by client.
package ratelimit

import (
	"context"
	"time"
)

// Hit is the state of a window after one request was counted.
type Hit struct {
	Count   int64
	ResetAt time.Time
}

// Store counts requests per key within a fixed window. The first hit of a
// key, or the first hit after the window elapsed, starts a fresh window.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (Hit, error)
}
