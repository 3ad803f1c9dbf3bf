package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStoreCountsWithinWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(WithClock(clock.Now))
	defer store.Stop()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		hit, err := store.Hit(ctx, "api:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hit.Count != i {
			t.Fatalf("expected count %d, got %d", i, hit.Count)
		}
		if !hit.ResetAt.Equal(clock.Now().Add(time.Minute)) {
			t.Fatalf("window should not move, got reset %v", hit.ResetAt)
		}
	}
}

func TestMemoryStoreFreshWindowAfterReset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(WithClock(clock.Now))
	defer store.Stop()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "k", time.Minute)
	_, _ = store.Hit(ctx, "k", time.Minute)

	clock.Advance(time.Minute)
	hit, err := store.Hit(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit.Count != 1 {
		t.Fatalf("expected fresh window count 1, got %d", hit.Count)
	}
	if !hit.ResetAt.Equal(clock.Now().Add(time.Minute)) {
		t.Fatalf("unexpected reset %v", hit.ResetAt)
	}
}

func TestMemoryStoreKeysAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "api:a", time.Minute)
	hit, _ := store.Hit(ctx, "api:b", time.Minute)
	if hit.Count != 1 {
		t.Fatalf("expected independent counter, got %d", hit.Count)
	}
	other := NewMemoryStore()
	defer other.Stop()
	hit, _ = other.Hit(ctx, "api:a", time.Minute)
	if hit.Count != 1 {
		t.Fatalf("stores must not share state, got %d", hit.Count)
	}
}

func TestMemoryStoreSweepDropsExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(WithClock(clock.Now))
	defer store.Stop()
	ctx := context.Background()

	_, _ = store.Hit(ctx, "short", time.Second)
	_, _ = store.Hit(ctx, "long", time.Hour)
	clock.Advance(time.Minute)

	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 remaining key, got %d", store.Len())
	}
}

func TestMemoryStoreJanitorSweepsOnInterval(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(WithClock(clock.Now), WithSweepInterval(10*time.Millisecond))
	defer store.Stop()

	_, _ = store.Hit(context.Background(), "k", time.Second)
	clock.Advance(time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not sweep expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryStoreStopWithoutStart(t *testing.T) {
	store := NewMemoryStore()
	store.Stop()
	store.Stop()
}

func TestMemoryStoreConcurrentHits(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Hit(context.Background(), "k", time.Minute)
		}()
	}
	wg.Wait()

	hit, _ := store.Hit(context.Background(), "k", time.Minute)
	if hit.Count != 51 {
		t.Fatalf("expected 51 hits, got %d", hit.Count)
	}
}
