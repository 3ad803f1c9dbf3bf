package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	acquired int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	f.acquired++
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.held = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) (int64, error) {
	t.runs++
	return 1, t.err
}

type fakeDeleter struct {
	now  time.Time
	rows int64
	err  error
}

func (f *fakeDeleter) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.now = now
	return f.rows, f.err
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(ok, failing),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected each job once, got %d and %d", ok.runs, failing.runs)
	}
	if lock.held {
		t.Fatal("expected lock released after cycle")
	}
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	job := &testJob{name: "sessions"}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped, ran %d", job.runs)
	}
}

type signalJob struct {
	ran chan struct{}
}

func (s *signalJob) Name() string { return "signal" }

func (s *signalJob) Run(context.Context) (int64, error) {
	select {
	case s.ran <- struct{}{}:
	default:
	}
	return 0, nil
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &signalJob{ran: make(chan struct{}, 1)}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: NewRegistry(job),
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("initial cycle never ran")
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestExpiredCleanupJobPassesUTCNow(t *testing.T) {
	repo := &fakeDeleter{rows: 7}
	jobIface, err := NewExpiredCleanupJob("expired-sessions", repo)
	if err != nil {
		t.Fatalf("NewExpiredCleanupJob: %v", err)
	}
	job := jobIface.(*expiredCleanupJob)
	fixed := time.Date(2026, 1, 31, 5, 0, 0, 0, time.FixedZone("X", 3600))
	job.now = func() time.Time { return fixed }

	deleted, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deleted != 7 {
		t.Fatalf("expected 7 deleted, got %d", deleted)
	}
	if !repo.now.Equal(fixed) || repo.now.Location() != time.UTC {
		t.Fatalf("expected utc cutoff, got %s", repo.now)
	}
}

func TestExpiredCleanupJobPropagatesErrors(t *testing.T) {
	job, err := NewExpiredCleanupJob("expired-verifications", &fakeDeleter{err: errors.New("boom")})
	if err != nil {
		t.Fatalf("NewExpiredCleanupJob: %v", err)
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewExpiredCleanupJob("x", nil); err == nil {
		t.Fatal("expected nil repository rejected")
	}
}
