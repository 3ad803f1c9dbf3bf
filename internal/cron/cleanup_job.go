package cron

import (
	"context"
	"fmt"
	"time"
)

// ExpiredDeleter removes rows whose expiry is before now.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type expiredCleanupJob struct {
	name string
	repo ExpiredDeleter
	now  func() time.Time
}

// NewExpiredCleanupJob wraps a repository purge as a named job.
func NewExpiredCleanupJob(name string, repo ExpiredDeleter) (Job, error) {
	if name == "" {
		return nil, fmt.Errorf("job name required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository required for %s", name)
	}
	return &expiredCleanupJob{name: name, repo: repo, now: time.Now}, nil
}

func (j *expiredCleanupJob) Name() string { return j.name }

func (j *expiredCleanupJob) Run(ctx context.Context) (int64, error) {
	deleted, err := j.repo.DeleteExpired(ctx, j.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.name, err)
	}
	return deleted, nil
}
