package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultActivityDays = 30
	MaxActivityDays     = 365
	RecentUsersLimit    = 10
)

const dayLayout = "2006-01-02"

// Stats summarizes the user base.
type Stats struct {
	TotalUsers        int64   `json:"totalUsers"`
	VerifiedUsers     int64   `json:"verifiedUsers"`
	UnverifiedUsers   int64   `json:"unverifiedUsers"`
	AdminUsers        int64   `json:"adminUsers"`
	NewUsersThisMonth int64   `json:"newUsersThisMonth"`
	NewUsersLastMonth int64   `json:"newUsersLastMonth"`
	GrowthPercent     float64 `json:"growthPercent"`
}

type DailySignups struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Activity is the signup series for the trailing window plus the newest users.
type Activity struct {
	Days        int            `json:"days"`
	Signups     []DailySignups `json:"signups"`
	RecentUsers []models.User  `json:"recentUsers"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	Activity(ctx context.Context, days int) (*Activity, error)
}

type store interface {
	CountUsers(ctx context.Context, f CountFilter) (int64, error)
	SignupTimes(ctx context.Context, since time.Time) ([]time.Time, error)
	Recent(ctx context.Context, limit int) ([]models.User, error)
}

type service struct {
	repo store
	now  func() time.Time
}

func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dashboard repository is required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth := thisMonth.AddDate(0, -1, 0)
	verified := true

	var out Stats
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, f CountFilter) {
		g.Go(func() error {
			n, err := s.repo.CountUsers(gctx, f)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	count(&out.TotalUsers, CountFilter{})
	count(&out.VerifiedUsers, CountFilter{Verified: &verified})
	count(&out.AdminUsers, CountFilter{Roles: []enums.Role{enums.RoleAdmin, enums.RoleSuperAdmin}})
	count(&out.NewUsersThisMonth, CountFilter{From: thisMonth})
	count(&out.NewUsersLastMonth, CountFilter{From: lastMonth, Before: thisMonth})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load dashboard stats")
	}

	out.UnverifiedUsers = out.TotalUsers - out.VerifiedUsers
	out.GrowthPercent = growth(out.NewUsersThisMonth, out.NewUsersLastMonth)
	return &out, nil
}

// growth is the month-over-month change rounded to one decimal.
// From an empty previous month any signup counts as 100%.
func growth(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	pct := float64(current-previous) / float64(previous) * 100
	return math.Round(pct*10) / 10
}

func (s *service) Activity(ctx context.Context, days int) (*Activity, error) {
	if days <= 0 {
		days = DefaultActivityDays
	}
	if days > MaxActivityDays {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "days must be at most %d", MaxActivityDays)
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(days - 1))

	times, err := s.repo.SignupTimes(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load signups")
	}
	recent, err := s.repo.Recent(ctx, RecentUsersLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent users")
	}

	byDay := make(map[string]int, days)
	for _, t := range times {
		byDay[t.UTC().Format(dayLayout)]++
	}
	series := make([]DailySignups, 0, days)
	for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		series = append(series, DailySignups{Date: key, Count: byDay[key]})
	}
	if recent == nil {
		recent = []models.User{}
	}
	return &Activity{Days: days, Signups: series, RecentUsers: recent}, nil
}
