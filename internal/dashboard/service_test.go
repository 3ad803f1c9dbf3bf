package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/db/dbtest"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, conn *gorm.DB, n int, role enums.Role, verified bool, created time.Time) {
	t.Helper()
	user := models.User{
		Email:         fmt.Sprintf("user%d@example.com", n),
		Role:          role,
		EmailVerified: verified,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, conn.Create(&user).Error)
}

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	s := svc.(*service)
	s.now = func() time.Time { return fixedNow }
	return s, conn
}

func TestStats(t *testing.T) {
	svc, conn := newTestService(t)
	seedUser(t, conn, 1, enums.RoleSuperAdmin, true, time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC))
	seedUser(t, conn, 2, enums.RoleAdmin, true, time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC))
	seedUser(t, conn, 3, enums.RoleUser, false, time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC))
	seedUser(t, conn, 4, enums.RoleUser, true, time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC))
	seedUser(t, conn, 5, enums.RoleUser, false, time.Date(2026, 10, 10, 10, 0, 0, 0, time.UTC))
	seedUser(t, conn, 6, enums.RoleUser, true, time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.VerifiedUsers)
	assert.Equal(t, int64(2), stats.UnverifiedUsers)
	assert.Equal(t, int64(2), stats.AdminUsers)
	assert.Equal(t, int64(3), stats.NewUsersThisMonth)
	assert.Equal(t, int64(2), stats.NewUsersLastMonth)
	assert.Equal(t, 50.0, stats.GrowthPercent)
}

func TestGrowth(t *testing.T) {
	assert.Equal(t, 0.0, growth(0, 0))
	assert.Equal(t, 100.0, growth(4, 0))
	assert.Equal(t, -50.0, growth(1, 2))
	assert.Equal(t, 33.3, growth(4, 3))
}

func TestActivityBucketsByDay(t *testing.T) {
	svc, conn := newTestService(t)
	seedUser(t, conn, 1, enums.RoleUser, true, time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	seedUser(t, conn, 2, enums.RoleUser, true, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	seedUser(t, conn, 3, enums.RoleUser, true, time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC))
	seedUser(t, conn, 4, enums.RoleUser, true, time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC))

	activity, err := svc.Activity(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, activity.Signups, 7)
	assert.Equal(t, "2026-10-12", activity.Signups[0].Date)
	assert.Equal(t, "2026-10-18", activity.Signups[6].Date)
	assert.Equal(t, 2, activity.Signups[4].Count)
	assert.Equal(t, 1, activity.Signups[6].Count)
	assert.Equal(t, 0, activity.Signups[5].Count)

	require.Len(t, activity.RecentUsers, 4)
	assert.Equal(t, "user4@example.com", activity.RecentUsers[0].Email)
}

func TestActivityDaysBounds(t *testing.T) {
	svc, _ := newTestService(t)

	activity, err := svc.Activity(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultActivityDays, activity.Days)
	assert.Len(t, activity.Signups, DefaultActivityDays)
	assert.NotNil(t, activity.RecentUsers)

	_, err = svc.Activity(context.Background(), MaxActivityDays+1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
