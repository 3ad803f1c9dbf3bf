package dashboard

import (
	"context"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	"gorm.io/gorm"
)

// CountFilter narrows a user count. Zero values match everything.
type CountFilter struct {
	Verified *bool
	Roles    []enums.Role
	From     time.Time
	Before   time.Time
}

// Repository runs the read-only aggregate queries behind the dashboard.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CountUsers(ctx context.Context, f CountFilter) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if f.Verified != nil {
		q = q.Where("email_verified = ?", *f.Verified)
	}
	if len(f.Roles) > 0 {
		q = q.Where("role IN ?", f.Roles)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.Before.IsZero() {
		q = q.Where("created_at < ?", f.Before)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// SignupTimes returns the creation time of every user created at or after since.
func (r *Repository) SignupTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("created_at >= ?", since).
		Order("created_at").
		Pluck("created_at", &times).Error
	return times, err
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Find(&users).Error
	return users, err
}
