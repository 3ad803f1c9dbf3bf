package session

import (
	"context"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists sessions in the sessions table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repository) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Extend pushes the expiry forward and stamps updated_at.
func (r *Repository) Extend(ctx context.Context, id string, expiresAt, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{"expires_at": expiresAt, "updated_at": now}).Error
}

func (r *Repository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

// DeleteByUser removes every session for userID except keepToken and returns the removed tokens.
func (r *Repository) DeleteByUser(ctx context.Context, userID, keepToken string) ([]string, error) {
	q := r.db.WithContext(ctx).Model(&models.Session{}).Where("user_id = ?", userID)
	if keepToken != "" {
		q = q.Where("token <> ?", keepToken)
	}
	var tokens []string
	if err := q.Pluck("token", &tokens).Error; err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	if err := r.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&models.Session{}).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// DeleteExpired removes sessions that expired before now.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
