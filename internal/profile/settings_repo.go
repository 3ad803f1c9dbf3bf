package profile

import (
	"context"
	"errors"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository persists per-user theme settings.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the user's settings row, creating an empty one on first access.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	var row models.UserSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	row = models.UserSettings{UserID: userID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
}

// Update writes the given columns and returns the fresh row.
func (r *SettingsRepository) Update(ctx context.Context, userID string, changes map[string]any) (*models.UserSettings, error) {
	if _, err := r.Get(ctx, userID); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		if err := r.db.WithContext(ctx).Model(&models.UserSettings{}).Where("user_id = ?", userID).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, userID)
}
