package settings

import (
	"context"
	"errors"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/adminkit-backend/pkg/db/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Defaults applied when the global row is missing.
const (
	DefaultMaxFileSize  = 4
	DefaultMaxFileCount = 10
)

var defaultMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp", "application/pdf"}

// Repository persists the single global media upload settings row.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the global row, creating it with defaults on first access.
func (r *Repository) Get(ctx context.Context) (*models.MediaUploadSettings, error) {
	var row models.MediaUploadSettings
	err := r.db.WithContext(ctx).Where("id = ?", models.MediaUploadSettingsID).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	row = defaultRow()
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, r.db.WithContext(ctx).Where("id = ?", models.MediaUploadSettingsID).First(&row).Error
}

// Update applies all changes in one statement and returns the fresh row.
func (r *Repository) Update(ctx context.Context, changes map[string]any) (*models.MediaUploadSettings, error) {
	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.MediaUploadSettings{}).
		Where("id = ?", models.MediaUploadSettingsID).
		Updates(changes).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

func defaultRow() models.MediaUploadSettings {
	return models.MediaUploadSettings{
		ID:               models.MediaUploadSettingsID,
		MaxFileSize:      DefaultMaxFileSize,
		MaxFileCount:     DefaultMaxFileCount,
		AllowedMimeTypes: append(dbtypes.StringList{}, defaultMimeTypes...),
	}
}
