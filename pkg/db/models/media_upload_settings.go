package models

import (
	"time"

	dbtypes "github.com/angelmondragon/adminkit-backend/pkg/db/types"
)

// MediaUploadSettingsID is the primary key of the single global settings row.
const MediaUploadSettingsID = "global"

// MediaUploadSettings bounds what the media library accepts. One row exists.
type MediaUploadSettings struct {
	ID               string             `gorm:"column:id;type:text;primaryKey" json:"-"`
	MaxFileSize      int                `gorm:"column:max_file_size;not null" json:"maxFileSize"`
	MaxFileCount     int                `gorm:"column:max_file_count;not null" json:"maxFileCount"`
	AllowedMimeTypes dbtypes.StringList `gorm:"column:allowed_mime_types;type:text;not null" json:"allowedMimeTypes"`
	UpdatedBy        *string            `gorm:"column:updated_by" json:"updatedBy,omitempty"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (MediaUploadSettings) TableName() string {
	return "media_upload_settings"
}

// MaxFileSizeBytes converts the MB limit to bytes.
func (m MediaUploadSettings) MaxFileSizeBytes() int64 {
	return int64(m.MaxFileSize) * 1024 * 1024
}
