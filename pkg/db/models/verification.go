package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification stores a single-use value (reset token, oauth state) keyed by identifier.
type Verification struct {
	ID         string    `gorm:"column:id;type:text;primaryKey"`
	Identifier string    `gorm:"column:identifier;type:text;not null;uniqueIndex"`
	Value      string    `gorm:"column:value;type:text;not null"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Verification) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
