package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a server-side login backed by an opaque token.
type Session struct {
	ID        string    `gorm:"column:id;type:text;primaryKey" json:"id"`
	Token     string    `gorm:"column:token;type:text;not null;uniqueIndex" json:"-"`
	UserID    string    `gorm:"column:user_id;type:text;not null;index" json:"userId"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expiresAt"`
	IPAddress *string   `gorm:"column:ip_address" json:"ipAddress"`
	UserAgent *string   `gorm:"column:user_agent" json:"userAgent"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (s *Session) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
