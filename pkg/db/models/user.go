package models

import (
	"time"

	dbtypes "github.com/angelmondragon/adminkit-backend/pkg/db/types"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID              string             `gorm:"column:id;type:text;primaryKey" json:"id"`
	Email           string             `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	Name            *string            `gorm:"column:name" json:"name"`
	Role            enums.Role         `gorm:"column:role;type:text;not null;default:'USER'" json:"role"`
	Image           *string            `gorm:"column:image" json:"image"`
	EmailVerified   bool               `gorm:"column:email_verified;not null;default:false" json:"emailVerified"`
	EmailVerifiedAt *time.Time         `gorm:"column:email_verified_at" json:"emailVerifiedAt"`
	Bio             *string            `gorm:"column:bio" json:"bio"`
	Skills          dbtypes.StringList `gorm:"column:skills;type:text;not null;default:'[]'" json:"skills"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = enums.RoleUser
	}
	if u.Skills == nil {
		u.Skills = dbtypes.StringList{}
	}
	return nil
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Email
}
