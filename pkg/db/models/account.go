package models

import (
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account links a user to a login method. Credential accounts carry the password hash.
type Account struct {
	ID         string         `gorm:"column:id;type:text;primaryKey"`
	UserID     string         `gorm:"column:user_id;type:text;not null;index"`
	ProviderID enums.Provider `gorm:"column:provider_id;type:text;not null;uniqueIndex:idx_accounts_provider_account"`
	AccountID  string         `gorm:"column:account_id;type:text;not null;uniqueIndex:idx_accounts_provider_account"`
	Password   *string        `gorm:"column:password"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// HasPassword reports whether a credential hash is stored.
func (a *Account) HasPassword() bool {
	return a != nil && a.Password != nil && *a.Password != ""
}
