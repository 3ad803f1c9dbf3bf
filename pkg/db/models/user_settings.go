package models

import "time"

// UserSettings holds per-user theme colors. Null fields inherit theme defaults.
type UserSettings struct {
	UserID              string    `gorm:"column:user_id;type:text;primaryKey" json:"userId"`
	PrimaryColor        *string   `gorm:"column:primary_color" json:"primaryColor"`
	PrimaryForeground   *string   `gorm:"column:primary_foreground" json:"primaryForeground"`
	SecondaryColor      *string   `gorm:"column:secondary_color" json:"secondaryColor"`
	SecondaryForeground *string   `gorm:"column:secondary_foreground" json:"secondaryForeground"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}
