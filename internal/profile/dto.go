package profile

import (
	"io"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	"github.com/angelmondragon/adminkit-backend/pkg/types"
)

const (
	MaxSkills      = 20
	MaxSkillLength = 50
	MaxAvatarBytes = 4 << 20
)

// View is the current user enriched with login-method facts.
type View struct {
	*models.User
	HasPassword bool             `json:"hasPassword"`
	Providers   []enums.Provider `json:"providers"`
}

// UpdateInput holds optional profile edits. An empty image clears it.
type UpdateInput struct {
	Name   *string   `json:"name,omitempty" validate:"omitempty,max=100"`
	Bio    *string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	Skills *[]string `json:"skills,omitempty"`
	Image  *string   `json:"image,omitempty" validate:"omitempty,max=2048"`
}

type SetPasswordInput struct {
	NewPassword string `json:"newPassword" validate:"required"`
}

type ChangePasswordInput struct {
	CurrentPassword     string `json:"currentPassword" validate:"required"`
	NewPassword         string `json:"newPassword" validate:"required"`
	RevokeOtherSessions bool   `json:"revokeOtherSessions,omitempty"`
}

// AvatarFile is the uploaded avatar image.
type AvatarFile struct {
	Name string
	Size int64
	Body io.Reader
}

// SettingsPatch updates theme colors. Absent fields are kept; null clears.
type SettingsPatch struct {
	PrimaryColor        types.NullableString `json:"primaryColor"`
	PrimaryForeground   types.NullableString `json:"primaryForeground"`
	SecondaryColor      types.NullableString `json:"secondaryColor"`
	SecondaryForeground types.NullableString `json:"secondaryForeground"`
}
