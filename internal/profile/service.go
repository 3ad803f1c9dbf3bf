package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/adminkit-backend/pkg/db"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/adminkit-backend/pkg/db/types"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/filetypes"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
	"github.com/angelmondragon/adminkit-backend/pkg/storage/s3"
	"github.com/angelmondragon/adminkit-backend/pkg/types"
	"github.com/google/uuid"
)

// AvatarPrefix is the bucket folder holding avatars.
const AvatarPrefix = "avatars/"

// Service is the signed-in user's self-service surface.
type Service interface {
	Get(ctx context.Context, userID string) (*View, error)
	Update(ctx context.Context, userID string, input UpdateInput) (*View, error)
	UploadAvatar(ctx context.Context, userID string, file AvatarFile) (*View, error)
	RemoveAvatar(ctx context.Context, userID string) (*View, error)
	HasPassword(ctx context.Context, userID string) (bool, error)
	SetPassword(ctx context.Context, userID string, input SetPasswordInput) error
	ChangePassword(ctx context.Context, userID, currentToken string, input ChangePasswordInput) error
	Settings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, patch SettingsPatch) (*models.UserSettings, error)
}

type userStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, changes map[string]any) (*models.User, error)
}

type accountStore interface {
	FindCredential(ctx context.Context, userID string) (*models.Account, error)
	HasPassword(ctx context.Context, userID string) (bool, error)
	SetPassword(ctx context.Context, userID, hash string) error
	ListProviders(ctx context.Context, userID string) ([]enums.Provider, error)
}

type settingsStore interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Update(ctx context.Context, userID string, changes map[string]any) (*models.UserSettings, error)
}

type avatarStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (s3.Object, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(raw string) (string, bool)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type sessionInvalidator interface {
	Forget(userID string)
	RevokeUser(ctx context.Context, userID, keepToken string) error
}

// ServiceParams bundles the dependencies required to build a profile service.
// Avatars may be nil when no bucket is configured.
type ServiceParams struct {
	Users    userStore
	Accounts accountStore
	Settings settingsStore
	Avatars  avatarStore
	Hasher   passwordHasher
	Sessions sessionInvalidator
	Logger   *logger.Logger
}

type service struct {
	users    userStore
	accounts accountStore
	settings settingsStore
	avatars  avatarStore
	hasher   passwordHasher
	sessions sessionInvalidator
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("user repository is required")
	case params.Accounts == nil:
		return nil, fmt.Errorf("account repository is required")
	case params.Settings == nil:
		return nil, fmt.Errorf("settings repository is required")
	case params.Hasher == nil:
		return nil, fmt.Errorf("password hasher is required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session invalidator is required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:    params.Users,
		accounts: params.Accounts,
		settings: params.Settings,
		avatars:  params.Avatars,
		hasher:   params.Hasher,
		sessions: params.Sessions,
		logg:     params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, userID string) (*View, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return s.view(ctx, user)
}

func (s *service) Update(ctx context.Context, userID string, input UpdateInput) (*View, error) {
	changes := map[string]any{}
	if input.Name != nil {
		changes["name"] = optional(*input.Name)
	}
	if input.Bio != nil {
		changes["bio"] = optional(*input.Bio)
	}
	if input.Image != nil {
		changes["image"] = optional(*input.Image)
	}
	if input.Skills != nil {
		skills, err := normalizeSkills(*input.Skills)
		if err != nil {
			return nil, err
		}
		changes["skills"] = skills
	}
	user, err := s.users.Update(ctx, userID, changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	s.sessions.Forget(userID)
	return s.view(ctx, user)
}

func (s *service) UploadAvatar(ctx context.Context, userID string, file AvatarFile) (*View, error) {
	if s.avatars == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "file storage is not configured")
	}
	if file.Size > MaxAvatarBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "avatar must be 4MB or smaller")
	}
	detected, body, err := filetypes.Sniff(file.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read avatar")
	}
	contentType, ok := filetypes.Match(detected, filetypes.AvatarTypes)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "avatar must be %s", filetypes.Describe(filetypes.AvatarTypes))
	}

	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	key := AvatarPrefix + userID + "/" + uuid.NewString() + detected.Extension()
	obj, err := s.avatars.Put(ctx, key, contentType, body, file.Size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store avatar")
	}
	user, err := s.users.Update(ctx, userID, map[string]any{"image": obj.URL})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save avatar")
	}
	s.sessions.Forget(userID)
	s.deleteAvatar(ctx, current.Image)
	return s.view(ctx, user)
}

func (s *service) RemoveAvatar(ctx context.Context, userID string) (*View, error) {
	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	user, err := s.users.Update(ctx, userID, map[string]any{"image": nil})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear avatar")
	}
	s.sessions.Forget(userID)
	s.deleteAvatar(ctx, current.Image)
	return s.view(ctx, user)
}

// deleteAvatar removes a previously stored avatar. Failures are logged only.
func (s *service) deleteAvatar(ctx context.Context, image *string) {
	if s.avatars == nil || image == nil {
		return
	}
	key, ok := s.avatars.KeyFromURL(*image)
	if !ok || !strings.HasPrefix(key, AvatarPrefix) {
		return
	}
	if err := s.avatars.Delete(ctx, key); err != nil && !errors.Is(err, s3.ErrNotFound) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "profile.avatar.cleanup_failed")
	}
}

func (s *service) HasPassword(ctx context.Context, userID string) (bool, error) {
	ok, err := s.accounts.HasPassword(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check password")
	}
	return ok, nil
}

// SetPassword adds a password for users who only have social logins.
func (s *service) SetPassword(ctx context.Context, userID string, input SetPasswordInput) error {
	has, err := s.HasPassword(ctx, userID)
	if err != nil {
		return err
	}
	if has {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "A password is already set. Use change password instead.")
	}
	return s.storePassword(ctx, userID, input.NewPassword)
}

func (s *service) ChangePassword(ctx context.Context, userID, currentToken string, input ChangePasswordInput) error {
	account, err := s.accounts.FindCredential(ctx, userID)
	if err != nil && !db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load credential")
	}
	if account == nil || !account.HasPassword() {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "No password is set for this account")
	}
	valid, err := s.hasher.Verify(input.CurrentPassword, *account.Password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "Current password is incorrect")
	}
	if err := s.storePassword(ctx, userID, input.NewPassword); err != nil {
		return err
	}
	if input.RevokeOtherSessions {
		if err := s.sessions.RevokeUser(ctx, userID, currentToken); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke sessions")
		}
	}
	return nil
}

func (s *service) storePassword(ctx context.Context, userID, password string) error {
	if err := security.ValidatePolicy(password); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.accounts.SetPassword(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
	}
	return nil
}

func (s *service) Settings(ctx context.Context, userID string) (*models.UserSettings, error) {
	row, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settings")
	}
	return row, nil
}

func (s *service) UpdateSettings(ctx context.Context, userID string, patch SettingsPatch) (*models.UserSettings, error) {
	fields := []struct {
		name   string
		column string
		value  types.NullableString
	}{
		{"primaryColor", "primary_color", patch.PrimaryColor},
		{"primaryForeground", "primary_foreground", patch.PrimaryForeground},
		{"secondaryColor", "secondary_color", patch.SecondaryColor},
		{"secondaryForeground", "secondary_foreground", patch.SecondaryForeground},
	}

	changes := map[string]any{}
	details := map[string]string{}
	for _, f := range fields {
		if !f.value.Valid {
			continue
		}
		if f.value.Value == nil {
			changes[f.column] = nil
			continue
		}
		color := strings.TrimSpace(*f.value.Value)
		if !ValidColor(color) {
			details[f.name] = "must be a hex, rgb, hsl, or oklch color"
			continue
		}
		changes[f.column] = color
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid colors").WithDetails(details)
	}

	row, err := s.settings.Update(ctx, userID, changes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update settings")
	}
	return row, nil
}

func (s *service) view(ctx context.Context, user *models.User) (*View, error) {
	providers, err := s.accounts.ListProviders(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list providers")
	}
	has, err := s.HasPassword(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if providers == nil {
		providers = []enums.Provider{}
	}
	return &View{User: user, HasPassword: has, Providers: providers}, nil
}

func normalizeSkills(raw []string) (dbtypes.StringList, error) {
	out := dbtypes.StringList{}
	seen := map[string]struct{}{}
	for _, skill := range raw {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		if len([]rune(skill)) > MaxSkillLength {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "each skill must be at most %d characters", MaxSkillLength)
		}
		key := strings.ToLower(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	if len(out) > MaxSkills {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d skills are allowed", MaxSkills)
	}
	return out, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
