package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/angelmondragon/adminkit-backend/internal/accounts"
	"github.com/angelmondragon/adminkit-backend/internal/users"
	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/db/dbtest"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
	"github.com/angelmondragon/adminkit-backend/pkg/storage/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

type fakeAvatars struct {
	stored  map[string][]byte
	deleted []string
}

func (f *fakeAvatars) Put(_ context.Context, key, contentType string, body io.Reader, size int64) (s3.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return s3.Object{}, err
	}
	f.stored[key] = data
	return s3.Object{Key: key, URL: "https://cdn.test/" + key, Type: contentType, Size: size}, nil
}

func (f *fakeAvatars) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeAvatars) KeyFromURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "https://cdn.test/") {
		return "", false
	}
	return strings.TrimPrefix(raw, "https://cdn.test/"), true
}

type fakeSessions struct {
	revokedKeep string
	revoked     bool
}

func (f *fakeSessions) Forget(string) {}

func (f *fakeSessions) RevokeUser(_ context.Context, _ string, keep string) error {
	f.revoked = true
	f.revokedKeep = keep
	return nil
}

type profileFixture struct {
	svc      Service
	user     *models.User
	accounts *accounts.Repository
	avatars  *fakeAvatars
	sessions *fakeSessions
	hasher   *security.Hasher
}

func newProfileFixture(t *testing.T, password string) profileFixture {
	t.Helper()
	conn := dbtest.Open(t)
	userRepo := users.NewRepository(conn)
	hasher := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1})

	user := &models.User{Email: "me@example.com"}
	var account *models.Account
	if password != "" {
		hash, err := hasher.Hash(password)
		require.NoError(t, err)
		account = &models.Account{ProviderID: enums.ProviderCredential, Password: &hash}
	} else {
		account = &models.Account{ProviderID: enums.ProviderGitHub, AccountID: "gh-1"}
	}
	require.NoError(t, userRepo.Create(context.Background(), user, account))

	f := profileFixture{
		user:     user,
		accounts: accounts.NewRepository(conn),
		avatars:  &fakeAvatars{stored: map[string][]byte{}},
		sessions: &fakeSessions{},
		hasher:   hasher,
	}
	svc, err := NewService(ServiceParams{
		Users:    userRepo,
		Accounts: f.accounts,
		Settings: NewSettingsRepository(conn),
		Avatars:  f.avatars,
		Hasher:   hasher,
		Sessions: f.sessions,
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestGetReportsPasswordAndProviders(t *testing.T) {
	f := newProfileFixture(t, "password123")
	view, err := f.svc.Get(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.True(t, view.HasPassword)
	assert.Equal(t, []enums.Provider{enums.ProviderCredential}, view.Providers)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"hasPassword":true`)
	assert.Contains(t, string(raw), `"email":"me@example.com"`)
}

func TestUpdateValidatesSkills(t *testing.T) {
	f := newProfileFixture(t, "password123")
	ctx := context.Background()

	skills := []string{"Go", " go ", "SQL", ""}
	bio := "hello"
	view, err := f.svc.Update(ctx, f.user.ID, UpdateInput{Skills: &skills, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, []string(view.Skills))
	require.NotNil(t, view.Bio)

	tooLong := []string{strings.Repeat("x", MaxSkillLength+1)}
	_, err = f.svc.Update(ctx, f.user.ID, UpdateInput{Skills: &tooLong})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	tooMany := make([]string, MaxSkills+1)
	for i := range tooMany {
		tooMany[i] = strings.Repeat("s", i+1)
	}
	_, err = f.svc.Update(ctx, f.user.ID, UpdateInput{Skills: &tooMany})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	f := newProfileFixture(t, "password123")
	ctx := context.Background()

	first, err := f.svc.UploadAvatar(ctx, f.user.ID, AvatarFile{Name: "a.gif", Size: int64(len(gifBytes)), Body: bytes.NewReader(gifBytes)})
	require.NoError(t, err)
	require.NotNil(t, first.Image)
	firstKey := strings.TrimPrefix(*first.Image, "https://cdn.test/")
	assert.True(t, strings.HasPrefix(firstKey, AvatarPrefix+f.user.ID+"/"))
	assert.True(t, strings.HasSuffix(firstKey, ".gif"))

	_, err = f.svc.UploadAvatar(ctx, f.user.ID, AvatarFile{Name: "b.gif", Size: int64(len(gifBytes)), Body: bytes.NewReader(gifBytes)})
	require.NoError(t, err)
	assert.Equal(t, []string{firstKey}, f.avatars.deleted)

	removed, err := f.svc.RemoveAvatar(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, removed.Image)
	assert.Len(t, f.avatars.deleted, 2)
}

func TestUploadAvatarRejectsBadFiles(t *testing.T) {
	f := newProfileFixture(t, "password123")
	ctx := context.Background()

	_, err := f.svc.UploadAvatar(ctx, f.user.ID, AvatarFile{Name: "a.txt", Size: 5, Body: strings.NewReader("hello")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.UploadAvatar(ctx, f.user.ID, AvatarFile{Name: "big.gif", Size: MaxAvatarBytes + 1, Body: bytes.NewReader(gifBytes)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, f.avatars.stored)
}

func TestSetPasswordOnlyWithoutExistingPassword(t *testing.T) {
	withPassword := newProfileFixture(t, "password123")
	err := withPassword.svc.SetPassword(context.Background(), withPassword.user.ID, SetPasswordInput{NewPassword: "another123"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation))

	social := newProfileFixture(t, "")
	ok, err := social.svc.HasPassword(context.Background(), social.user.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, social.svc.SetPassword(context.Background(), social.user.ID, SetPasswordInput{NewPassword: "another123"}))
	ok, err = social.svc.HasPassword(context.Background(), social.user.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestChangePassword(t *testing.T) {
	f := newProfileFixture(t, "password123")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, f.user.ID, "tok", ChangePasswordInput{CurrentPassword: "wrong-one", NewPassword: "newpassword1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidOperation))

	err = f.svc.ChangePassword(ctx, f.user.ID, "tok", ChangePasswordInput{CurrentPassword: "password123", NewPassword: "short"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, f.svc.ChangePassword(ctx, f.user.ID, "tok", ChangePasswordInput{
		CurrentPassword:     "password123",
		NewPassword:         "newpassword1",
		RevokeOtherSessions: true,
	}))
	assert.True(t, f.sessions.revoked)
	assert.Equal(t, "tok", f.sessions.revokedKeep)

	account, err := f.accounts.FindCredential(ctx, f.user.ID)
	require.NoError(t, err)
	ok, err := f.hasher.Verify("newpassword1", *account.Password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSettingsLazyCreateAndTriState(t *testing.T) {
	f := newProfileFixture(t, "password123")
	ctx := context.Background()

	row, err := f.svc.Settings(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, row.PrimaryColor)

	var patch SettingsPatch
	require.NoError(t, json.Unmarshal([]byte(`{"primaryColor":"oklch(0.62 0.19 259)","secondaryColor":"#112233"}`), &patch))
	row, err = f.svc.UpdateSettings(ctx, f.user.ID, patch)
	require.NoError(t, err)
	require.NotNil(t, row.PrimaryColor)
	assert.Equal(t, "oklch(0.62 0.19 259)", *row.PrimaryColor)

	patch = SettingsPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"primaryColor":null}`), &patch))
	row, err = f.svc.UpdateSettings(ctx, f.user.ID, patch)
	require.NoError(t, err)
	assert.Nil(t, row.PrimaryColor)
	require.NotNil(t, row.SecondaryColor)

	patch = SettingsPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"primaryColor":"url(evil)"}`), &patch))
	_, err = f.svc.UpdateSettings(ctx, f.user.ID, patch)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestValidColor(t *testing.T) {
	for _, c := range []string{"#fff", "#A1B2C3", "#11223344", "rgb(1, 2, 3)", "rgba(1,2,3,0.5)", "hsl(210 40% 96%)", "oklch(0.7 0.1 200 / 50%)"} {
		assert.True(t, ValidColor(c), c)
	}
	for _, c := range []string{"", "red", "#12", "expression(alert(1))", "rgb(1,2,3);x"} {
		assert.False(t, ValidColor(c), c)
	}
}
