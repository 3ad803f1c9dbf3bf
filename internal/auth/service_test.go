package auth

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/adminkit-backend/internal/accounts"
	"github.com/angelmondragon/adminkit-backend/internal/notifications"
	"github.com/angelmondragon/adminkit-backend/internal/users"
	pkgAuth "github.com/angelmondragon/adminkit-backend/pkg/auth"
	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/db/dbtest"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	kind enums.NotificationKind
	to   string
	url  string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) record(kind enums.NotificationKind, user *models.User, url string) notifications.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, to: user.Email, url: url})
	return notifications.Result{Kind: kind, Recipient: user.Email, Delivered: true}
}

func (m *recordingMailer) Verification(_ context.Context, user *models.User, url string) notifications.Result {
	return m.record(enums.NotificationVerification, user, url)
}

func (m *recordingMailer) PasswordReset(_ context.Context, user *models.User, url string) notifications.Result {
	return m.record(enums.NotificationPasswordReset, user, url)
}

func (m *recordingMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

type authFixture struct {
	svc      *service
	db       *gorm.DB
	users    *users.Repository
	accounts *accounts.Repository
	sessions *session.Manager
	mailer   *recordingMailer
	authCfg  config.AuthConfig
}

func testConfigs() (config.AuthConfig, config.AppConfig) {
	return config.AuthConfig{
			Secret:     "test-secret",
			BaseURL:    "http://api.test",
			SessionTTL: 7 * 24 * time.Hour,
			UpdateAge:  24 * time.Hour,
			CacheTTL:   time.Minute,
			VerifyTTL:  time.Hour,
			ResetTTL:   time.Hour,
		}, config.AppConfig{
			Env:         config.AppEnvDev,
			FrontendURL: "http://app.test",
			CORSOrigin:  "http://app.test",
		}
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	conn := dbtest.Open(t)
	authCfg, appCfg := testConfigs()

	userRepo := users.NewRepository(conn)
	manager, err := session.NewManager(session.NewRepository(conn), userRepo, authCfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	f := authFixture{
		db:       conn,
		users:    userRepo,
		accounts: accounts.NewRepository(conn),
		sessions: manager,
		mailer:   &recordingMailer{},
		authCfg:  authCfg,
	}
	svc, err := newService(ServiceParams{
		Users:         userRepo,
		Accounts:      f.accounts,
		Verifications: NewVerificationRepository(conn),
		Sessions:      manager,
		Hasher:        security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1}),
		Notifications: f.mailer,
		Logger:        logger.Nop(),
		AuthConfig:    authCfg,
		AppConfig:     appCfg,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f authFixture) signUpVerified(t *testing.T, email, password string) *models.User {
	t.Helper()
	res, err := f.svc.SignUp(context.Background(), SignUpRequest{Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, f.users.SetVerified(context.Background(), res.User.ID, true, time.Now()))
	return res.User
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestSignUpSendsVerificationAndRejectsDuplicates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.SignUp(ctx, SignUpRequest{Email: "New@Example.com", Password: "password123", Name: "New", CallbackURL: "/dashboard"})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", res.User.Email)
	require.Equal(t, enums.RoleUser, res.User.Role)
	require.False(t, res.User.EmailVerified)
	require.True(t, res.Notification.Delivered)

	mail := f.mailer.last(t)
	require.Equal(t, enums.NotificationVerification, mail.kind)
	require.True(t, strings.HasPrefix(mail.url, "http://api.test/api/auth/verify-email?"))
	u, err := url.Parse(mail.url)
	require.NoError(t, err)
	require.Equal(t, "/dashboard", u.Query().Get("callbackURL"))

	_, err = f.svc.SignUp(ctx, SignUpRequest{Email: "new@example.com", Password: "password123"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestSignUpEnforcesPasswordPolicy(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.SignUp(context.Background(), SignUpRequest{Email: "a@example.com", Password: "short"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = f.svc.SignUp(context.Background(), SignUpRequest{Email: "a@example.com", Password: strings.Repeat("x", 129)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSignInRequiresVerifiedEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.SignUp(ctx, SignUpRequest{Email: "u@example.com", Password: "password123"})
	require.NoError(t, err)
	before := len(f.mailer.sent)

	_, err = f.svc.SignIn(ctx, SignInRequest{Email: "u@example.com", Password: "password123"}, session.Meta{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmailNotVerified))
	require.Len(t, f.mailer.sent, before+1)
}

func TestSignInWrongPasswordAndUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.signUpVerified(t, "u@example.com", "password123")

	_, err := f.svc.SignIn(context.Background(), SignInRequest{Email: "u@example.com", Password: "nope-nope"}, session.Meta{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.SignIn(context.Background(), SignInRequest{Email: "ghost@example.com", Password: "password123"}, session.Meta{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestSignInCreatesResolvableSessionAndSignOutRevokes(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.signUpVerified(t, "u@example.com", "password123")

	res, err := f.svc.SignIn(ctx, SignInRequest{Email: "U@example.com", Password: "password123"}, session.Meta{IPAddress: "1.2.3.4"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	resolved, err := f.sessions.Resolve(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.User.ID)

	require.NoError(t, f.svc.SignOut(ctx, res.Token))
	_, err = f.sessions.Resolve(ctx, res.Token)
	require.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestVerifyEmailMarksUserVerified(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res, err := f.svc.SignUp(ctx, SignUpRequest{Email: "v@example.com", Password: "password123"})
	require.NoError(t, err)

	token, err := pkgAuth.MintVerificationToken(f.authCfg, time.Now(), "v@example.com")
	require.NoError(t, err)

	user, err := f.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, user.ID)
	require.True(t, user.EmailVerified)
	require.NotNil(t, user.EmailVerifiedAt)

	_, err = f.svc.VerifyEmail(ctx, "garbage")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestSendVerificationEmailNeverEnumerates(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.svc.SendVerificationEmail(context.Background(), "ghost@example.com", ""))
	require.Empty(t, f.mailer.sent)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.signUpVerified(t, "r@example.com", "password123")

	signedIn, err := f.svc.SignIn(ctx, SignInRequest{Email: "r@example.com", Password: "password123"}, session.Meta{})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ghost@example.com", ""))
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "r@example.com", ""))

	mail := f.mailer.last(t)
	require.Equal(t, enums.NotificationPasswordReset, mail.kind)
	u, err := url.Parse(mail.url)
	require.NoError(t, err)
	require.Equal(t, "http://app.test/reset-password", u.Scheme+"://"+u.Host+u.Path)
	require.Equal(t, "r@example.com", u.Query().Get("email"))
	token := u.Query().Get("token")
	require.NotEmpty(t, token)

	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "newpassword1"}))

	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "newpassword2"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.sessions.Resolve(ctx, signedIn.Token)
	require.ErrorIs(t, err, session.ErrInvalidSession)

	res, err := f.svc.SignIn(ctx, SignInRequest{Email: user.Email, Password: "newpassword1"}, session.Meta{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.signUpVerified(t, "x@example.com", "password123")

	f.svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	f.svc.IssuePasswordReset(ctx, user, "")
	f.svc.now = time.Now

	u, err := url.Parse(f.mailer.last(t).url)
	require.NoError(t, err)
	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Token: u.Query().Get("token"), NewPassword: "newpassword1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSafeRedirect(t *testing.T) {
	trusted := []string{"http://app.test", "https://admin.example.com"}
	cases := map[string]string{
		"":                                 "fallback",
		"/dashboard":                       "/dashboard",
		"//evil.test/x":                    "fallback",
		"https://admin.example.com/done":   "https://admin.example.com/done",
		"https://evil.test/steal":          "fallback",
		"javascript:alert(1)":              "fallback",
		"http://app.test/reset?next=/home": "http://app.test/reset?next=/home",
	}
	for in, want := range cases {
		require.Equal(t, want, SafeRedirect(in, trusted, "fallback"), in)
	}
}
