package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/internal/notifications"
	pkgAuth "github.com/angelmondragon/adminkit-backend/pkg/auth"
	"github.com/angelmondragon/adminkit-backend/pkg/auth/session"
	"github.com/angelmondragon/adminkit-backend/pkg/config"
	"github.com/angelmondragon/adminkit-backend/pkg/db"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "Invalid email or password"
	invalidTokenMessage       = "Invalid or expired token"

	resetIdentifierPrefix = "reset-password:"
	resetTokenBytes       = 32
)

// Service defines the email/password authentication flows.
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error)
	SignIn(ctx context.Context, req SignInRequest, meta session.Meta) (*SignInResult, error)
	SignOut(ctx context.Context, token string) error
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	SendVerificationEmail(ctx context.Context, email, callbackURL string) error
	RequestPasswordReset(ctx context.Context, email, redirectTo string) error
	IssuePasswordReset(ctx context.Context, user *models.User, redirectTo string) notifications.Result
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	RedirectTarget(raw string) string
}

type userRepository interface {
	Create(ctx context.Context, user *models.User, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetVerified(ctx context.Context, id string, verified bool, at time.Time) error
}

type accountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindCredential(ctx context.Context, userID string) (*models.Account, error)
	FindByProvider(ctx context.Context, provider enums.Provider, accountID string) (*models.Account, error)
	SetPassword(ctx context.Context, userID, hash string) error
}

type verificationStore interface {
	Upsert(ctx context.Context, identifier, value string, expiresAt time.Time) error
	Consume(ctx context.Context, identifier string, now time.Time) (string, error)
}

type sessionManager interface {
	Create(ctx context.Context, userID string, meta session.Meta) (*models.Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID, keepToken string) error
	Forget(userID string)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type mailer interface {
	Verification(ctx context.Context, user *models.User, url string) notifications.Result
	PasswordReset(ctx context.Context, user *models.User, url string) notifications.Result
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users         userRepository
	Accounts      accountRepository
	Verifications verificationStore
	Sessions      sessionManager
	Hasher        passwordHasher
	Notifications mailer
	Logger        *logger.Logger
	AuthConfig    config.AuthConfig
	AppConfig     config.AppConfig
}

type service struct {
	users         userRepository
	accounts      accountRepository
	verifications verificationStore
	sessions      sessionManager
	hasher        passwordHasher
	notify        mailer
	logg          *logger.Logger
	authCfg       config.AuthConfig
	appCfg        config.AppConfig
	now           func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	return newService(params)
}

func newService(params ServiceParams) (*service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if params.Verifications == nil {
		return nil, fmt.Errorf("verification store is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:         params.Users,
		accounts:      params.Accounts,
		verifications: params.Verifications,
		sessions:      params.Sessions,
		hasher:        params.Hasher,
		notify:        params.Notifications,
		logg:          params.Logger,
		authCfg:       params.AuthConfig,
		appCfg:        params.AppConfig,
		now:           time.Now,
	}, nil
}

func (s *service) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	email := normalizeEmail(req.Email)
	if err := security.ValidatePolicy(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "User already exists")
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{Email: email, Role: enums.RoleUser}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = &name
	}
	account := &models.Account{ProviderID: enums.ProviderCredential, Password: &hash}
	if err := s.users.Create(ctx, user, account); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "User already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return &SignUpResult{User: user, Notification: s.sendVerification(ctx, user, req.CallbackURL)}, nil
}

func (s *service) SignIn(ctx context.Context, req SignInRequest, meta session.Meta) (*SignInResult, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		s.sendVerification(ctx, user, "")
		return nil, pkgerrors.New(pkgerrors.CodeEmailNotVerified, "Email not verified")
	}

	sess, err := s.sessions.Create(ctx, user.ID, meta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
	}
	return &SignInResult{User: user, Token: sess.Token, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := pkgAuth.ParseVerificationToken(s.authCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidTokenMessage)
	}
	user, err := s.users.FindByEmail(ctx, claims.Email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.EmailVerified {
		return user, nil
	}
	if err := s.users.SetVerified(ctx, user.ID, true, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
	}
	s.sessions.Forget(user.ID)
	return s.users.FindByID(ctx, user.ID)
}

// SendVerificationEmail succeeds whether or not the address is registered.
func (s *service) SendVerificationEmail(ctx context.Context, email, callbackURL string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !db.IsNotFound(err) {
			s.logg.Error(ctx, "auth.send_verification.lookup_failed", err)
		}
		return nil
	}
	if user.EmailVerified {
		return nil
	}
	s.sendVerification(ctx, user, callbackURL)
	return nil
}

// RequestPasswordReset succeeds whether or not the address is registered.
func (s *service) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !db.IsNotFound(err) {
			s.logg.Error(ctx, "auth.password_reset.lookup_failed", err)
		}
		return nil
	}
	s.IssuePasswordReset(ctx, user, redirectTo)
	return nil
}

// IssuePasswordReset stores a one-hour reset token and emails its link.
func (s *service) IssuePasswordReset(ctx context.Context, user *models.User, redirectTo string) notifications.Result {
	failed := func(err error) notifications.Result {
		s.logg.Error(s.logg.WithField(ctx, "target_user_id", user.ID), "auth.password_reset.issue_failed", err)
		return notifications.Result{Kind: enums.NotificationPasswordReset, Recipient: user.Email, Error: err.Error()}
	}

	token, err := security.NewToken(resetTokenBytes)
	if err != nil {
		return failed(err)
	}
	expiresAt := s.now().Add(s.resetTTL())
	if err := s.verifications.Upsert(ctx, resetIdentifierPrefix+security.HashToken(token), user.ID, expiresAt); err != nil {
		return failed(err)
	}
	return s.notify.PasswordReset(ctx, user, s.resetURL(redirectTo, token, user.Email))
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := security.ValidatePolicy(req.NewPassword); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	userID, err := s.verifications.Consume(ctx, resetIdentifierPrefix+security.HashToken(req.Token), s.now())
	if err != nil {
		if db.IsNotFound(err) || errors.Is(err, ErrVerificationExpired) {
			return pkgerrors.New(pkgerrors.CodeValidation, invalidTokenMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume reset token")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.accounts.SetPassword(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
	}
	if err := s.sessions.RevokeUser(ctx, userID, ""); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "target_user_id", userID), "auth.reset_password.revoke_failed", err)
	}
	return nil
}

// RedirectTarget returns raw when it is a relative path or points at a
// trusted origin, and the frontend URL otherwise. Relative paths resolve
// against the frontend.
func (s *service) RedirectTarget(raw string) string {
	target := SafeRedirect(raw, s.trustedOrigins(), s.appCfg.FrontendURL)
	if strings.HasPrefix(target, "/") {
		return strings.TrimRight(s.appCfg.FrontendURL, "/") + target
	}
	return target
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	account, err := s.accounts.FindCredential(ctx, user.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup credential")
	}
	if !account.HasPassword() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := s.hasher.Verify(password, *account.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) sendVerification(ctx context.Context, user *models.User, callbackURL string) notifications.Result {
	token, err := pkgAuth.MintVerificationToken(s.authCfg, s.now(), user.Email)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "target_user_id", user.ID), "auth.verification.mint_failed", err)
		return notifications.Result{Kind: enums.NotificationVerification, Recipient: user.Email, Error: err.Error()}
	}
	return s.notify.Verification(ctx, user, s.verifyURL(token, callbackURL))
}

func (s *service) verifyURL(token, callbackURL string) string {
	q := url.Values{}
	q.Set("token", token)
	if callbackURL = strings.TrimSpace(callbackURL); callbackURL != "" {
		q.Set("callbackURL", callbackURL)
	}
	return strings.TrimRight(s.authCfg.BaseURL, "/") + "/api/auth/verify-email?" + q.Encode()
}

func (s *service) resetURL(redirectTo, token, email string) string {
	base := strings.TrimRight(s.appCfg.FrontendURL, "/") + "/reset-password"
	if strings.TrimSpace(redirectTo) != "" {
		base = s.RedirectTarget(redirectTo)
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token) + "&email=" + url.QueryEscape(email)
}

func (s *service) resetTTL() time.Duration {
	if s.authCfg.ResetTTL > 0 {
		return s.authCfg.ResetTTL
	}
	return time.Hour
}

func (s *service) trustedOrigins() []string {
	return append(s.appCfg.CORSOrigins(), s.appCfg.FrontendURL, s.authCfg.BaseURL)
}

// SafeRedirect accepts relative paths and absolute URLs on a trusted origin.
func SafeRedirect(raw string, trusted []string, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	target, err := url.Parse(raw)
	if err != nil || target.Host == "" {
		return fallback
	}
	origin := target.Scheme + "://" + target.Host
	for _, candidate := range trusted {
		c, err := url.Parse(strings.TrimSpace(candidate))
		if err != nil || c.Host == "" {
			continue
		}
		if strings.EqualFold(c.Scheme+"://"+c.Host, origin) {
			return raw
		}
	}
	return fallback
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
