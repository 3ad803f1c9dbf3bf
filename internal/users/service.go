package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/internal/notifications"
	"github.com/angelmondragon/adminkit-backend/pkg/db"
	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/angelmondragon/adminkit-backend/pkg/logger"
	"github.com/angelmondragon/adminkit-backend/pkg/pagination"
	"github.com/angelmondragon/adminkit-backend/pkg/security"
	"github.com/angelmondragon/adminkit-backend/pkg/types"
)

// Service is the admin user-management surface.
type Service interface {
	List(ctx context.Context, params ListParams) (types.Page[models.User], error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*CreateResult, error)
	Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*models.User, error)
	Delete(ctx context.Context, actor Actor, id string) error
	GeneratePassword() (string, error)
	SetVerified(ctx context.Context, id string, verified bool) (*models.User, error)
	SendPasswordReset(ctx context.Context, id string) (notifications.Result, error)
	BulkDelete(ctx context.Context, actor Actor, ids []string) (BulkResult, error)
	BulkSetVerified(ctx context.Context, ids []string, verified bool) (BulkResult, error)
}

type userStore interface {
	Create(ctx context.Context, user *models.User, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params ListParams) ([]models.User, int64, error)
	Update(ctx context.Context, id string, changes map[string]any) (*models.User, error)
	SetVerified(ctx context.Context, id string, verified bool, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

type sessionInvalidator interface {
	Forget(userID string)
	RevokeUser(ctx context.Context, userID, keepToken string) error
}

type resetIssuer interface {
	IssuePasswordReset(ctx context.Context, user *models.User, redirectTo string) notifications.Result
}

type welcomeSender interface {
	Welcome(ctx context.Context, user *models.User, tempPassword string) notifications.Result
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo            userStore
	Hasher          passwordHasher
	Sessions        sessionInvalidator
	Resets          resetIssuer
	Notifications   welcomeSender
	Logger          *logger.Logger
	BulkConcurrency int
}

type service struct {
	repo        userStore
	hasher      passwordHasher
	sessions    sessionInvalidator
	resets      resetIssuer
	notify      welcomeSender
	logg        *logger.Logger
	concurrency int
	now         func() time.Time
}

// NewService constructs the admin users service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("users repository is required")
	case params.Hasher == nil:
		return nil, fmt.Errorf("password hasher is required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session invalidator is required")
	case params.Resets == nil:
		return nil, fmt.Errorf("password reset issuer is required")
	case params.Notifications == nil:
		return nil, fmt.Errorf("notifications service is required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}
	concurrency := params.BulkConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &service{
		repo:        params.Repo,
		hasher:      params.Hasher,
		sessions:    params.Sessions,
		resets:      params.Resets,
		notify:      params.Notifications,
		logg:        params.Logger,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (types.Page[models.User], error) {
	params.Params = pagination.Normalize(params.Params)
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return types.Page[models.User]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return types.NewPage(rows, params.Page, params.PageSize, total), nil
}

func (s *service) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return user, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*CreateResult, error) {
	role := input.Role
	if role == "" {
		role = enums.RoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", role)
	}
	if role.IsPrivileged() && !enums.HasCapability(actor.Role, enums.CapUsersManageAdmins) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin can create administrators")
	}

	password := input.Password
	generated := false
	if password == "" {
		var err error
		if password, err = security.GenerateTempPassword(security.TempPasswordLength); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		generated = true
	}
	if err := security.ValidatePolicy(password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := s.now()
	user := &models.User{
		Email:           input.Email,
		Name:            optionalString(input.Name),
		Role:            role,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}
	account := &models.Account{ProviderID: enums.ProviderCredential, Password: &hash}
	if err := s.repo.Create(ctx, user, account); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	result := s.notify.Welcome(ctx, user, password)
	return &CreateResult{User: user, Notification: result, GeneratedPassword: generated}, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*models.User, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	canManageAdmins := enums.HasCapability(actor.Role, enums.CapUsersManageAdmins)
	if target.Role.IsPrivileged() && target.ID != actor.ID && !canManageAdmins {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin can edit administrators")
	}

	changes := map[string]any{}
	if input.Role != nil && *input.Role != target.Role {
		if !input.Role.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *input.Role)
		}
		if target.ID == actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation, "you cannot change your own role")
		}
		if input.Role.IsPrivileged() && !canManageAdmins {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin can grant administrator roles")
		}
		changes["role"] = *input.Role
	}
	if input.Name != nil {
		changes["name"] = optionalString(*input.Name)
	}
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email != target.Email {
			if existing, err := s.repo.FindByEmail(ctx, email); err == nil && existing.ID != target.ID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")
			}
			changes["email"] = email
		}
	}
	if input.EmailVerified != nil && *input.EmailVerified != target.EmailVerified {
		changes["email_verified"] = *input.EmailVerified
		if *input.EmailVerified {
			changes["email_verified_at"] = s.now()
		} else {
			changes["email_verified_at"] = nil
		}
	}
	if input.Image != nil {
		changes["image"] = optionalString(*input.Image)
	}
	if input.Bio != nil {
		changes["bio"] = optionalString(*input.Bio)
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	s.sessions.Forget(id)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id string) error {
	if id == actor.ID {
		return pkgerrors.New(pkgerrors.CodeInvalidOperation, "you cannot delete your own account")
	}
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapLookupError(err)
	}
	if target.Role.IsPrivileged() && !enums.HasCapability(actor.Role, enums.CapUsersManageAdmins) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only a super admin can delete administrators")
	}
	return s.deleteOne(ctx, id)
}

func (s *service) deleteOne(ctx context.Context, id string) error {
	if err := s.sessions.RevokeUser(ctx, id, ""); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "target_user_id", id), "users.delete.revoke_sessions_failed")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err)
	}
	s.sessions.Forget(id)
	return nil
}

func (s *service) GeneratePassword() (string, error) {
	return security.GenerateTempPassword(security.TempPasswordLength)
}

func (s *service) SetVerified(ctx context.Context, id string, verified bool) (*models.User, error) {
	if err := s.repo.SetVerified(ctx, id, verified, s.now()); err != nil {
		return nil, mapLookupError(err)
	}
	s.sessions.Forget(id)
	return s.Get(ctx, id)
}

func (s *service) SendPasswordReset(ctx context.Context, id string) (notifications.Result, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notifications.Result{}, mapLookupError(err)
	}
	return s.resets.IssuePasswordReset(ctx, user, ""), nil
}

func mapLookupError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
