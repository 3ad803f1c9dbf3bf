// Package accounts persists the login methods linked to a user.
package accounts

import (
	"context"
	"errors"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"github.com/angelmondragon/adminkit-backend/pkg/enums"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// FindCredential returns the user's credential account.
func (r *Repository) FindCredential(ctx context.Context, userID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider_id = ?", userID, enums.ProviderCredential).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByProvider looks up an account by provider and provider-side id.
func (r *Repository) FindByProvider(ctx context.Context, provider enums.Provider, accountID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("provider_id = ? AND account_id = ?", provider, accountID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// HasPassword reports whether the user has a credential password stored.
func (r *Repository) HasPassword(ctx context.Context, userID string) (bool, error) {
	account, err := r.FindCredential(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return account.HasPassword(), nil
}

// SetPassword stores hash on the credential account, creating it when the user has none.
func (r *Repository) SetPassword(ctx context.Context, userID, hash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		err := tx.Where("user_id = ? AND provider_id = ?", userID, enums.ProviderCredential).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.Account{
				UserID:     userID,
				ProviderID: enums.ProviderCredential,
				AccountID:  userID,
				Password:   &hash,
			}).Error
		case err != nil:
			return err
		}
		return tx.Model(&account).Update("password", hash).Error
	})
}

// ListProviders returns the providers linked to the user.
func (r *Repository) ListProviders(ctx context.Context, userID string) ([]enums.Provider, error) {
	var providers []enums.Provider
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("user_id = ?", userID).
		Order("provider_id").
		Pluck("provider_id", &providers).Error
	return providers, err
}
