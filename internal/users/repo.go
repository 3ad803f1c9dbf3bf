package users

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes user persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the user and, when provided, its first account in one transaction.
func (r *Repository) Create(ctx context.Context, user *models.User, account *models.Account) error {
	user.Email = NormalizeEmail(user.Email)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if account == nil {
			return nil
		}
		account.UserID = user.ID
		if account.AccountID == "" {
			account.AccountID = user.ID
		}
		return tx.Create(account).Error
	})
}

// FindByEmail retrieves the user matching the provided email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of users plus the total matching count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if s := strings.ToLower(strings.TrimSpace(params.Search)); s != "" {
		like := "%" + escapeLike(s) + "%"
		q = q.Where("(LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(COALESCE(name, '')) LIKE ? ESCAPE '\\')", like, like)
	}
	if params.Role != "" {
		q = q.Where("role = ?", params.Role)
	}
	if params.Verified != nil {
		q = q.Where("email_verified = ?", *params.Verified)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err := q.Order(params.orderClause()).
		Limit(params.Limit()).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update applies column changes and returns the reloaded user.
func (r *Repository) Update(ctx context.Context, id string, changes map[string]any) (*models.User, error) {
	if len(changes) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.FindByID(ctx, id)
}

// SetVerified sets the verification flag. Repeating the current state is not an error.
func (r *Repository) SetVerified(ctx context.Context, id string, verified bool, at time.Time) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	changes := map[string]any{"email_verified": verified, "email_verified_at": nil}
	if verified {
		changes["email_verified_at"] = at
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes).Error
}

// Delete hard-deletes the user and everything it owns.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Account{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserSettings{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
