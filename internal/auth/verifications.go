package auth

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrVerificationExpired is returned by Consume for a row past its expiry.
var ErrVerificationExpired = errors.New("verification expired")

// VerificationRepository stores single-use values such as reset tokens and
// oauth state.
type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Upsert writes the value under identifier, replacing any previous one.
func (r *VerificationRepository) Upsert(ctx context.Context, identifier, value string, expiresAt time.Time) error {
	row := &models.Verification{Identifier: identifier, Value: value, ExpiresAt: expiresAt}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(row).Error
}

// Consume deletes the row and returns its value. Expired rows are deleted
// too but report ErrVerificationExpired.
func (r *VerificationRepository) Consume(ctx context.Context, identifier string, now time.Time) (string, error) {
	var row models.Verification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identifier = ?", identifier).First(&row).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", row.ID).Delete(&models.Verification{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if !now.Before(row.ExpiresAt) {
		return "", ErrVerificationExpired
	}
	return row.Value, nil
}

// DeleteExpired removes every row past its expiry.
func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Verification{})
	return res.RowsAffected, res.Error
}
