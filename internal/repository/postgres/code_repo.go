package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/informatics-api/internal/domain/entity"
	apperrors "github.com/yourusername/informatics-api/internal/pkg/errors"
)

// OneTimeCodeRepo implements repository.OneTimeCodeRepository on top of GORM.
type OneTimeCodeRepo struct {
	db *gorm.DB
}

func NewOneTimeCodeRepo(db *gorm.DB) *OneTimeCodeRepo {
	return &OneTimeCodeRepo{db: db}
}

// Replace supersedes every previous code for the owner email. The delete and
// insert run in one transaction so concurrent issuances for the same email
// cannot interleave.
func (r *OneTimeCodeRepo) Replace(code *entity.OneTimeCode) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_email = ?", code.OwnerEmail).
			Delete(&entity.OneTimeCode{}).Error; err != nil {
			return fmt.Errorf("failed to delete superseded codes: %w", err)
		}
		if err := tx.Create(code).Error; err != nil {
			return fmt.Errorf("failed to create code: %w", err)
		}
		return nil
	})
}

func (r *OneTimeCodeRepo) FindValid(ownerEmail, submitted string, now time.Time) (*entity.OneTimeCode, error) {
	var code entity.OneTimeCode
	err := r.db.
		Where("owner_email = ? AND code = ? AND expires_at > ?", ownerEmail, submitted, now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}
	return &code, nil
}
