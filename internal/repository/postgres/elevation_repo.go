package postgres

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/informatics-api/internal/domain/entity"
)

// ElevationRepo implements repository.ElevationRepository on top of GORM.
type ElevationRepo struct {
	db *gorm.DB
}

func NewElevationRepo(db *gorm.DB) *ElevationRepo {
	return &ElevationRepo{db: db}
}

// PromoteAndConsume runs the role upgrade and the code deletion in one
// transaction. The delete is not checked for affected rows: a concurrent
// finalization may already have consumed the code, and the upgrade itself is
// idempotent.
func (r *ElevationRepo) PromoteAndConsume(userID, codeID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entity.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"role":       entity.RoleAdmin,
				"updated_at": time.Now(),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to upgrade role: %w", err)
		}

		if err := tx.Delete(&entity.OneTimeCode{}, codeID).Error; err != nil {
			return fmt.Errorf("failed to delete consumed code: %w", err)
		}
		return nil
	})
}
