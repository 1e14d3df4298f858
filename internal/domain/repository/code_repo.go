package repository

import (
	"time"

	"github.com/yourusername/informatics-api/internal/domain/entity"
)

// OneTimeCodeRepository persists admin elevation codes.
type OneTimeCodeRepository interface {
	// Replace deletes every code stored for code.OwnerEmail and inserts the
	// given one, all inside a single transaction (supersession).
	Replace(code *entity.OneTimeCode) error

	// FindValid returns the most recently created code for ownerEmail that
	// matches submitted and expires strictly after now. ErrNotFound when no
	// such code exists.
	FindValid(ownerEmail, submitted string, now time.Time) (*entity.OneTimeCode, error)
}
