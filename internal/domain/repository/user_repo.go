package repository

import "github.com/yourusername/informatics-api/internal/domain/entity"

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	// Count returns the total number of accounts. Used to decide whether a
	// registration is the first one ever (which is auto-assigned admin).
	Count() (int64, error)
	List(limit, offset int) ([]entity.User, int64, error)
}
