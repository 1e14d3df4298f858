package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Account roles. The first account ever registered becomes an admin; every
// later account starts as a student and can only be elevated through the
// code-gated flow.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User represents a registered account.
type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	FullName   string `gorm:"size:100;not null" json:"full_name"`
	Email      string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password   string `gorm:"size:100;not null" json:"-"`
	IsVerified bool   `gorm:"not null;default:false" json:"is_verified"`
	Role       string `gorm:"size:20;not null;default:'student'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for GORM.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the account already holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeSave hashes the password unless it is already a bcrypt hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] failed to hash password for email=%s: %v", u.Email, err)
			return err
		}
		u.Password = string(hashed)
	}
	return nil
}

// CheckPassword reports whether the given plaintext matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
