package entity

import "time"

// OneTimeCode is a short-lived numeric credential proving out-of-band
// approval for an admin elevation. At most one valid code exists per owner
// email: issuing a new one deletes all earlier rows for that email, and a
// successful redemption deletes the redeemed row.
type OneTimeCode struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerEmail string    `gorm:"size:100;not null;index" json:"owner_email"`
	Code       string    `gorm:"size:6;not null" json:"-"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OneTimeCode) TableName() string {
	return "one_time_codes"
}

func (c *OneTimeCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
