package service

import "errors"

// Elevation flow specific errors used by handlers for stable error_type mapping.
var (
	ErrAccountNotVerified = errors.New("account_not_verified")
	ErrCodeRequired       = errors.New("admin_code_required")
	ErrInvalidCode        = errors.New("invalid_or_expired_code")
)
