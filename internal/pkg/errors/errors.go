package errors

import "errors"

// Shared application errors. Services wrap these with %w so handlers can map
// them to HTTP status codes with errors.Is.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for failed credential checks.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts such as a duplicate email.
	ErrConflict = errors.New("resource state conflict")
)
