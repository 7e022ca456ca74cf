package model

import "errors"

// Common errors used across the application
var (
	// Registration errors
	ErrValidation      = errors.New("validation failed")
	ErrDuplicateHandle = errors.New("handle already taken")

	// Lookup errors
	ErrUserNotFound  = errors.New("user not found")
	ErrNoActiveMatch = errors.New("no active match")

	// Storage errors
	ErrTransactionFailed = errors.New("transaction failed")
	ErrLockTimeout       = errors.New("timed out waiting for write lock")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
