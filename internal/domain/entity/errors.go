package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when settling a cart without items
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartIndexOutOfRange is returned when removing a line that does not exist
	ErrCartIndexOutOfRange = errors.New("cart item index out of range")
)

// ValidationError is a rejected user action with a human-readable reason.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
