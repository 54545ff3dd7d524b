package services

import (
	"errors"
	"fmt"

	"yogastore-backend/repository"
)

// Error kinds surfaced to controllers. Store failures are wrapped so that
// errors.Is matches both the workflow kind and ErrStoreUnavailable.
var (
	ErrUnauthenticated    = errors.New("please log in to continue")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrPurchaseFailed     = errors.New("purchase failed, please try again")
	ErrEmailTaken         = repository.ErrEmailTaken
	ErrNotFound           = repository.ErrNotFound
)

// ValidationError reports a rejected input before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// storeFailure wraps an unexpected store error under kind.
func storeFailure(kind, err error) error {
	if kind == ErrStoreUnavailable {
		return fmt.Errorf("%w: %v", kind, err)
	}
	return fmt.Errorf("%w: %w: %v", kind, ErrStoreUnavailable, err)
}
