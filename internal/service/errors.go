package service

import (
	"errors"
	"fmt"
)

// Errors returned by the services. The HTTP layer maps them onto status
// codes; anything else is treated as a storage failure.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotInFamily        = errors.New("user is not in a family")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidToken       = errors.New("invalid invite token")

	ErrEmailTaken   = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrTodoNotFound = fmt.Errorf("%w: todo not found", ErrNotFound)
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
