package service

import "errors"

var (
	ErrValidation         = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDeleteFailed means an existing, owned task was not removed by the store.
	ErrDeleteFailed = errors.New("task could not be deleted")
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationError(msg string) error {
	return &ValidationError{Message: msg}
}
