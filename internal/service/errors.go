package service

import (
	"errors"

	"flowfix/internal/repository"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrPersistence     = errors.New("persistence failure")
	ErrDelivery        = errors.New("delivery failure")
)

// Error is a classified service failure. Message is safe to show to the
// client; Err is the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func persistence(err error) error {
	return &Error{Kind: ErrPersistence, Message: msgPersistence, Err: err}
}

// classify turns repository and driver errors into service errors. Errors
// that are already classified pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrTaskNotFound):
		return notFound(msgTaskNotFound)
	case errors.Is(err, repository.ErrSubTaskNotFound):
		return notFound(msgSubTaskNotFound)
	case errors.Is(err, repository.ErrUserNotFound):
		return notFound(msgUserNotFound)
	default:
		return persistence(err)
	}
}
