package serviceerrors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	databaseerrors "locamat/internal/database"
	"locamat/pkg/lib/logger/sl"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrContextCanceled   = errors.New("context canceled")
	ErrDeadlineExceeded  = errors.New("deadline exceeded")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError carries a message meant for the end user. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Message string
	cause   error
}

func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// Invalid turns a domain rule violation into a ValidationError that still
// matches err with errors.Is.
func Invalid(err error) *ValidationError {
	return &ValidationError{Message: err.Error(), cause: err}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CheckContext reports a canceled or expired ctx as a service error.
func CheckContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return FromStorage(ctx.Err())
	default:
		return nil
	}
}

// FromStorage maps context and database errors onto service errors. Errors
// it does not know are returned unchanged.
func FromStorage(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return ErrContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrDeadlineExceeded
	case errors.Is(err, databaseerrors.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, databaseerrors.ErrConflict):
		return ErrConflict
	case errors.Is(err, databaseerrors.ErrAlreadyExists):
		return ErrAlreadyExists
	default:
		return err
	}
}

// Expected reports whether err is an outcome callers handle routinely, as
// opposed to a backend failure worth an error-level log line.
func Expected(err error) bool {
	return errors.Is(err, ErrContextCanceled) ||
		errors.Is(err, ErrDeadlineExceeded) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidTransition)
}

// Report translates err, logs it at warn when it is expected and at error
// otherwise, and wraps the result with op.
func Report(log *slog.Logger, op, msg string, err error) error {
	translated := FromStorage(err)
	if Expected(translated) {
		log.Warn(msg, sl.Err(err))
	} else {
		log.Error(msg, sl.Err(err))
	}
	return fmt.Errorf("%s: %w", op, translated)
}
