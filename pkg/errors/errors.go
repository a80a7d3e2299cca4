// Package errors defines the sentinel errors shared by the search server and
// the AppError wrapper that attaches a human-readable message to them.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers every caller mistake the core can detect:
	// negative or duplicate document ids, words containing control
	// characters, malformed minus-words and unknown documents passed to
	// operations that require them.
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidInputf is shorthand for Newf(ErrInvalidInput, ...).
func InvalidInputf(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, format, args...)
}

// IsInvalidInput reports whether err wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
