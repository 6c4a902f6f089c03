package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. UnsupportedFormat and Decode indicate a malformed
// or mislabeled upload (client input); Storage indicates a failure in the
// storage collaborator (server side). Everything else the pipeline degrades
// on instead of failing.
var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrDecode            = errors.New("cannot decode document bytes")
	ErrStorage           = errors.New("storage failure")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapKind tags err with one of the sentinel kinds above so callers can
// classify with errors.Is while the original cause stays unwrappable.
func WrapKind(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}
