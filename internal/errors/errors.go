// Package errors provides structured error types and error handling utilities.
package errors

import (
	"errors"
	"fmt"
)

// Wrap creates a new error by wrapping an existing error with additional context.
// This uses fmt.Errorf with %w verb for proper error chain support.
func Wrap(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// New creates a new error using fmt.Errorf.
func New(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps multiple errors into a single error.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Code identifies the category of a tool failure. These are the only codes
// a tool envelope ever carries.
type Code string

const (
	CodeValidation Code = "VALIDATION_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeInternal   Code = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching against a ToolError's category.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found error")
	ErrInternal   = errors.New("internal error")
)

// ToolError is a failure that is reported to the caller inside the tool
// envelope rather than as a protocol error.
type ToolError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause, if any.
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Is matches the category sentinels.
func (e *ToolError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == CodeValidation
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrInternal:
		return e.Code == CodeInternal
	}
	return false
}

// Validation creates a VALIDATION_ERROR.
func Validation(message string) error {
	return &ToolError{Code: CodeValidation, Message: message}
}

// Validationf creates a VALIDATION_ERROR with a formatted message.
func Validationf(format string, args ...any) error {
	return Validation(fmt.Sprintf(format, args...))
}

// NotFound creates a NOT_FOUND error.
func NotFound(message string) error {
	return &ToolError{Code: CodeNotFound, Message: message}
}

// Internal creates an INTERNAL_ERROR.
func Internal(message string) error {
	return &ToolError{Code: CodeInternal, Message: message}
}

// InternalWithCause creates an INTERNAL_ERROR that wraps cause.
func InternalWithCause(message string, cause error) error {
	return &ToolError{Code: CodeInternal, Message: message, Cause: cause}
}

// CodeOf returns the taxonomy code of err. Anything that is not a ToolError
// is an internal failure.
func CodeOf(err error) Code {
	var te *ToolError
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var te *ToolError
	if errors.As(err, &te) {
		if te.Message == "" && te.Cause != nil {
			return te.Cause.Error()
		}
		return te.Message
	}
	if err == nil {
		return "Unknown error occurred"
	}
	return err.Error()
}
