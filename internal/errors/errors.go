package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeCredentialRejected indicates the ambient credential is
	// missing, expired, or invalid. Recoverable via one refresh attempt.
	ErrCodeCredentialRejected ErrorCode = "credential_rejected"
	// ErrCodeRefreshFailed indicates the credential could not be renewed.
	// Terminal for the current session.
	ErrCodeRefreshFailed ErrorCode = "refresh_failed"
	// ErrCodeValidation indicates malformed input (e.g. bad login payload).
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeServer indicates an upstream server failure (status >= 500).
	ErrCodeServer ErrorCode = "server"
	// ErrCodeConnectivity indicates no response was received at all.
	ErrCodeConnectivity ErrorCode = "connectivity"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message,
// and optional cause. It supports errors.Is and errors.As via Unwrap.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for
	// validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// CredentialRejected creates a new CredentialRejected error.
func CredentialRejected(message string) *AppError {
	return &AppError{Code: ErrCodeCredentialRejected, Message: message}
}

// RefreshFailed creates a new RefreshFailed error.
func RefreshFailed(message string) *AppError {
	return &AppError{Code: ErrCodeRefreshFailed, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Server creates a new Server error.
func Server(message string) *AppError {
	return &AppError{Code: ErrCodeServer, Message: message}
}

// Connectivity creates a new Connectivity error.
func Connectivity(message string) *AppError {
	return &AppError{Code: ErrCodeConnectivity, Message: message}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to an AppError, returning the same error for
// chaining.
func (e *AppError) Wrap(cause error) *AppError {
	e.Cause = cause
	return e
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) an AppError;
// otherwise it returns ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
