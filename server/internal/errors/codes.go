package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a specific error type for conversation operations.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the entity is absent or in a state that forbids the operation.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeValidation indicates malformed input.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeProvider indicates the model call failed or returned a non-success status.
	ErrCodeProvider ErrorCode = "PROVIDER"
	// ErrCodeStorage indicates an underlying persistence failure.
	ErrCodeStorage ErrorCode = "STORAGE"
	// ErrCodeUnknown is returned by CodeOf for errors outside the taxonomy.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// Error represents a structured error for conversation operations.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *Error) GetCode() ErrorCode {
	return e.Code
}

// ProviderError is returned when the language model call fails.
// StatusCode is 0 when no HTTP response was received (transport error, timeout, cancellation).
type ProviderError struct {
	StatusCode int
	Body       string
	Cause      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("[%s] model call failed", ErrCodeProvider)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s - %s", msg, e.Body)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *ProviderError) GetCode() ErrorCode {
	return ErrCodeProvider
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return NotFound(fmt.Sprintf(format, args...))
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// Storage creates a storage error wrapping the persistence failure.
func Storage(msg string, cause error) *Error {
	return &Error{Code: ErrCodeStorage, Message: msg, Cause: cause}
}

// Provider creates a provider error.
func Provider(statusCode int, body string, cause error) *ProviderError {
	return &ProviderError{StatusCode: statusCode, Body: body, Cause: cause}
}

type coder interface {
	GetCode() ErrorCode
}

// CodeOf returns the taxonomy code of the first coded error in err's chain.
func CodeOf(err error) ErrorCode {
	var c coder
	if stderrors.As(err, &c) {
		return c.GetCode()
	}
	return ErrCodeUnknown
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsProvider reports whether err is a provider error.
func IsProvider(err error) bool { return CodeOf(err) == ErrCodeProvider }

// IsStorage reports whether err is a storage error.
func IsStorage(err error) bool { return CodeOf(err) == ErrCodeStorage }

// AsProvider extracts the provider error from err's chain.
func AsProvider(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
