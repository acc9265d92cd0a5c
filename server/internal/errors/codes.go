package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type surfaced by the API.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeNotFound indicates the requested entry does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimitExceeded indicates rate limit has been exceeded.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeLLMUnavailable indicates the LLM interpreter failed or is not configured.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError represents a structured error for service operations.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the error code to an HTTP status.
func (e *AppError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

// HTTPStatus maps an error code to an HTTP status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeLLMUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeContextCanceled:
		// nginx's "client closed request".
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// Convenience constructors for common error types.

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidArgumentf creates an invalid argument error with a formatted message.
func InvalidArgumentf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AppError {
	return &AppError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeLLMUnavailable, Message: msg, Cause: cause}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}

// Wrap wraps an existing error with a code. Context cancellation and
// deadlines keep their own codes regardless of code.
func Wrap(cause error, code ErrorCode, msg string) *AppError {
	switch {
	case stderrors.Is(cause, context.Canceled):
		code = ErrCodeContextCanceled
	case stderrors.Is(cause, context.DeadlineExceeded):
		code = ErrCodeTimeout
	}
	return &AppError{Code: code, Message: msg, Cause: cause}
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AppError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return defaultCode
}
