package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeDiscovery indicates the IdP endpoints could not be resolved.
	// Fatal for any auth operation until a later call retries the fetch.
	ErrCodeDiscovery ErrorCode = "discovery"
	// ErrCodeRefresh indicates the IdP rejected or could not process the
	// refresh grant. Maps to forced re-authentication, never a silent retry.
	ErrCodeRefresh ErrorCode = "refresh"
	// ErrCodeMissingRefreshToken indicates the session has no credential to
	// refresh with. Maps to forced re-authentication.
	ErrCodeMissingRefreshToken ErrorCode = "missing_refresh_token"
	// ErrCodeUnauthorized is surfaced to callers as "redirect to sign-in".
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeTenantMismatch indicates the session tenant claim does not match
	// the requested resource's tenant. Always fatal to the request.
	ErrCodeTenantMismatch ErrorCode = "tenant_mismatch"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Timeout creates a new Timeout error.
func Timeout(message string) *AppError {
	return &AppError{Code: ErrCodeTimeout, Message: message}
}

// Discovery creates a new Discovery error.
func Discovery(message string) *AppError {
	return &AppError{Code: ErrCodeDiscovery, Message: message}
}

// Refresh creates a new Refresh error.
func Refresh(message string) *AppError {
	return &AppError{Code: ErrCodeRefresh, Message: message}
}

// MissingRefreshToken creates a new MissingRefreshToken error.
func MissingRefreshToken(message string) *AppError {
	return &AppError{Code: ErrCodeMissingRefreshToken, Message: message}
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message}
}

// TenantMismatch creates a new TenantMismatch error.
func TenantMismatch(message string) *AppError {
	return &AppError{Code: ErrCodeTenantMismatch, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// IsDiscovery checks if an error is a Discovery error.
func IsDiscovery(err error) bool { return isCode(err, ErrCodeDiscovery) }

// IsRefresh checks if an error is a Refresh error.
func IsRefresh(err error) bool { return isCode(err, ErrCodeRefresh) }

// IsMissingRefreshToken checks if an error is a MissingRefreshToken error.
func IsMissingRefreshToken(err error) bool { return isCode(err, ErrCodeMissingRefreshToken) }

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool { return isCode(err, ErrCodeUnauthorized) }

// IsTenantMismatch checks if an error is a TenantMismatch error.
func IsTenantMismatch(err error) bool { return isCode(err, ErrCodeTenantMismatch) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
