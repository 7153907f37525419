package errors

import (
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Common error codes
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeDatabase         = "DATABASE_ERROR"
	ErrCodeConfig           = "CONFIG_ERROR"
	ErrCodeSourceTimeout    = "SOURCE_TIMEOUT"
	ErrCodeSourceFailure    = "SOURCE_ERROR"
	ErrCodeAllSourcesFailed = "ALL_SOURCES_FAILED"
	ErrCodeNeverOptimized   = "NEVER_OPTIMIZED"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Common error constructors

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

// DatabaseError creates a database error
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// ConfigError creates a configuration error. These are fatal at startup.
func ConfigError(message string, err error) *AppError {
	return Wrap(err, ErrCodeConfig, message, http.StatusInternalServerError)
}

// SourceTimeout creates an error for a catalog source that missed its deadline
func SourceTimeout(source string, err error) *AppError {
	return Wrap(err, ErrCodeSourceTimeout,
		fmt.Sprintf("source %s timed out", source),
		http.StatusGatewayTimeout)
}

// SourceFailure creates an error for a catalog source that returned garbage
// or could not be reached
func SourceFailure(source string, err error) *AppError {
	return Wrap(err, ErrCodeSourceFailure,
		fmt.Sprintf("source %s failed", source),
		http.StatusBadGateway)
}

// AllSourcesFailed creates the error returned when not a single enabled
// source produced results
func AllSourcesFailed(err error) *AppError {
	return Wrap(err, ErrCodeAllSourcesFailed,
		"all catalog sources failed", http.StatusBadGateway)
}

// NeverOptimized creates the error returned when a cached snapshot is
// requested for a cart that has never been optimized
func NeverOptimized(listID int64) *AppError {
	return New(ErrCodeNeverOptimized,
		fmt.Sprintf("cart %d has never been optimized", listID),
		http.StatusNotFound)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}
