package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain-specific errors for better error handling and user feedback
var (
	// ErrExerciseNotFound is returned when the API has no exercise for an id
	ErrExerciseNotFound = errors.New("exercise not found")

	// ErrInvalidBodyPart is returned for an empty or malformed category
	ErrInvalidBodyPart = errors.New("invalid body part")

	// ErrInvalidExerciseID is returned when an exercise id has invalid characters
	ErrInvalidExerciseID = errors.New("invalid exercise id")

	// ErrUpstreamUnavailable is returned when the exercise API cannot be reached
	ErrUpstreamUnavailable = errors.New("exercise API unavailable")

	// ErrRateLimitExceeded is returned when rate limit is hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrNamespaceNotFound is returned for an unknown cache namespace
	ErrNamespaceNotFound = errors.New("cache namespace not found")
)

// UpstreamError reports a non-success HTTP status from the exercise API
type UpstreamError struct {
	StatusCode int
	URL        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// AppError wraps errors with additional context for better debugging
type AppError struct {
	Err        error  // Original error
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Internal   bool   // Whether to log as internal error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error with context
func NewAppError(err error, message string, statusCode int, internal bool) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Internal:   internal,
	}
}

// NewValidationError creates a 400 validation error
func NewValidationError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Internal:   false,
	}
}
