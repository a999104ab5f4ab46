// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested record was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrUpstreamUnavailable indicates an external dependency could not be reached
	// or its circuit breaker is open.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrEmptyMessage indicates a chat turn without any text.
	ErrEmptyMessage = errors.New("empty message")

	// ErrMessageTooLong indicates a chat turn over the accepted length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrRateLimitExceeded indicates the session burst limit was hit.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrDailyLimitExceeded indicates the session used up its daily quota.
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")

	// ErrNoProvider indicates no language model provider is configured.
	ErrNoProvider = errors.New("no llm provider configured")

	// ErrInvalidSignature indicates a webhook payload failed verification.
	ErrInvalidSignature = errors.New("invalid signature")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRateLimited reports whether err is either rate limit sentinel.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded) || errors.Is(err, ErrDailyLimitExceeded)
}

// IsInvalidInput reports whether err came from validating a chat turn.
func IsInvalidInput(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMessageTooLong)
}

// IsUpstreamUnavailable reports whether err came from an external dependency.
func IsUpstreamUnavailable(err error) bool {
	var ue *UpstreamError
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrTimeout) || errors.As(err, &ue)
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// UpstreamError describes a failed call to an external service
// (HKO, an LLM provider, the WhatsApp Graph API).
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status=%d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new upstream error.
func NewUpstreamError(service string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{
		Service:    service,
		StatusCode: statusCode,
		Err:        err,
	}
}
