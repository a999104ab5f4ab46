package llm

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// ProviderError carries the HTTP status of a failed provider call.
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return string(e.Provider) + ": " + e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return string(e.Provider) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// errorStatus maps a provider failure to the metrics status label.
func errorStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.StatusCode == http.StatusTooManyRequests:
			return "rate_limited"
		case pe.StatusCode >= 500:
			return "server_error"
		case pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden:
			return "auth_error"
		case pe.StatusCode == http.StatusBadRequest:
			return "bad_request"
		}
	}
	return "error"
}
