// Package sentry wraps the Sentry Go SDK for error reporting.
// The DSN may point at Sentry itself or at any Sentry-compatible ingest
// such as Better Stack Errors.
package sentry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN is the project DSN. Empty disables reporting.
	DSN string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	// Release identifies the application release version.
	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// TracesSampleRate enables performance tracing when above zero.
	TracesSampleRate float64

	// Debug enables Sentry SDK debug logging.
	Debug bool
}

// Initialize sets up the Sentry SDK.
// If DSN is empty, Sentry is disabled and nil is returned.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	u, err := url.Parse(cfg.DSN)
	if err != nil || u.Host == "" || u.User == nil {
		return fmt.Errorf("sentry: invalid DSN")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException captures an error and sends it to Sentry.
func CaptureException(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureExceptionWithContext captures an error using the request hub when
// present and tags the event with the chat session and channel.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if sessionID := ctxutil.GetSessionID(ctx); sessionID != "" {
			scope.SetTag("session_id", sessionID)
			scope.SetTag("channel", ctxutil.GetChannel(ctx))
		}
		if requestID, ok := ctxutil.GetRequestID(ctx); ok {
			scope.SetTag("request_id", requestID)
		}
		hub.CaptureException(err)
	})
}

// CaptureMessage captures a message and sends it to Sentry.
func CaptureMessage(message string) {
	sentry.CaptureMessage(message)
}
