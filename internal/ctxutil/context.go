// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	sessionIDKey contextKey = "ctxutil.sessionID"
	channelKey   contextKey = "ctxutil.channel"
	requestIDKey contextKey = "ctxutil.requestID"
	messageIDKey contextKey = "ctxutil.messageID"
)

// Channels a chat turn can arrive on.
const (
	ChannelWeb      = "web"
	ChannelWhatsApp = "whatsapp"
)

// WithSessionID adds a chat session ID to the context.
// For WhatsApp the session ID is the sender's phone number.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// GetSessionID retrieves the session ID from the context, or "".
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// MustGetSessionID panics when no session ID is set.
func MustGetSessionID(ctx context.Context) string {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	if !ok || sessionID == "" {
		panic("ctxutil: sessionID not found")
	}
	return sessionID
}

// WithChannel records which transport delivered the message.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

// GetChannel retrieves the channel, defaulting to ChannelWeb.
func GetChannel(ctx context.Context) string {
	if v, ok := ctx.Value(channelKey).(string); ok && v != "" {
		return v
	}
	return ChannelWeb
}

// WithRequestID adds a request ID to the context for tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithMessageID adds the WhatsApp message ID being handled.
func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, messageIDKey, messageID)
}

// GetMessageID retrieves the WhatsApp message ID, or "".
func GetMessageID(ctx context.Context) string {
	if v, ok := ctx.Value(messageIDKey).(string); ok {
		return v
	}
	return ""
}

// PreserveTracing creates a detached context that keeps the tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// Use for work that must outlive the request, such as answering a WhatsApp
// message after the webhook has already been acknowledged.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if sessionID := GetSessionID(ctx); sessionID != "" {
		newCtx = WithSessionID(newCtx, sessionID)
	}
	if channel, ok := ctx.Value(channelKey).(string); ok && channel != "" {
		newCtx = WithChannel(newCtx, channel)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if messageID := GetMessageID(ctx); messageID != "" {
		newCtx = WithMessageID(newCtx, messageID)
	}

	return newCtx
}
