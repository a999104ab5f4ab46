// Package logger provides structured logging utilities for the application.
package logger

import (
	"context"
	"log/slog"

	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
)

// ContextHandler copies the tracing values stored by ctxutil onto every
// record, so package-level slog calls made with a request context carry
// them too.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler wraps handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(contextAttrs(ctx)...)
	return h.handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// contextAttrs returns the tracing attributes ctx carries.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	// Channel defaults to web, so it only means something next to a session.
	if v := ctxutil.GetSessionID(ctx); v != "" {
		attrs = append(attrs,
			slog.String("session_id", v),
			slog.String("channel", ctxutil.GetChannel(ctx)))
	}
	if v, ok := ctxutil.GetRequestID(ctx); ok && v != "" {
		attrs = append(attrs, slog.String("request_id", v))
	}
	if v := ctxutil.GetMessageID(ctx); v != "" {
		attrs = append(attrs, slog.String("message_id", v))
	}
	return attrs
}
