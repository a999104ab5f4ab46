package logger

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler writes each record to every enabled handler: stdout JSON
// first, then Better Stack when configured.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler ignores nil handlers.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	h := &MultiHandler{}
	for _, next := range handlers {
		if next != nil {
			h.handlers = append(h.handlers, next)
		}
	}
	return h
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, next := range h.handlers {
		if next.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives each handler its own clone of r and joins their errors.
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, next := range h.handlers {
		if next.Enabled(ctx, r.Level) {
			err = errors.Join(err, next.Handle(ctx, r.Clone()))
		}
	}
	return err
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	out := &MultiHandler{handlers: make([]slog.Handler, len(h.handlers))}
	for i, next := range h.handlers {
		out.handlers[i] = fn(next)
	}
	return out
}
