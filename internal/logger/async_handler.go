package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the async log pipeline.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// shipper drains queued records on a single goroutine. Records arriving
// while the queue is full are counted and dropped.
type shipper struct {
	queue        chan queuedRecord
	done         chan struct{}
	flushTimeout time.Duration
	closed       atomic.Bool
	dropped      atomic.Uint64
}

func newShipper(opts AsyncOptions) *shipper {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultAsyncBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultAsyncFlushTimeout
	}

	s := &shipper{
		queue:        make(chan queuedRecord, opts.BufferSize),
		done:         make(chan struct{}),
		flushTimeout: opts.FlushTimeout,
	}
	go s.drain()
	return s
}

func (s *shipper) drain() {
	defer close(s.done)
	for q := range s.queue {
		_ = q.handler.Handle(q.ctx, q.record)
	}
}

func (s *shipper) push(ctx context.Context, record slog.Record, handler slog.Handler) {
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	// Request contexts are cancelled long before the record is shipped.
	q := queuedRecord{ctx: context.WithoutCancel(ctx), record: record, handler: handler}
	select {
	case s.queue <- q:
	default:
		s.dropped.Add(1)
	}
}

func (s *shipper) close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.flushTimeout)
		defer cancel()
	}
	close(s.queue)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler hands records to a background shipper so that remote log
// delivery never blocks a chat turn or a webhook.
type AsyncHandler struct {
	shipper *shipper
	handler slog.Handler
}

// NewAsyncHandler wraps handler with a new shipper.
func NewAsyncHandler(handler slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{shipper: newShipper(opts), handler: handler}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle queues a clone of r.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.handler.Enabled(ctx, r.Level) {
		h.shipper.push(ctx, r.Clone(), h.handler)
	}
	return nil
}

// WithAttrs shares the shipper with the receiver.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{shipper: h.shipper, handler: h.handler.WithAttrs(attrs)}
}

// WithGroup shares the shipper with the receiver.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{shipper: h.shipper, handler: h.handler.WithGroup(name)}
}

// Dropped returns how many records were discarded because the queue was
// full or the handler was already shut down.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.shipper == nil {
		return 0
	}
	return h.shipper.dropped.Load()
}

// Shutdown flushes queued records, waiting at most until ctx expires or the
// flush timeout passes when ctx has no deadline.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.shipper == nil {
		return nil
	}
	return h.shipper.close(ctx)
}
