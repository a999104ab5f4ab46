package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
)

// sinks mirrors NewWithOptions with a Better Stack token: stdout JSON plus a
// remote handler behind the async shipper, both under the context handler.
type sinks struct {
	stdout, remote bytes.Buffer
	async          *AsyncHandler
	log            *slog.Logger
}

func newSinks(stdoutLevel, remoteLevel slog.Level) *sinks {
	s := &sinks{}
	s.async = NewAsyncHandler(slog.NewJSONHandler(&s.remote, &slog.HandlerOptions{Level: remoteLevel}), AsyncOptions{BufferSize: 32})
	local := slog.NewJSONHandler(&s.stdout, &slog.HandlerOptions{Level: stdoutLevel})
	s.log = slog.New(NewContextHandler(NewMultiHandler(nil, local, nil, s.async)))
	return s
}

func (s *sinks) flush(t *testing.T) {
	t.Helper()
	if err := s.async.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		out = append(out, entry)
	}
	return out
}

func TestMultiHandler_WhatsAppTurnReachesBothSinks(t *testing.T) {
	t.Parallel()
	s := newSinks(slog.LevelInfo, slog.LevelInfo)

	ctx := ctxutil.WithSessionID(context.Background(), "85291234567")
	ctx = ctxutil.WithChannel(ctx, ctxutil.ChannelWhatsApp)
	ctx = ctxutil.WithMessageID(ctx, "wamid.HBgL")
	s.log.InfoContext(ctx, "Scheduling request queued for digest", "topic", "Leave/Reschedule/Cancel")
	s.flush(t)

	for name, buf := range map[string]*bytes.Buffer{"stdout": &s.stdout, "remote": &s.remote} {
		got := lines(t, buf)
		if len(got) != 1 {
			t.Fatalf("%s: %d lines, want 1", name, len(got))
		}
		want := map[string]any{
			"msg":        "Scheduling request queued for digest",
			"topic":      "Leave/Reschedule/Cancel",
			"session_id": "85291234567",
			"channel":    "whatsapp",
			"message_id": "wamid.HBgL",
		}
		for k, v := range want {
			if got[0][k] != v {
				t.Errorf("%s: %s = %v, want %v", name, k, got[0][k], v)
			}
		}
	}
}

func TestMultiHandler_LevelPerSink(t *testing.T) {
	t.Parallel()
	s := newSinks(slog.LevelDebug, slog.LevelWarn)

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, true},
		{slog.LevelInfo, true},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tt := range tests {
		if got := s.log.Enabled(context.Background(), tt.level); got != tt.want {
			t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}

	s.log.Debug("HKO cache hit")
	s.log.Info("History cleanup completed")
	s.log.Warn("Weather breaker open")
	s.flush(t)

	if got := len(lines(t, &s.stdout)); got != 3 {
		t.Errorf("stdout lines = %d, want 3", got)
	}
	remote := lines(t, &s.remote)
	if len(remote) != 1 || remote[0]["msg"] != "Weather breaker open" {
		t.Errorf("remote lines = %v, want only the warning", remote)
	}
}

func TestMultiHandler_DerivedLoggersKeepBothSinks(t *testing.T) {
	t.Parallel()
	s := newSinks(slog.LevelInfo, slog.LevelInfo)

	digestLog := s.log.With("module", "digest").WithGroup("run")
	digestLog.Info("Admin digest sent", "day", "2025-06-02", "items", 3)
	s.flush(t)

	for name, buf := range map[string]*bytes.Buffer{"stdout": &s.stdout, "remote": &s.remote} {
		got := lines(t, buf)
		if len(got) != 1 {
			t.Fatalf("%s: %d lines, want 1", name, len(got))
		}
		if got[0]["module"] != "digest" {
			t.Errorf("%s: module = %v", name, got[0]["module"])
		}
		run, ok := got[0]["run"].(map[string]any)
		if !ok || run["day"] != "2025-06-02" {
			t.Errorf("%s: run group = %v", name, got[0]["run"])
		}
	}
}

var errShipping = errors.New("better stack unreachable")

// failingSink rejects every record.
type failingSink struct{ slog.Handler }

func (failingSink) Enabled(context.Context, slog.Level) bool { return true }

func (failingSink) Handle(context.Context, slog.Record) error { return errShipping }

func TestMultiHandler_SinkErrorDoesNotStopStdout(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	mh := NewMultiHandler(slog.NewJSONHandler(&stdout, nil), failingSink{})

	var r slog.Record
	r.Message = "Chat request handled"
	err := mh.Handle(context.Background(), r)

	if !errors.Is(err, errShipping) {
		t.Errorf("Handle() = %v, want %v", err, errShipping)
	}
	if !bytes.Contains(stdout.Bytes(), []byte("Chat request handled")) {
		t.Error("stdout sink skipped after the remote sink failed")
	}
}

func TestAsyncHandler_DeliversBeforeShutdown(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	async := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), AsyncOptions{BufferSize: 16})
	log := slog.New(NewMultiHandler(async))

	for i := range 10 {
		log.Info("queued", "n", i)
	}
	if err := async.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
	if got := bytes.Count(buf.Bytes(), []byte("queued")); got != 10 {
		t.Errorf("delivered %d records, want 10", got)
	}

	log.Info("after shutdown")
	if bytes.Contains(buf.Bytes(), []byte("after shutdown")) {
		t.Error("records after shutdown should be dropped")
	}
	if got := async.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	if err := async.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() = %v", err)
	}
}

func TestAsyncHandler_SharesWorkerAcrossAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	async := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), AsyncOptions{})
	slog.New(async.WithAttrs([]slog.Attr{slog.String("module", "weather")})).Info("hint")

	if err := async.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["module"] != "weather" {
		t.Errorf("module = %v", entry["module"])
	}
}

func TestLoggerDroppedRecordsWithoutShipping(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := NewWithWriter("info", &buf)
	if got := l.DroppedRecords(); got != 0 {
		t.Errorf("DroppedRecords() = %d, want 0", got)
	}
}
