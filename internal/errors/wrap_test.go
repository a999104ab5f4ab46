package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapper(t *testing.T) {
	chat := NewWrapper("chat", "handle")

	t.Run("nil stays nil", func(t *testing.T) {
		if got := chat.Wrap(nil, "llm unavailable"); got != nil {
			t.Errorf("Wrap(nil) = %v", got)
		}
	})

	t.Run("keeps context and cause", func(t *testing.T) {
		cause := NewUpstreamError("openai", 503, errors.New("overloaded"))
		wrapped := chat.With("lang", "zh-HK").Wrap(cause, "llm unavailable")

		var we *WrappedError
		if !errors.As(wrapped, &we) {
			t.Fatal("expected WrappedError")
		}
		if we.Module != "chat" || we.Operation != "handle" || we.Fields["lang"] != "zh-HK" {
			t.Errorf("context = %s.%s %v", we.Module, we.Operation, we.Fields)
		}
		var ue *UpstreamError
		if !errors.As(wrapped, &ue) || ue.StatusCode != 503 {
			t.Error("wrapped error should unwrap to the upstream error")
		}
		if !IsUpstreamUnavailable(wrapped) {
			t.Error("IsUpstreamUnavailable() = false")
		}
	})

	t.Run("With does not leak into the parent", func(t *testing.T) {
		digest := NewWrapper("digest", "run")
		day := digest.With("day", "2025-06-02")
		_ = day.With("attempt", "2")

		err := digest.Wrap(errors.New("x"), "admin digest not sent")
		if got := err.Error(); got != "digest.run: admin digest not sent: x" {
			t.Errorf("parent Error() = %q", got)
		}
		err = day.Wrap(errors.New("x"), "admin digest not sent")
		if got := err.Error(); got != "digest.run [day=2025-06-02]: admin digest not sent: x" {
			t.Errorf("child Error() = %q", got)
		}
	})
}

func TestWrappedError_FieldsSorted(t *testing.T) {
	err := NewWrapper("digest", "run").
		With("day", "2025-06-02").
		With("bucket", "centre-state").
		Wrap(ErrUpstreamUnavailable, "admin digest not sent")

	want := "digest.run [bucket=centre-state day=2025-06-02]: admin digest not sent: upstream unavailable"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestGetUserMessage(t *testing.T) {
	run := NewWrapper("digest", "run")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("plain error"), "plain error"},
		{"direct", run.Wrap(errors.New("x"), "admin digest not sent"), "admin digest not sent"},
		{"nested in fmt", fmt.Errorf("cmd/digest: %w", run.Wrap(errors.New("x"), "admin digest not sent")), "admin digest not sent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserMessage(tt.err); got != tt.want {
				t.Errorf("GetUserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
