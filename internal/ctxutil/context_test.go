package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestSessionIDContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()
		if sessionID := GetSessionID(context.Background()); sessionID != "" {
			t.Errorf("Expected empty string, got %s", sessionID)
		}
	})

	t.Run("with session ID", func(t *testing.T) {
		t.Parallel()
		ctx := WithSessionID(context.Background(), "85251180001")
		if got := GetSessionID(ctx); got != "85251180001" {
			t.Errorf("Expected sessionID 85251180001, got %s", got)
		}
		if got := MustGetSessionID(ctx); got != "85251180001" {
			t.Errorf("MustGetSessionID() = %s", got)
		}
	})
}

func TestMustGetSessionID_Panic(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustGetSessionID to panic on empty context")
		}
	}()

	MustGetSessionID(context.Background())
}

func TestChannelDefaultsToWeb(t *testing.T) {
	t.Parallel()

	if got := GetChannel(context.Background()); got != ChannelWeb {
		t.Errorf("GetChannel() = %s, want %s", got, ChannelWeb)
	}
	ctx := WithChannel(context.Background(), ChannelWhatsApp)
	if got := GetChannel(ctx); got != ChannelWhatsApp {
		t.Errorf("GetChannel() = %s, want %s", got, ChannelWhatsApp)
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	if _, ok := GetRequestID(context.Background()); ok {
		t.Error("Expected no request ID on empty context")
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got, ok := GetRequestID(ctx); !ok || got != "req-1" {
		t.Errorf("GetRequestID() = %s, %v", got, ok)
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithSessionID(parent, "s1")
	parent = WithChannel(parent, ChannelWhatsApp)
	parent = WithRequestID(parent, "r1")
	parent = WithMessageID(parent, "wamid.1")
	cancel()

	ctx := PreserveTracing(parent)
	if ctx.Err() != nil {
		t.Fatal("Preserved context should not inherit cancellation")
	}
	if _, ok := ctx.Deadline(); ok {
		t.Error("Preserved context should not inherit the deadline")
	}
	if GetSessionID(ctx) != "s1" || GetChannel(ctx) != ChannelWhatsApp || GetMessageID(ctx) != "wamid.1" {
		t.Errorf("tracing values lost: %s %s %s", GetSessionID(ctx), GetChannel(ctx), GetMessageID(ctx))
	}
	if id, _ := GetRequestID(ctx); id != "r1" {
		t.Errorf("request ID lost: %s", id)
	}
}
