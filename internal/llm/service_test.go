package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
)

type stubAnswerer struct {
	mu       sync.Mutex
	provider Provider
	text     string
	err      error
	calls    int
	system   string
	prompt   string
}

func (s *stubAnswerer) Generate(_ context.Context, system, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.system = system
	s.prompt = prompt
	return s.text, s.err
}

func (s *stubAnswerer) Provider() Provider { return s.provider }

func (s *stubAnswerer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestChain_FallsBackInOrder(t *testing.T) {
	t.Parallel()

	primary := &stubAnswerer{provider: ProviderGemini, err: &ProviderError{Provider: ProviderGemini, StatusCode: 503, Err: errors.New("down")}}
	secondary := &stubAnswerer{provider: ProviderOpenAI, text: "hello"}
	m := metrics.New(prometheus.NewRegistry())

	chain := NewChain(m, nil, primary, secondary)
	if chain.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", chain.Len())
	}

	text, provider, err := chain.Generate(context.Background(), "sys", "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "hello" || provider != ProviderOpenAI {
		t.Errorf("Generate() = (%q, %q), want (hello, openai)", text, provider)
	}
	if primary.callCount() != 1 {
		t.Errorf("primary called %d times, want 1", primary.callCount())
	}
	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("gemini", "server_error")); got != 1 {
		t.Errorf("gemini server_error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("openai", "success")); got != 1 {
		t.Errorf("openai success count = %v, want 1", got)
	}
}

func TestChain_StopsOnCancel(t *testing.T) {
	t.Parallel()

	primary := &stubAnswerer{provider: ProviderGemini, err: context.Canceled}
	secondary := &stubAnswerer{provider: ProviderOpenAI, text: "unused"}

	_, _, err := NewChain(nil, primary, secondary).Generate(context.Background(), "s", "p")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if secondary.callCount() != 0 {
		t.Error("secondary should not be called after cancellation")
	}
}

func TestChain_AllFail(t *testing.T) {
	t.Parallel()

	a := &stubAnswerer{provider: ProviderGemini, err: errors.New("a")}
	b := &stubAnswerer{provider: ProviderBedrock, err: errors.New("b")}

	_, _, err := NewChain(nil, a, b).Generate(context.Background(), "s", "p")
	if err == nil {
		t.Fatal("Generate() expected error")
	}
	if !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("error %q should mention both failures", err)
	}
}

func TestService_NoProvider(t *testing.T) {
	t.Parallel()

	svc := NewService(NewChain(nil), ServiceOptions{})
	if svc.Enabled() {
		t.Error("Enabled() = true with no answerers")
	}
	_, err := svc.Reply(context.Background(), Request{Lang: lang.EN, Message: "hi"})
	if !errors.Is(err, apperrors.ErrNoProvider) {
		t.Errorf("Reply() error = %v, want ErrNoProvider", err)
	}
}

func TestService_AppendsFooterAndCaches(t *testing.T) {
	t.Parallel()

	stub := &stubAnswerer{provider: ProviderOpenAI, text: "We are open 09:00-18:00."}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(NewChain(m, stub), ServiceOptions{Metrics: m})

	req := Request{Lang: lang.ZhHK, Message: "幾點開？", Context: "hours: 09:00-18:00", Hint: HintOpeningHours}
	first, err := svc.Reply(context.Background(), req)
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if want := "We are open 09:00-18:00.\n\n" + StaffFooter(lang.ZhHK); first.Text != want {
		t.Errorf("Reply().Text = %q, want %q", first.Text, want)
	}
	if first.Cached {
		t.Error("first reply should not be cached")
	}

	// History does not take part in the cache key.
	req.History = "Parent: hi\nBot: hello"
	second, err := svc.Reply(context.Background(), req)
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if !second.Cached || second.Text != first.Text {
		t.Errorf("second reply = %+v, want cached copy", second)
	}
	if stub.callCount() != 1 {
		t.Errorf("answerer called %d times, want 1", stub.callCount())
	}
	if got := testutil.ToFloat64(m.LLMCacheHitsTotal); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}

	req.Context = "hours: closed"
	if _, err := svc.Reply(context.Background(), req); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if stub.callCount() != 2 {
		t.Error("different context should miss the cache")
	}
}

func TestService_Silences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"empty", "   ", "empty"},
		{"english apology", "Sorry, I cannot help with that.", "apology"},
		{"chinese apology", "抱歉，我沒有相關資料。", "apology"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := &stubAnswerer{provider: ProviderGemini, text: tt.answer}
			svc := NewService(NewChain(nil, stub), ServiceOptions{})

			r, err := svc.Reply(context.Background(), Request{Lang: lang.EN, Message: "q"})
			if err != nil {
				t.Fatalf("Reply() error = %v", err)
			}
			if r.Text != "" || r.Silenced != tt.want {
				t.Errorf("Reply() = %+v, want silenced %q", r, tt.want)
			}

			// Silenced answers are not cached.
			if _, err := svc.Reply(context.Background(), Request{Lang: lang.EN, Message: "q"}); err != nil {
				t.Fatalf("Reply() error = %v", err)
			}
			if stub.callCount() != 2 {
				t.Errorf("answerer called %d times, want 2", stub.callCount())
			}
		})
	}
}

func TestService_ProviderFailure(t *testing.T) {
	t.Parallel()

	stub := &stubAnswerer{provider: ProviderOpenAI, err: errors.New("boom")}
	svc := NewService(NewChain(nil, stub), ServiceOptions{Timeout: time.Second})

	if _, err := svc.Reply(context.Background(), Request{Lang: lang.EN, Message: "q"}); err == nil {
		t.Error("Reply() expected error when every provider fails")
	}
}

func TestResponseCache_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	c := newResponseCache(time.Minute)
	c.now = func() time.Time { return now }

	c.set("k", Reply{Text: "v"})
	if _, ok := c.get("k"); !ok {
		t.Fatal("get() miss right after set")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get("k"); ok {
		t.Error("get() should miss after TTL")
	}
	if c.len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", c.len())
	}
}
