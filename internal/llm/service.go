package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
)

// DefaultCacheTTL is used when the configured TTL is zero.
const DefaultCacheTTL = 120 * time.Second

// Reply is the outcome of one question. Text is empty when the answer was
// silenced or every provider failed.
type Reply struct {
	Text     string
	Provider Provider
	Cached   bool
	// Silenced is "empty" or "apology" when the model's answer was dropped.
	Silenced string
}

// Service answers free-form questions.
type Service struct {
	chain   *Chain
	cache   *responseCache
	group   singleflight.Group
	metrics *metrics.Metrics
	timeout time.Duration
}

// ServiceOptions tunes a Service.
type ServiceOptions struct {
	CacheTTL time.Duration
	// Timeout bounds one Reply across all providers. Zero means no bound.
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// NewService wraps chain. A nil or empty chain yields ErrNoProvider from Reply.
func NewService(chain *Chain, opts ServiceOptions) *Service {
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		chain:   chain,
		cache:   newResponseCache(ttl),
		metrics: opts.Metrics,
		timeout: opts.Timeout,
	}
}

// Enabled reports whether any provider is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.chain.Len() > 0
}

// Reply generates, filters and caches an answer for req.
func (s *Service) Reply(ctx context.Context, req Request) (Reply, error) {
	if !s.Enabled() {
		return Reply{}, apperrors.ErrNoProvider
	}

	key := cacheKey(req)
	if r, ok := s.cache.get(key); ok {
		s.metrics.RecordLLMCacheHit()
		r.Cached = true
		return r, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, req, key)
	})
	if err != nil {
		return Reply{}, err
	}
	return v.(Reply), nil
}

func (s *Service) generate(ctx context.Context, req Request, key string) (Reply, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	system, prompt := BuildPrompt(req)
	text, provider, err := s.chain.Generate(ctx, system, prompt)
	if err != nil {
		return Reply{}, fmt.Errorf("llm reply: %w", err)
	}

	if reason := silenceReason(text); reason != "" {
		slog.InfoContext(ctx, "llm answer silenced",
			"provider", provider,
			"reason", reason)
		return Reply{Provider: provider, Silenced: reason}, nil
	}

	r := Reply{
		Text:     text + "\n\n" + StaffFooter(req.Lang),
		Provider: provider,
	}
	s.cache.set(key, r)
	return r, nil
}
