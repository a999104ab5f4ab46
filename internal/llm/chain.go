package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
)

// Chain tries each answerer once, in order, until one returns without error.
type Chain struct {
	answerers []Answerer
	metrics   *metrics.Metrics
}

// NewChain drops nil answerers.
func NewChain(m *metrics.Metrics, answerers ...Answerer) *Chain {
	c := &Chain{metrics: m}
	for _, a := range answerers {
		if a != nil {
			c.answerers = append(c.answerers, a)
		}
	}
	return c
}

// Len returns the number of usable answerers.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.answerers)
}

// Generate returns the first successful completion and the provider that
// produced it. An empty completion counts as success.
func (c *Chain) Generate(ctx context.Context, system, prompt string) (string, Provider, error) {
	if c.Len() == 0 {
		return "", "", errNoAnswerers
	}

	var errs []error
	for i, a := range c.answerers {
		start := time.Now()
		text, err := a.Generate(ctx, system, prompt)
		c.metrics.RecordLLM(a.Provider().String(), errorStatus(err), time.Since(start).Seconds())
		if err == nil {
			if i > 0 {
				slog.InfoContext(ctx, "llm fallback succeeded",
					"from", c.answerers[0].Provider(),
					"to", a.Provider())
			}
			return text, a.Provider(), nil
		}

		errs = append(errs, err)
		if errors.Is(err, context.Canceled) {
			break
		}

		slog.WarnContext(ctx, "llm provider failed",
			"provider", a.Provider(),
			"status", errorStatus(err),
			"error", err,
			"duration", time.Since(start))
	}

	return "", "", fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

var errNoAnswerers = errors.New("llm: no answerer configured")
