// Package weather reads Hong Kong Observatory open data and reports whether
// a warning in force closes the centre.
//
// Lookups fail open: any transport or decoding problem yields no hint, so an
// outage at the Observatory never closes the centre on its own.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/decoders-hk/centre-assistant-go/internal/lang"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
)

const (
	// DefaultBaseURL is the HKO open data weather endpoint.
	DefaultBaseURL = "https://data.weather.gov.hk/weatherAPI/opendata/weather.php"
	// DefaultTimeout bounds a single feed request.
	DefaultTimeout = 4 * time.Second
	// DefaultCacheTTL is how long a feed payload is reused.
	DefaultCacheTTL = 5 * time.Minute

	userAgent = "decoders-hko/1.0"
)

// HKO data types, in the order they are consulted.
const (
	FeedWarningInfo = "warningInfo"
	FeedWarnSum     = "warnsum"
	FeedTips        = "swt"
)

var feeds = []string{FeedWarningInfo, FeedWarnSum, FeedTips}

// Lookup results reported to the lookup hook.
const (
	ResultSevere = "severe"
	ResultClear  = "clear"
	ResultError  = "error"
)

// ErrStatus is wrapped when HKO answers with a non-2xx status.
var ErrStatus = errors.New("weather: unexpected HKO status")

type cacheKey struct {
	feed string
	code string
}

type cacheEntry struct {
	payload   any
	fetchedAt time.Time
}

// Client fetches and interprets the HKO warning feeds.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	ttl        time.Duration
	broad      bool
	logger     *logger.Logger
	now        func() time.Time

	mu    sync.RWMutex
	cache map[cacheKey]cacheEntry

	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker

	onLookup func(result string)
	onState  func(state string)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithCacheTTL sets how long payloads are reused.
func WithCacheTTL(d time.Duration) Option { return func(c *Client) { c.ttl = d } }

// WithSevereOnly selects the strict closure list (true) or the broad one.
func WithSevereOnly(strict bool) Option { return func(c *Client) { c.broad = !strict } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(c *Client) { c.logger = l } }

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithLookupHook is called once per Hint with ResultSevere, ResultClear or
// ResultError.
func WithLookupHook(fn func(result string)) Option { return func(c *Client) { c.onLookup = fn } }

// WithBreakerStateHook is called when the circuit breaker changes state.
func WithBreakerStateHook(fn func(state string)) Option {
	return func(c *Client) { c.onState = fn }
}

// New creates a client with strict closure rules and the default endpoint.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		ttl:     DefaultCacheTTL,
		now:     time.Now,
		cache:   make(map[cacheKey]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if c.logger == nil {
		c.logger = logger.NewWithWriter("error", io.Discard)
	}
	c.logger = c.logger.WithModule("weather")

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "hko",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.WithField("from", from.String()).WithField("to", to.String()).
				Warn("HKO circuit breaker state changed")
			if c.onState != nil {
				c.onState(to.String())
			}
		},
	})
	return c
}

// Hint returns a localized closure hint, or "" when nothing in force closes
// the centre or the feeds are unavailable.
func (c *Client) Hint(ctx context.Context, tag lang.Tag) string {
	code := lang.HKOCode(tag)
	payloads, err := c.fetchAll(ctx, code)
	if err != nil {
		c.logger.WithError(err).WithField("lang", code).Debug("HKO lookup incomplete")
	}

	hint := c.interpret(payloads, tag)
	if c.onLookup != nil {
		switch {
		case hint != "":
			c.onLookup(ResultSevere)
		case len(payloads) == 0:
			c.onLookup(ResultError)
		default:
			c.onLookup(ResultClear)
		}
	}
	return hint
}

// Prefetch warms the cache for tag. It returns the first feed error.
func (c *Client) Prefetch(ctx context.Context, tag lang.Tag) error {
	_, err := c.fetchAll(ctx, lang.HKOCode(tag))
	return err
}

// BreakerState is the circuit breaker state name.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) interpret(payloads map[string]any, tag lang.Tag) string {
	minRank := minRankStrict
	if c.broad {
		minRank = minRankBroad
	}
	lowerInForce := false
	for _, feed := range []string{FeedWarningInfo, FeedWarnSum} {
		p, ok := payloads[feed]
		if !ok {
			continue
		}
		warnings := flattenWarnings(p)
		if w, _, found := pickSevere(warnings, c.broad, minRank); found {
			return formatWarning(w, tag)
		}
		lowerInForce = lowerInForce || slices.ContainsFunc(warnings, func(w warning) bool {
			_, ok := lowerTierRank(w)
			return ok
		})
	}
	if p, ok := payloads[FeedTips]; ok {
		tips := flattenTips(p)
		// With only a lower signal up, tips that mention higher signals are
		// outlooks. The pre-8 announcement still counts.
		if lowerInForce && !c.broad {
			tips = slices.DeleteFunc(tips, func(t string) bool { return !containsAny(t, pre8Keywords) })
		}
		if hint, found := tipHint(tips, c.broad, tag); found {
			return hint
		}
	}
	return ""
}

// fetchAll loads every feed concurrently. Payloads that could be loaded are
// returned even when another feed failed.
func (c *Client) fetchAll(ctx context.Context, code string) (map[string]any, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]any, len(feeds))
		g   errgroup.Group
	)
	for _, feed := range feeds {
		g.Go(func() error {
			p, err := c.get(ctx, feed, code)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", feed, code, err)
			}
			mu.Lock()
			out[feed] = p
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return out, err
}

func (c *Client) get(ctx context.Context, feed, code string) (any, error) {
	key := cacheKey{feed: feed, code: code}
	if p, ok := c.cached(key); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(feed+"|"+code, func() (any, error) {
		if p, ok := c.cached(key); ok {
			return p, nil
		}
		p, err := c.breaker.Execute(func() (any, error) {
			return c.fetch(ctx, feed, code)
		})
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = cacheEntry{payload: p, fetchedAt: c.now()}
		c.mu.Unlock()
		return p, nil
	})
	return v, err
}

func (c *Client) cached(key cacheKey) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.cache[key]
	if !ok || c.now().Sub(e.fetchedAt) > c.ttl {
		return nil, false
	}
	return e.payload, true
}

func (c *Client) fetch(ctx context.Context, feed, code string) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("dataType", feed)
	q.Set("lang", code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to decode %s: %w", feed, err)
	}
	return payload, nil
}
