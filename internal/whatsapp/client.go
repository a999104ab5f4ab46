// Package whatsapp talks to the WhatsApp Cloud API: it sends text messages
// and receives parent messages through the webhook.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/decoders-hk/centre-assistant-go/internal/config"
	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
	"github.com/decoders-hk/centre-assistant-go/internal/ratelimit"
	"github.com/decoders-hk/centre-assistant-go/internal/stringutil"
)

// DefaultBaseURL is the Graph API host.
const DefaultBaseURL = "https://graph.facebook.com"

// Client sends messages from one business phone number.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	graphVersion  string
	phoneNumberID string
	token         string
	limiter       *ratelimit.Limiter
	metrics       *metrics.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another host, used in tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter paces outbound sends.
func WithLimiter(l *ratelimit.Limiter) ClientOption {
	return func(c *Client) { c.limiter = l }
}

// WithMetrics records send outcomes.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient returns nil when the config lacks a token or phone number id.
func NewClient(cfg config.WhatsAppConfig, opts ...ClientOption) *Client {
	if !cfg.Enabled() {
		return nil
	}
	version := cfg.GraphVersion
	if version == "" {
		version = "v18.0"
	}
	c := &Client{
		httpClient:    &http.Client{Timeout: config.WhatsAppSend},
		baseURL:       DefaultBaseURL,
		graphVersion:  version,
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.Token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// SendText delivers body to the given number, splitting it when it exceeds
// the Cloud API text limit.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if c == nil {
		return apperrors.ErrNoProvider
	}
	for _, part := range splitText(body, config.WhatsAppMaxTextRunes) {
		if err := c.send(ctx, to, part); err != nil {
			c.metrics.RecordWhatsAppSend("error")
			return err
		}
		c.metrics.RecordWhatsAppSend("success")
	}
	return nil
}

func (c *Client) send(ctx context.Context, to, body string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		To:               stringutil.NormalizePhone(to),
		Type:             "text",
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.graphVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstreamError("whatsapp", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return apperrors.NewUpstreamError("whatsapp", resp.StatusCode, errors.New(strings.TrimSpace(string(detail))))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// splitText cuts s into chunks of at most limit runes, preferring line breaks.
func splitText(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
