package whatsapp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
)

const samplePayload = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "85230000000", "phone_number_id": "12345"},
        "contacts": [{"wa_id": "85291234567", "profile": {"name": "Mrs Chan"}}],
        "messages": [
          {"id": "wamid.1", "from": "85291234567", "timestamp": "1700000000", "type": "text", "text": {"body": "Are you open on Sunday?"}},
          {"id": "wamid.2", "from": "85291234567", "timestamp": "1700000001", "type": "image"}
        ]
      }
    }]
  }]
}`

func TestTextMessages(t *testing.T) {
	t.Parallel()
	p, err := ParsePayload([]byte(samplePayload))
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}
	in, skipped := p.TextMessages()
	if len(in) != 1 {
		t.Fatalf("inbound = %d, want 1", len(in))
	}
	want := Inbound{MessageID: "wamid.1", From: "85291234567", Name: "Mrs Chan", Text: "Are you open on Sunday?"}
	if in[0] != want {
		t.Errorf("inbound = %+v, want %+v", in[0], want)
	}
	if len(skipped) != 1 || !strings.Contains(skipped[0].Reason, "image") {
		t.Errorf("skipped = %+v", skipped)
	}

	if _, err := ParsePayload([]byte("{")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestVerifySubscription(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		mode     string
		token    string
		expected string
		ok       bool
	}{
		{"match", "subscribe", "secret", "secret", true},
		{"wrong token", "subscribe", "guess", "secret", false},
		{"wrong mode", "unsubscribe", "secret", "secret", false},
		{"not configured", "subscribe", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			challenge, ok := VerifySubscription(tt.mode, tt.token, "42", tt.expected)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && challenge != "42" {
				t.Errorf("challenge = %q", challenge)
			}
		})
	}
}

func TestValidSignature(t *testing.T) {
	t.Parallel()
	body := []byte(`{"a":1}`)
	sig := Sign(body, "appsecret")

	if !ValidSignature(body, sig, "appsecret") {
		t.Error("own signature rejected")
	}
	if ValidSignature(body, sig, "other") {
		t.Error("signature accepted with wrong secret")
	}
	if ValidSignature([]byte(`{"a":2}`), sig, "appsecret") {
		t.Error("signature accepted for tampered body")
	}
	if ValidSignature(body, strings.TrimPrefix(sig, "sha256="), "appsecret") {
		t.Error("signature accepted without prefix")
	}
	if ValidSignature(body, "sha256=zz", "appsecret") {
		t.Error("non-hex signature accepted")
	}
}

func TestAllowed(t *testing.T) {
	t.Parallel()
	if !Allowed("852", nil) {
		t.Error("empty list should allow everyone")
	}
	if !Allowed("852", []string{"852"}) || Allowed("853", []string{"852"}) {
		t.Error("whitelist not applied")
	}
	if !Allowed("85291234567", []string{"+852 9123 4567"}) {
		t.Error("formatted whitelist entry should match the bare number")
	}
}

type recordingResponder struct {
	reply string
	err   error

	mu       sync.Mutex
	got      []Inbound
	channels []string
	sessions []string
}

func (r *recordingResponder) Respond(ctx context.Context, in Inbound) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, in)
	r.channels = append(r.channels, ctxutil.GetChannel(ctx))
	r.sessions = append(r.sessions, ctxutil.GetSessionID(ctx))
	return r.reply, r.err
}

type recordingSender struct {
	mu    sync.Mutex
	to    []string
	texts []string
}

func (s *recordingSender) SendText(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.to = append(s.to, to)
	s.texts = append(s.texts, body)
	return nil
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whatsapp_webhook", h.Verify)
	r.POST("/whatsapp_webhook", h.Handle)
	return r
}

func newTestHandler(cfg config.WhatsAppConfig, resp Responder, sender Sender) *Handler {
	return NewHandler(cfg, sender, resp, logger.NewWithWriter("error", io.Discard), WithAsyncTimeout(5*time.Second))
}

func waitFor(t *testing.T, h *Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestHandler_Verify(t *testing.T) {
	t.Parallel()
	h := newTestHandler(config.WhatsAppConfig{VerifyToken: "vt"}, &recordingResponder{}, &recordingSender{})
	r := setupRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whatsapp_webhook?hub.mode=subscribe&hub.verify_token=vt&hub.challenge=abc", nil))
	if w.Code != http.StatusOK || w.Body.String() != "abc" {
		t.Errorf("verify = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whatsapp_webhook?hub.mode=subscribe&hub.verify_token=bad&hub.challenge=abc", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("bad token status = %d, want 403", w.Code)
	}
}

func TestHandler_Handle(t *testing.T) {
	t.Parallel()
	resp := &recordingResponder{reply: "We are closed on Sundays."}
	sender := &recordingSender{}
	h := newTestHandler(config.WhatsAppConfig{AppSecret: "s"}, resp, sender)
	r := setupRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/whatsapp_webhook", strings.NewReader(samplePayload))
	req.Header.Set("X-Hub-Signature-256", Sign([]byte(samplePayload), "s"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	waitFor(t, h)

	if len(resp.got) != 1 || resp.got[0].MessageID != "wamid.1" {
		t.Fatalf("responder got %+v", resp.got)
	}
	if resp.channels[0] != ctxutil.ChannelWhatsApp || resp.sessions[0] != "85291234567" {
		t.Errorf("context channel=%s session=%s", resp.channels[0], resp.sessions[0])
	}
	if len(sender.texts) != 1 || sender.to[0] != "85291234567" || sender.texts[0] != "We are closed on Sundays." {
		t.Errorf("sent %v to %v", sender.texts, sender.to)
	}
}

func TestHandler_Rejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		cfg    config.WhatsAppConfig
		body   string
		sig    string
		status int
	}{
		{"bad signature", config.WhatsAppConfig{AppSecret: "s"}, samplePayload, "sha256=00", http.StatusUnauthorized},
		{"missing signature", config.WhatsAppConfig{AppSecret: "s"}, samplePayload, "", http.StatusUnauthorized},
		{"malformed body", config.WhatsAppConfig{}, "{", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &recordingResponder{reply: "x"}
			h := newTestHandler(tt.cfg, resp, &recordingSender{})
			req := httptest.NewRequest(http.MethodPost, "/whatsapp_webhook", strings.NewReader(tt.body))
			if tt.sig != "" {
				req.Header.Set("X-Hub-Signature-256", tt.sig)
			}
			w := httptest.NewRecorder()
			setupRouter(h).ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			waitFor(t, h)
			if len(resp.got) != 0 {
				t.Error("responder should not run")
			}
		})
	}
}

func TestHandler_SkipsNonWhitelisted(t *testing.T) {
	t.Parallel()
	resp := &recordingResponder{reply: "x"}
	h := newTestHandler(config.WhatsAppConfig{TestNumbers: []string{"85200000000"}}, resp, &recordingSender{})

	w := httptest.NewRecorder()
	setupRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/whatsapp_webhook", strings.NewReader(samplePayload)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	waitFor(t, h)
	if len(resp.got) != 0 {
		t.Errorf("responder got %+v", resp.got)
	}
}

func TestHandler_ResponderErrorSendsNothing(t *testing.T) {
	t.Parallel()
	resp := &recordingResponder{err: errors.New("boom")}
	sender := &recordingSender{}
	h := newTestHandler(config.WhatsAppConfig{}, resp, sender)

	w := httptest.NewRecorder()
	setupRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/whatsapp_webhook", strings.NewReader(samplePayload)))
	waitFor(t, h)
	if len(sender.texts) != 0 {
		t.Errorf("sent %v despite responder error", sender.texts)
	}
}
