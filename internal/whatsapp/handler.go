package whatsapp

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
	"github.com/decoders-hk/centre-assistant-go/internal/sentry"
)

// maxWebhookBody caps the payload read from Meta.
const maxWebhookBody = 1 << 20

// Responder turns a parent message into the reply text.
type Responder interface {
	Respond(ctx context.Context, in Inbound) (string, error)
}

// Sender delivers a reply.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
}

// Handler serves the webhook endpoints. POST acknowledges immediately and
// answers each message in the background.
type Handler struct {
	verifyToken  string
	appSecret    string
	testNumbers  []string
	sender       Sender
	responder    Responder
	logger       *logger.Logger
	asyncTimeout time.Duration
	wg           sync.WaitGroup
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAsyncTimeout bounds the background handling of one message.
func WithAsyncTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.asyncTimeout = d }
}

// NewHandler builds a Handler from the WhatsApp settings.
func NewHandler(cfg config.WhatsAppConfig, sender Sender, responder Responder, log *logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		verifyToken:  cfg.VerifyToken,
		appSecret:    cfg.AppSecret,
		testNumbers:  cfg.TestNumbers,
		sender:       sender,
		responder:    responder,
		logger:       log.WithModule("whatsapp"),
		asyncTimeout: config.WebhookAsync,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Verify handles Meta's GET subscription handshake.
func (h *Handler) Verify(c *gin.Context) {
	challenge, ok := VerifySubscription(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.verifyToken,
	)
	if !ok {
		h.logger.Warn("Webhook verification failed")
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	h.logger.Info("Webhook verified")
	c.String(http.StatusOK, challenge)
}

// Handle receives message notifications.
func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.WithError(err).Error("Failed to read webhook body")
		c.Status(http.StatusBadRequest)
		return
	}

	if h.appSecret != "" && !ValidSignature(body, c.GetHeader("X-Hub-Signature-256"), h.appSecret) {
		h.logger.Warn("Invalid webhook signature")
		c.Status(http.StatusUnauthorized)
		return
	}

	payload, err := ParsePayload(body)
	if err != nil {
		h.logger.WithError(err).Warn("Malformed webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	inbound, skipped := payload.TextMessages()
	for _, s := range skipped {
		h.logger.WithField("from", s.From).WithField("reason", s.Reason).Debug("Webhook message ignored")
	}

	var accepted []Inbound
	for _, in := range inbound {
		if !Allowed(in.From, h.testNumbers) {
			h.logger.WithField("from", in.From).Warn("Message from non-whitelisted number ignored")
			continue
		}
		accepted = append(accepted, in)
	}

	// Meta retries unacknowledged notifications, so reply before the slow work.
	c.JSON(http.StatusOK, gin.H{"status": "ok", "accepted": len(accepted)})

	if len(accepted) == 0 {
		return
	}
	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async webhook processing")
			}
		}()
		for _, in := range accepted {
			h.process(in)
		}
	})
}

func (h *Handler) process(in Inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), h.asyncTimeout)
	defer cancel()

	ctx = ctxutil.WithSessionID(ctx, in.From)
	ctx = ctxutil.WithChannel(ctx, ctxutil.ChannelWhatsApp)
	if in.MessageID != "" {
		ctx = ctxutil.WithMessageID(ctx, in.MessageID)
	}

	reply, err := h.responder.Respond(ctx, in)
	if err != nil {
		h.logger.WithError(err).Error("Failed to answer WhatsApp message")
		sentry.CaptureExceptionWithContext(ctx, err)
		return
	}
	if reply == "" {
		return
	}

	if err := h.sender.SendText(ctx, in.From, reply); err != nil {
		h.logger.WithError(err).WithField("to", in.From).Error("Failed to send WhatsApp reply")
		sentry.CaptureExceptionWithContext(ctx, err)
	}
}

// Shutdown waits for background processing to finish or ctx to end.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
