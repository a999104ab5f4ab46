package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/decoders-hk/centre-assistant-go/internal/buildinfo"
	"github.com/decoders-hk/centre-assistant-go/internal/chat"
	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/intent"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
	"github.com/decoders-hk/centre-assistant-go/internal/openinghours"
	"github.com/decoders-hk/centre-assistant-go/internal/sentry"
)

// chatRequest is the POST /chat body.
type chatRequest struct {
	Message   string `json:"message"`
	Language  string `json:"language,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"release": buildinfo.Release(),
	})
}

// readinessCheck reports ready once the history store answers a ping.
func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := a.history.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: history store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "history store unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"features": gin.H{
			"opening_hours": a.cfg.OpeningHoursEnabled,
			"llm":           a.cfg.HasLLMProvider(),
			"whatsapp":      a.cfg.WhatsApp.Enabled(),
			"digest":        a.digest != nil,
		},
	})
}

// handleChat serves one web chat turn.
func (a *Application) handleChat(c *gin.Context) {
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ChatProcessing)
	defer cancel()
	ctx = ctxutil.WithChannel(ctx, ctxutil.ChannelWeb)

	resp, err := a.chat.Handle(ctx, chat.Request{
		Message:        body.Message,
		Language:       body.Language,
		SessionID:      body.SessionID,
		AcceptLanguage: c.GetHeader("Accept-Language"),
		Debug:          debugRequested(c),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case apperrors.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDailyLimitExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"answer": chat.DailyLimited(resp.Lang), "lang": resp.Lang})
	case errors.Is(err, apperrors.ErrRateLimitExceeded):
		c.Header("Retry-After", "5")
		c.JSON(http.StatusTooManyRequests, gin.H{"answer": chat.RateLimited(resp.Lang), "lang": resp.Lang})
	default:
		a.logger.WithError(err).Error("Chat turn failed")
		sentry.CaptureExceptionWithContext(ctx, err)
		c.JSON(http.StatusInternalServerError, gin.H{"answer": chat.Unavailable(resp.Lang), "lang": resp.Lang})
	}
}

// handleOpeningHours runs the opening-hours engine directly and returns the
// facts behind the answer.
func (a *Application) handleOpeningHours(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q"})
		return
	}
	tag := lang.Normalize(c.Query("lang"))
	if c.Query("lang") == "" {
		tag = lang.Detect(q, c.GetHeader("Accept-Language"))
	}

	answer, facts, branch := a.hours.Answer(c.Request.Context(), q, tag, openinghours.Options{
		IsGeneral: intent.IsGeneralHoursQuery(q, tag),
	})
	c.JSON(http.StatusOK, gin.H{
		"answer": answer,
		"lang":   tag,
		"branch": branch,
		"facts":  facts,
	})
}

func debugRequested(c *gin.Context) bool {
	switch c.Query("debug") {
	case "1", "true", "yes":
		return true
	}
	return false
}
