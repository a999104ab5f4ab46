package app

import (
	"crypto/subtle"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/decoders-hk/centre-assistant-go/internal/ctxutil"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
	"github.com/decoders-hk/centre-assistant-go/internal/ratelimit"
)

const requestIDHeader = "X-Request-Id"

// sentryMiddleware attaches a Sentry hub to every request and reports panics
// before gin.Recovery turns them into a 500.
func sentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	})
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// requestIDMiddleware reuses an inbound request or correlation ID, or mints
// one, and echoes it back.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-Id")
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx as errors, other 4xx as warnings, 404 and successes at debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())
		if requestID, ok := ctxutil.GetRequestID(c.Request.Context()); ok {
			entry = entry.WithRequestID(requestID)
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status == http.StatusNotFound:
			entry.Debug("HTTP request not found")
		case status >= 400:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}

// globalLimitMiddleware sheds load above the process-wide request rate.
func globalLimitMiddleware(l *ratelimit.Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l != nil && !l.Allow() {
			m.RecordRateLimiterDrop("global")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// metricsAuthMiddleware guards /metrics with Basic Auth. An empty password
// leaves the endpoint open.
func metricsAuthMiddleware(username, password string) gin.HandlerFunc {
	if password == "" {
		return func(c *gin.Context) { c.Next() }
	}
	wantUser, wantPass := []byte(username), []byte(password)
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		// Evaluate both comparisons so timing does not reveal which one failed.
		userOK := subtle.ConstantTimeCompare([]byte(user), wantUser)
		passOK := subtle.ConstantTimeCompare([]byte(pass), wantPass)
		if !ok || userOK&passOK != 1 {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
