// Package app wires the centre assistant together and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/decoders-hk/centre-assistant-go/internal/awsclient"
	"github.com/decoders-hk/centre-assistant-go/internal/buildinfo"
	"github.com/decoders-hk/centre-assistant-go/internal/chat"
	"github.com/decoders-hk/centre-assistant-go/internal/config"
	"github.com/decoders-hk/centre-assistant-go/internal/digest"
	"github.com/decoders-hk/centre-assistant-go/internal/history"
	"github.com/decoders-hk/centre-assistant-go/internal/holiday"
	"github.com/decoders-hk/centre-assistant-go/internal/lang"
	"github.com/decoders-hk/centre-assistant-go/internal/llm"
	"github.com/decoders-hk/centre-assistant-go/internal/logger"
	"github.com/decoders-hk/centre-assistant-go/internal/metrics"
	"github.com/decoders-hk/centre-assistant-go/internal/openinghours"
	"github.com/decoders-hk/centre-assistant-go/internal/ratelimit"
	"github.com/decoders-hk/centre-assistant-go/internal/sentry"
	"github.com/decoders-hk/centre-assistant-go/internal/weather"
	"github.com/decoders-hk/centre-assistant-go/internal/whatsapp"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry

	history   history.Store
	holidays  *holiday.Resolver
	hours     *openinghours.Service
	weather   weatherPrefetcher
	chat      *chat.Router
	whatsapp  *whatsapp.Handler
	digest    *digest.Service
	sessions  *lang.SessionMemory
	limiter   *ratelimit.SessionLimiter
	global    *ratelimit.Limiter
	server    *http.Server
	wg        sync.WaitGroup // background jobs
	closeOnce sync.Once
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStack.Token,
		BetterStackEndpoint: cfg.BetterStack.Endpoint,
	})
	log = log.WithField("service", "centre-assistant-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}
	// Package-level slog.*Context calls pick up session_id, channel and
	// request_id through the ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithField("release", buildinfo.Release()).Info("Initializing application...")
	if cfg.BetterStack.Enabled() {
		log.Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          releaseOr(cfg.Sentry.Release),
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "centre_log_records_dropped_total",
			Help: "Log records the Better Stack shipper discarded",
		}, func() float64 { return float64(log.DroppedRecords()) }),
	)
	m := metrics.New(registry)

	store, err := history.Open(ctx, cfg.History.Backend, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	log.WithField("backend", cfg.History.Backend).Info("Chat history store ready")

	holidays := NewHolidayResolver(log, m)
	weatherClient := weather.New(
		weather.WithBaseURL(cfg.HKO.BaseURL),
		weather.WithTimeout(cfg.HKO.Timeout),
		weather.WithCacheTTL(cfg.HKO.CacheTTL),
		weather.WithSevereOnly(cfg.WeatherSevereOnly),
		weather.WithLogger(log),
		weather.WithLookupHook(m.RecordWeatherLookup),
		weather.WithBreakerStateHook(m.SetWeatherBreakerState),
	)
	hours, err := openinghours.NewService(openinghours.DefaultTable(), holidays, weatherClient,
		openinghours.WithAnswerHook(func(branch string, tag lang.Tag) {
			m.RecordOpeningAnswer(branch, tag.String())
		}),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("opening hours: %w", err)
	}

	var awsCfg *aws.Config
	if needsAWS(cfg) {
		loaded, err := awsclient.Load(ctx, awsclient.Options{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		awsCfg = &loaded
	}

	answerer, err := llm.New(ctx, cfg.LLM, awsCfg, m)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("llm: %w", err)
	}

	waClient := whatsapp.NewClient(cfg.WhatsApp,
		whatsapp.WithLimiter(ratelimit.New(whatsappBurst, whatsappRate)),
		whatsapp.WithMetrics(m),
	)

	var digestSvc *digest.Service
	var pending chat.Pending
	if cfg.Digest.Enabled {
		digestSvc, err = NewDigestService(ctx, cfg, awsCfg, waClient, holidays, m, log)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		pending = digestSvc.Store()
		log.WithField("time", fmt.Sprintf("%02d:%02d", cfg.Digest.Hour, cfg.Digest.Minute)).Info("Admin digest enabled")
	}

	sessions := lang.NewSessionMemory(cfg.LangSessionTTL, config.SessionCleanupInterval)
	limiter := ratelimit.NewSessionLimiter(ratelimit.SessionConfig{
		Burst:         cfg.RateLimit.SessionBurst,
		RefillRate:    cfg.RateLimit.SessionRefillSec,
		DailyLimit:    cfg.RateLimit.SessionDaily,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	router := chat.NewRouter(chat.Config{
		OpeningHoursEnabled: cfg.OpeningHoursEnabled,
		HistoryKeep:         cfg.History.Keep,
	}, chat.Deps{
		Hours:    hours,
		LLM:      answerer,
		History:  store,
		Pending:  pending,
		Limiter:  limiter,
		Sessions: sessions,
		Metrics:  m,
		Logger:   log,
	})

	app := &Application{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		registry: registry,
		history:  store,
		holidays: holidays,
		hours:    hours,
		weather:  weatherClient,
		chat:     router,
		whatsapp: whatsapp.NewHandler(cfg.WhatsApp, waClient, router, log),
		digest:   digestSvc,
		sessions: sessions,
		limiter:  limiter,
		global:   ratelimit.New(cfg.RateLimit.GlobalRPS, cfg.RateLimit.GlobalRPS),
	}
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.WithField("llm_enabled", answerer.Enabled()).
		WithField("whatsapp_enabled", cfg.WhatsApp.Enabled()).
		Info("Initialization complete")
	return app, nil
}

// Cloud API pacing for outbound messages.
const (
	whatsappBurst = 20
	whatsappRate  = 20
)

func needsAWS(cfg *config.Config) bool {
	if cfg.Digest.Enabled {
		return true
	}
	for _, p := range cfg.LLM.Providers {
		if p == config.ProviderBedrock && cfg.LLM.BedrockModelID != "" {
			return true
		}
	}
	return false
}

func releaseOr(release string) string {
	if release != "" {
		return release
	}
	return buildinfo.Release()
}

// NewHolidayResolver builds the Hong Kong holiday resolver with build metrics.
func NewHolidayResolver(log *logger.Logger, m *metrics.Metrics) *holiday.Resolver {
	return holiday.NewResolver(holiday.NewHKProvider(),
		holiday.WithLogger(log),
		holiday.WithBuildHook(func(source string, _ time.Duration) {
			m.RecordHolidayBuild(source)
		}),
	)
}

// routes builds the gin engine.
func (a *Application) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if sentry.IsEnabled() {
		r.Use(sentryMiddleware())
	}
	r.Use(securityHeadersMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware(a.logger))

	r.GET("/livez", a.livenessCheck)
	r.HEAD("/livez", a.livenessCheck)
	r.GET("/readyz", a.readinessCheck)
	r.HEAD("/readyz", a.readinessCheck)

	limited := globalLimitMiddleware(a.global, a.metrics)
	r.POST("/chat", limited, a.handleChat)
	r.GET("/opening-hours", limited, a.handleOpeningHours)
	for _, path := range []string{"/whatsapp_webhook", "/whatsapp_webhook/"} {
		r.GET(path, a.whatsapp.Verify)
		r.POST(path, limited, a.whatsapp.Handle)
	}

	r.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return r
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT or SIGTERM.
//
// Background jobs are stopped and awaited before resources are closed so a
// running digest or cleanup never sees a closed store.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.shutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	cancel()
	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).Info("All background jobs completed")

	return a.shutdown()
}

func (a *Application) startHTTPServer() <-chan error {
	errc := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	return errc
}

func (a *Application) shutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops the server, drains webhook work and closes resources.
func (a *Application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for webhook messages to complete...")
	if err := a.whatsapp.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
	}

	a.Close()

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}
	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(ctx); err != nil {
		return fmt.Errorf("logger shutdown: %w", err)
	}
	return nil
}

// Close releases stores and stops cleanup loops. It is safe to call twice.
func (a *Application) Close() {
	a.closeOnce.Do(func() {
		if a.limiter != nil {
			a.limiter.Stop()
		}
		if a.sessions != nil {
			a.sessions.Stop()
		}
		if a.history != nil {
			if err := a.history.Close(); err != nil {
				a.logger.WithError(err).WithField("component", "history").Error("Component close error")
			}
		}
	})
}
