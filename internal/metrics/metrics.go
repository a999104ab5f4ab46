// Package metrics defines the Prometheus metrics exported on /metrics.
// All Record methods are safe on a nil *Metrics so components can run
// without a registry in tests and CLIs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat metrics
	ChatRequestsTotal   *prometheus.CounterVec
	ChatDurationSeconds *prometheus.HistogramVec

	// Reasoning metrics
	OpeningAnswersTotal    *prometheus.CounterVec
	IntentDecisionsTotal   *prometheus.CounterVec
	LanguageDetectionTotal *prometheus.CounterVec
	HolidayCalendarBuilds  *prometheus.CounterVec

	// Weather metrics
	WeatherLookupsTotal *prometheus.CounterVec
	WeatherBreakerState *prometheus.GaugeVec

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec
	LLMCacheHitsTotal  prometheus.Counter

	// Digest metrics
	DigestRunsTotal  *prometheus.CounterVec
	DigestItemsTotal prometheus.Counter

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// WhatsApp metrics
	WhatsAppSendsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		ChatRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_chat_requests_total",
				Help: "Total number of chat turns by channel, route and status",
			},
			[]string{"channel", "route", "status"}, // route: hours, scheduling, llm, fallback
		),

		ChatDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "centre_chat_duration_seconds",
				Help:    "Chat turn duration in seconds by route",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"route"},
		),

		OpeningAnswersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_opening_answers_total",
				Help: "Deterministic opening-hours answers by branch and language",
			},
			[]string{"branch", "lang"}, // branch: weather, holiday, closed_day, time_open, time_closed, open
		),

		IntentDecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_intent_decisions_total",
				Help: "Intent classifier decisions by intent",
			},
			[]string{"intent"},
		),

		LanguageDetectionTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_language_detections_total",
				Help: "Language resolutions by tag and source",
			},
			[]string{"lang", "source"}, // source: request, header, session, detected
		),

		HolidayCalendarBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_holiday_calendar_builds_total",
				Help: "Holiday calendar builds by provider status",
			},
			[]string{"status"}, // status: success, fallback
		),

		WeatherLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_weather_lookups_total",
				Help: "HKO weather lookups by result",
			},
			[]string{"result"}, // result: severe, clear, error
		),

		WeatherBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "centre_weather_breaker_open",
				Help: "1 when the HKO circuit breaker is in the given state",
			},
			[]string{"state"},
		),

		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_llm_requests_total",
				Help: "LLM requests by provider and status",
			},
			[]string{"provider", "status"}, // status: success, empty, error
		),

		LLMDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "centre_llm_duration_seconds",
				Help:    "LLM request duration in seconds by provider",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),

		LLMCacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "centre_llm_cache_hits_total",
				Help: "Chat answers served from the response cache",
			},
		),

		DigestRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_digest_runs_total",
				Help: "Admin digest runs by outcome",
			},
			[]string{"status"}, // status: sent, empty, skipped, error
		),

		DigestItemsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "centre_digest_items_total",
				Help: "Unanswered messages included in sent digests",
			},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: session, daily, global
		),

		WhatsAppSendsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "centre_whatsapp_sends_total",
				Help: "WhatsApp Cloud API sends by status",
			},
			[]string{"status"},
		),
	}
}

// RecordChat records one chat turn.
func (m *Metrics) RecordChat(channel, route, status string, duration float64) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(channel, route, status).Inc()
	m.ChatDurationSeconds.WithLabelValues(route).Observe(duration)
}

// RecordOpeningAnswer records which branch produced an opening-hours answer.
func (m *Metrics) RecordOpeningAnswer(branch, lang string) {
	if m == nil {
		return
	}
	m.OpeningAnswersTotal.WithLabelValues(branch, lang).Inc()
}

// RecordIntent records a classifier decision.
func (m *Metrics) RecordIntent(intent string) {
	if m == nil {
		return
	}
	m.IntentDecisionsTotal.WithLabelValues(intent).Inc()
}

// RecordLanguage records how the reply language was chosen.
func (m *Metrics) RecordLanguage(lang, source string) {
	if m == nil {
		return
	}
	m.LanguageDetectionTotal.WithLabelValues(lang, source).Inc()
}

// RecordHolidayBuild records a calendar build.
func (m *Metrics) RecordHolidayBuild(status string) {
	if m == nil {
		return
	}
	m.HolidayCalendarBuilds.WithLabelValues(status).Inc()
}

// RecordWeatherLookup records a weather lookup result.
func (m *Metrics) RecordWeatherLookup(result string) {
	if m == nil {
		return
	}
	m.WeatherLookupsTotal.WithLabelValues(result).Inc()
}

// SetWeatherBreakerState marks state as current and clears the others.
func (m *Metrics) SetWeatherBreakerState(state string) {
	if m == nil {
		return
	}
	for _, s := range []string{"closed", "half-open", "open"} {
		v := 0.0
		if s == state {
			v = 1
		}
		m.WeatherBreakerState.WithLabelValues(s).Set(v)
	}
}

// RecordLLM records a provider call.
func (m *Metrics) RecordLLM(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordLLMCacheHit records an answer served from the response cache.
func (m *Metrics) RecordLLMCacheHit() {
	if m == nil {
		return
	}
	m.LLMCacheHitsTotal.Inc()
}

// RecordDigestRun records a digest run and the number of items it carried.
func (m *Metrics) RecordDigestRun(status string, items int) {
	if m == nil {
		return
	}
	m.DigestRunsTotal.WithLabelValues(status).Inc()
	m.DigestItemsTotal.Add(float64(items))
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordWhatsAppSend records a Cloud API send.
func (m *Metrics) RecordWhatsAppSend(status string) {
	if m == nil {
		return
	}
	m.WhatsAppSendsTotal.WithLabelValues(status).Inc()
}
