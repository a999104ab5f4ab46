// Package config loads application settings from the environment.
// A .env file is read first when present; real environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/decoders-hk/centre-assistant-go/internal/stringutil"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode validates settings for the HTTP server.
	ServerMode ValidationMode = iota
	// DigestMode validates settings for a one-shot digest send.
	DigestMode
)

// History backends.
const (
	HistorySQLite = "sqlite"
	HistoryMemory = "memory"
)

// LLM provider names.
const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	DataDir         string

	// Features
	OpeningHoursEnabled bool
	WeatherSevereOnly   bool
	LangSessionTTL      time.Duration

	HKO         HKOConfig
	LLM         LLMConfig
	AWS         AWSConfig
	History     HistoryConfig
	Digest      DigestConfig
	WhatsApp    WhatsAppConfig
	RateLimit   RateLimitConfig
	Sentry      SentryConfig
	BetterStack BetterStackConfig

	// Metrics Authentication
	MetricsUsername string // Basic Auth user for /metrics (default: "prometheus")
	MetricsPassword string // empty disables auth
}

// HKOConfig configures the Observatory client.
type HKOConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// LLMConfig configures the answerers. Providers are tried in order.
type LLMConfig struct {
	Providers        []string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	ResponseCacheTTL time.Duration
	Timeout          time.Duration

	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	BedrockModelID string
}

// AWSConfig is shared by DynamoDB, S3 and Bedrock. Empty keys fall back to
// the default credential chain.
type AWSConfig struct {
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	DynamoDBEndpoint string
	S3Endpoint       string
}

// HistoryConfig configures chat history persistence.
type HistoryConfig struct {
	Backend string
	Keep    int
}

// DigestConfig configures the daily admin digest.
type DigestConfig struct {
	Enabled        bool
	Table          string
	Hour           int
	Minute         int
	DirectorNumber string
	MaxItems       int
	StateBucket    string // empty keeps the sent-state in memory
	StatePrefix    string
}

// WhatsAppConfig configures the Cloud API client and webhook.
type WhatsAppConfig struct {
	Token         string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string // empty skips signature verification
	GraphVersion  string
	TestNumbers   []string
}

// Enabled reports whether outbound WhatsApp messages can be sent.
func (w WhatsAppConfig) Enabled() bool {
	return w.Token != "" && w.PhoneNumberID != ""
}

// RateLimitConfig holds the per-session token bucket and the global cap.
type RateLimitConfig struct {
	SessionBurst     float64 // Maximum burst tokens per session (default: 10)
	SessionRefillSec float64 // Tokens refilled per second (default: 0.2 = 1 per 5s)
	SessionDaily     int     // Maximum messages per session per day (0 = disabled)
	GlobalRPS        float64
}

// SentryConfig configures error reporting. An empty DSN disables it.
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// Enabled reports whether Sentry is configured.
func (s SentryConfig) Enabled() bool { return s.DSN != "" }

// BetterStackConfig configures log shipping. An empty token disables it.
type BetterStackConfig struct {
	Token    string
	Endpoint string
}

// Enabled reports whether Better Stack is configured.
func (b BetterStackConfig) Enabled() bool { return b.Token != "" }

// Load reads configuration for the server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from the environment and validates it for
// mode. It attempts to load a .env file first.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	dataDir := getEnv(EnvDataDir, getDefaultDataDir())
	cfg := &Config{
		Port:            getEnv(EnvPort, "8000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		DataDir:         dataDir,

		OpeningHoursEnabled: getBoolEnv(EnvOpeningHoursEnabled, true),
		WeatherSevereOnly:   getBoolEnv(EnvWeatherSevereOnly, true),
		LangSessionTTL:      getDurationEnv(EnvLangSessionTTL, time.Hour),

		HKO: HKOConfig{
			BaseURL:  getEnv(EnvHKOBaseURL, "https://data.weather.gov.hk/weatherAPI/opendata/weather.php"),
			Timeout:  getDurationEnv(EnvHKOTimeout, HKORequest),
			CacheTTL: getDurationEnv(EnvHKOCacheTTL, HKOCacheTTL),
		},

		LLM: LLMConfig{
			Providers:        getListEnv(EnvLLMProviders, []string{ProviderGemini, ProviderOpenAI}),
			MaxTokens:        getIntEnv(EnvLLMMaxTokens, 300),
			Temperature:      getFloatEnv(EnvLLMTemperature, 0.15),
			TopP:             getFloatEnv(EnvLLMTopP, 0.9),
			ResponseCacheTTL: getDurationEnv(EnvLLMResponseCacheTTL, LLMResponseCacheTTL),
			Timeout:          getDurationEnv(EnvLLMTimeout, LLMRequest),
			GeminiAPIKey:     getEnv(EnvGeminiAPIKey, ""),
			GeminiModel:      getEnv(EnvGeminiModel, "gemini-2.5-flash"),
			OpenAIAPIKey:     getEnv(EnvOpenAIAPIKey, ""),
			OpenAIBaseURL:    getEnv(EnvOpenAIBaseURL, ""),
			OpenAIModel:      getEnv(EnvOpenAIModel, "gpt-4o-mini"),
			BedrockModelID:   getEnv(EnvBedrockModelID, ""),
		},

		AWS: AWSConfig{
			Region:           getEnv(EnvAWSRegion, "ap-northeast-1"),
			AccessKeyID:      getEnv(EnvAWSAccessKeyID, ""),
			SecretAccessKey:  getEnv(EnvAWSSecretAccessKey, ""),
			DynamoDBEndpoint: getEnv(EnvDynamoDBEndpoint, ""),
			S3Endpoint:       getEnv(EnvS3Endpoint, ""),
		},

		History: HistoryConfig{
			Backend: strings.ToLower(getEnv(EnvHistoryBackend, HistorySQLite)),
			Keep:    getIntEnv(EnvHistoryKeep, DefaultHistoryKeep),
		},

		Digest: DigestConfig{
			Enabled:        getBoolEnv(EnvDigestEnabled, false),
			Table:          getEnv(EnvDigestTable, "AdminDigestPending"),
			Hour:           getIntEnv(EnvDigestHour, 19),
			Minute:         getIntEnv(EnvDigestMinute, 0),
			DirectorNumber: getEnv(EnvDigestDirectorNumber, ""),
			MaxItems:       getIntEnv(EnvDigestMaxItems, DefaultDigestMaxItems),
			StateBucket:    getEnv(EnvDigestStateBucket, ""),
			StatePrefix:    getEnv(EnvDigestStatePrefix, "admin-digest/"),
		},

		WhatsApp: WhatsAppConfig{
			Token:         getEnv(EnvWhatsAppToken, ""),
			PhoneNumberID: getEnv(EnvWhatsAppPhoneNumberID, ""),
			VerifyToken:   getEnv(EnvWhatsAppVerifyToken, ""),
			AppSecret:     getEnv(EnvWhatsAppAppSecret, ""),
			GraphVersion:  getEnv(EnvWhatsAppGraphVersion, "v18.0"),
			TestNumbers:   getListEnv(EnvWhatsAppTestNumbers, nil),
		},

		RateLimit: RateLimitConfig{
			SessionBurst:     getFloatEnv(EnvSessionRateBurst, 10.0),
			SessionRefillSec: getFloatEnv(EnvSessionRateRefill, 0.2),
			SessionDaily:     getIntEnv(EnvSessionDailyLimit, 200),
			GlobalRPS:        getFloatEnv(EnvGlobalRateRPS, 50.0),
		},

		Sentry: SentryConfig{
			DSN:              getEnv(EnvSentryDSN, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0.0),
		},

		BetterStack: BetterStackConfig{
			Token:    getEnv(EnvBetterStackToken, ""),
			Endpoint: getEnv(EnvBetterStackEndpoint, ""),
		},

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks the configuration. All problems are reported
// together.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.HKO.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvHKOTimeout, c.HKO.Timeout))
	}
	if c.HKO.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvHKOCacheTTL, c.HKO.CacheTTL))
	}
	for _, p := range c.LLM.Providers {
		if !slices.Contains([]string{ProviderGemini, ProviderOpenAI, ProviderBedrock}, p) {
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvLLMProviders, p))
		}
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvLLMMaxTokens, c.LLM.MaxTokens))
	}
	if c.History.Backend != HistorySQLite && c.History.Backend != HistoryMemory {
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", EnvHistoryBackend, HistorySQLite, HistoryMemory, c.History.Backend))
	}
	if c.History.Keep < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvHistoryKeep, c.History.Keep))
	}
	if c.Digest.Hour < 0 || c.Digest.Hour > 23 || c.Digest.Minute < 0 || c.Digest.Minute > 59 {
		errs = append(errs, fmt.Errorf("digest time %02d:%02d is not a valid clock time", c.Digest.Hour, c.Digest.Minute))
	}
	if c.WhatsApp.Token != "" && c.WhatsApp.PhoneNumberID == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvWhatsAppPhoneNumberID, EnvWhatsAppToken))
	}
	if c.RateLimit.SessionBurst <= 0 || c.RateLimit.SessionRefillSec <= 0 {
		errs = append(errs, errors.New("session rate limit burst and refill must be positive"))
	}

	if c.Digest.Enabled || mode == DigestMode {
		if c.Digest.Table == "" {
			errs = append(errs, fmt.Errorf("%s is required for the admin digest", EnvDigestTable))
		}
		if c.Digest.DirectorNumber == "" {
			errs = append(errs, fmt.Errorf("%s is required for the admin digest", EnvDigestDirectorNumber))
		} else if !stringutil.IsPhoneNumber(c.Digest.DirectorNumber) {
			errs = append(errs, fmt.Errorf("%s is not a phone number: %q", EnvDigestDirectorNumber, c.Digest.DirectorNumber))
		}
		if !c.WhatsApp.Enabled() {
			errs = append(errs, fmt.Errorf("%s and %s are required for the admin digest", EnvWhatsAppToken, EnvWhatsAppPhoneNumberID))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HasLLMProvider returns true if at least one configured provider has
// credentials.
func (c *Config) HasLLMProvider() bool {
	for _, p := range c.LLM.Providers {
		switch p {
		case ProviderGemini:
			if c.LLM.GeminiAPIKey != "" {
				return true
			}
		case ProviderOpenAI:
			if c.LLM.OpenAIAPIKey != "" {
				return true
			}
		case ProviderBedrock:
			if c.LLM.BedrockModelID != "" {
				return true
			}
		}
	}
	return false
}

// SQLitePath returns the full path to the chat history database file.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv accepts 1/true/yes/on and 0/false/no/off.
func getBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getListEnv splits a comma-separated variable, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
