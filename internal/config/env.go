package config

// Environment variable keys.
//
//nolint:gosec,revive // Keys, not credentials.
const (
	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvDataDir         = "DATA_DIR"

	// Features
	EnvOpeningHoursEnabled = "OPENING_HOURS_ENABLED"
	EnvWeatherSevereOnly   = "WEATHER_SEVERE_ONLY"
	EnvLangSessionTTL      = "LANG_SESSION_TTL"

	// HKO
	EnvHKOBaseURL  = "HKO_BASE_URL"
	EnvHKOTimeout  = "HKO_HTTP_TIMEOUT"
	EnvHKOCacheTTL = "HKO_CACHE_TTL"

	// LLM
	EnvLLMProviders        = "LLM_PROVIDERS"
	EnvLLMMaxTokens        = "LLM_MAX_TOKENS"
	EnvLLMTemperature      = "LLM_TEMPERATURE"
	EnvLLMTopP             = "LLM_TOP_P"
	EnvLLMResponseCacheTTL = "LLM_RESPONSE_CACHE_TTL"
	EnvLLMTimeout          = "LLM_TIMEOUT"
	EnvGeminiAPIKey        = "GEMINI_API_KEY"
	EnvGeminiModel         = "GEMINI_MODEL"
	EnvOpenAIAPIKey        = "OPENAI_API_KEY"
	EnvOpenAIBaseURL       = "OPENAI_BASE_URL"
	EnvOpenAIModel         = "OPENAI_MODEL"
	EnvBedrockModelID      = "BEDROCK_MODEL_ID"

	// AWS
	EnvAWSRegion          = "AWS_REGION"
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvDynamoDBEndpoint   = "DYNAMODB_ENDPOINT"
	EnvS3Endpoint         = "S3_ENDPOINT"

	// Chat history
	EnvHistoryBackend = "HISTORY_BACKEND"
	EnvHistoryKeep    = "HISTORY_KEEP"

	// Admin digest
	EnvDigestEnabled        = "ADMIN_DIGEST_ENABLED"
	EnvDigestTable          = "ADMIN_DIGEST_TABLE"
	EnvDigestHour           = "ADMIN_DIGEST_HOUR"
	EnvDigestMinute         = "ADMIN_DIGEST_MINUTE"
	EnvDigestDirectorNumber = "ADMIN_DIGEST_DIRECTOR_NUMBER"
	EnvDigestMaxItems       = "ADMIN_DIGEST_MAX_ITEMS"
	EnvDigestStateBucket    = "ADMIN_DIGEST_STATE_BUCKET"
	EnvDigestStatePrefix    = "ADMIN_DIGEST_STATE_PREFIX"

	// WhatsApp
	EnvWhatsAppToken         = "WHATSAPP_TOKEN"
	EnvWhatsAppPhoneNumberID = "WHATSAPP_PHONE_NUMBER_ID"
	EnvWhatsAppVerifyToken   = "WHATSAPP_VERIFY_TOKEN"
	EnvWhatsAppAppSecret     = "WHATSAPP_APP_SECRET"
	EnvWhatsAppGraphVersion  = "WHATSAPP_GRAPH_VERSION"
	EnvWhatsAppTestNumbers   = "WHATSAPP_TEST_NUMBERS"

	// Rate limits
	EnvSessionRateBurst  = "SESSION_RATE_BURST"
	EnvSessionRateRefill = "SESSION_RATE_REFILL"
	EnvSessionDailyLimit = "SESSION_DAILY_LIMIT"
	EnvGlobalRateRPS     = "GLOBAL_RATE_RPS"

	// Sentry
	EnvSentryDSN              = "SENTRY_DSN"
	EnvSentryEnvironment      = "SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "SENTRY_RELEASE"
	EnvSentrySampleRate       = "SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Metrics auth
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)
