package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	APIKey         string
	AdminJWTSecret string
	CORSOrigins    []string

	// Webhook rate limiting (requests per second per IP; 0 disables)
	WebhookRateLimit float64
	WebhookRateBurst int

	// Engagement limits
	MaxConversationTurns int
	MinConversationTurns int
	MinIntelligenceItems int

	// Detection thresholds
	KeywordCategoryThreshold int
	UrgencyScoreThreshold    int

	// Persona
	PersonaName string
	PersonaAge  int

	// Reply generation
	GeminiAPIKey      string
	GeminiModelID     string
	GeminiMaxTokens   int
	GeminiTemperature float64
	LLMTimeout        time.Duration
	BedrockModelID    string

	// Result delivery
	CallbackURL        string
	CallbackTimeout    time.Duration
	CallbackMaxRetries int
	CallbackBaseDelay  time.Duration
	FallbackLogPath    string
	UseMemoryQueue     bool
	DeliveryQueueURL   string
	DeliveryWorkers    int

	// Session store
	SessionMaxAge        time.Duration
	SessionSweepInterval time.Duration

	// Redis session mirror (optional)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Postgres report archive (optional)
	DatabaseURL string

	// Operator alerting (optional)
	AlertEmail    string
	SESFromEmail  string
	SESFromName   string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		APIKey:         getEnv("API_KEY", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "*")),

		WebhookRateLimit: getEnvAsFloat("WEBHOOK_RATE_LIMIT", 0),
		WebhookRateBurst: getEnvAsInt("WEBHOOK_RATE_BURST", 0),

		MaxConversationTurns: getEnvAsInt("MAX_CONVERSATION_TURNS", 15),
		MinConversationTurns: getEnvAsInt("MIN_CONVERSATION_TURNS", 3),
		MinIntelligenceItems: getEnvAsInt("MIN_INTELLIGENCE_ITEMS", 2),

		KeywordCategoryThreshold: getEnvAsInt("KEYWORD_CATEGORY_THRESHOLD", 2),
		UrgencyScoreThreshold:    getEnvAsInt("URGENCY_SCORE_THRESHOLD", 3),

		PersonaName: getEnv("PERSONA_NAME", "Ramesh"),
		PersonaAge:  getEnvAsInt("PERSONA_AGE", 68),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:     getEnv("GEMINI_MODEL_ID", "gemini-1.5-flash"),
		GeminiMaxTokens:   getEnvAsInt("GEMINI_MAX_TOKENS", 1024),
		GeminiTemperature: getEnvAsFloat("GEMINI_TEMPERATURE", 0.7),
		LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		BedrockModelID:    getEnv("BEDROCK_MODEL_ID", ""),

		CallbackURL:        getEnv("CALLBACK_URL", ""),
		CallbackTimeout:    getEnvAsDuration("CALLBACK_TIMEOUT", 30*time.Second),
		CallbackMaxRetries: getEnvAsInt("CALLBACK_MAX_RETRIES", 3),
		CallbackBaseDelay:  getEnvAsDuration("CALLBACK_RETRY_BASE_DELAY", 2*time.Second),
		FallbackLogPath:    getEnv("FALLBACK_LOG_PATH", "logs/failed_callbacks.jsonl"),
		UseMemoryQueue:     getEnvAsBool("USE_MEMORY_QUEUE", true),
		DeliveryQueueURL:   getEnv("DELIVERY_QUEUE_URL", ""),
		DeliveryWorkers:    getEnvAsInt("DELIVERY_WORKERS", 1),

		SessionMaxAge:        getEnvAsDuration("SESSION_MAX_AGE", time.Hour),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AlertEmail:   getEnv("ALERT_EMAIL", ""),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Honeypot Platform"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
