package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// OAuth clients used for token refresh
	GoogleClientID        string
	GoogleClientSecret    string
	MicrosoftClientID     string
	MicrosoftClientSecret string

	// Classifier providers, tried in chain order
	GroqAPIKey          string
	GroqModel           string
	GeminiAPIKey        string
	CloudflareAPIKey    string
	CloudflareAccountID string
	AnthropicAPIKey     string
	AnthropicModel      string

	// Background work cadence
	SyncInterval       time.Duration // how stale an account may get before the sweep rescans it
	WorkerTickInterval time.Duration // one queue item is processed per tick
	SchedulerEnabled   bool
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	syncInterval := 6 * time.Hour
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			syncInterval = parsed
		}
	}

	workerTick := 15 * time.Second
	if v := os.Getenv("WORKER_TICK_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			workerTick = parsed
		}
	}

	schedulerEnabled := true
	if v := os.Getenv("SCHEDULER_ENABLED"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			schedulerEnabled = parsed
		}
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "mailsub"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		MicrosoftClientID:     getEnv("MICROSOFT_CLIENT_ID", ""),
		MicrosoftClientSecret: getEnv("MICROSOFT_CLIENT_SECRET", ""),

		GroqAPIKey:          getEnv("GROQ_API_KEY", ""),
		GroqModel:           getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		CloudflareAPIKey:    getEnv("CLOUDFLARE_API_KEY", ""),
		CloudflareAccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:      getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),

		SyncInterval:       syncInterval,
		WorkerTickInterval: workerTick,
		SchedulerEnabled:   schedulerEnabled,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
