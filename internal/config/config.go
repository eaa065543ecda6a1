// Package config provides configuration management for the application.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default language model fallback order.
var DefaultModelChain = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-pro"}

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion     string
	CatalogBucket string

	// Database
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBMaxConns int

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// AI
	GeminiAPIKey string
	ModelChain   []string
	LLMRetries   int
	LLMRetryWait time.Duration
	LLMTimeout   time.Duration

	// Handover
	SESSenderEmail     string
	AdviserEmails      []string
	HandoverWebhookURL string
	WhatsAppURL        string

	// Application
	Port     string
	Stage    string
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		AWSRegion:     getEnv("AWS_REGION", "ap-southeast-1"),
		CatalogBucket: getEnv("CATALOG_BUCKET", "dexter-package-catalog-dev"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBName:     getEnv("DB_NAME", "mortgage_catalog"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 10),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SessionTTL:    getEnvDuration("SESSION_TTL", 2*time.Hour),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		ModelChain:   getEnvList("GEMINI_MODEL_CHAIN", DefaultModelChain),
		LLMRetries:   getEnvInt("LLM_OVERLOAD_RETRIES", 2),
		LLMRetryWait: getEnvDuration("LLM_OVERLOAD_BACKOFF", 800*time.Millisecond),
		LLMTimeout:   getEnvDuration("LLM_TIMEOUT", 30*time.Second),

		SESSenderEmail:     getEnv("SES_SENDER_EMAIL", ""),
		AdviserEmails:      getEnvList("ADVISER_EMAILS", nil),
		HandoverWebhookURL: getEnv("HANDOVER_WEBHOOK_URL", ""),
		WhatsAppURL:        getEnv("WHATSAPP_URL", "https://wa.me/6512345678"),

		Port:     getEnv("PORT", "8080"),
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate reports settings the chat flow cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if len(c.ModelChain) == 0 {
		errs = append(errs, errors.New("GEMINI_MODEL_CHAIN must name at least one model"))
	}
	if c.LLMRetries < 0 {
		errs = append(errs, errors.New("LLM_OVERLOAD_RETRIES cannot be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	sslMode := "require"
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration parses values like "800ms" or "2h".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
