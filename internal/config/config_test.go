package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mortgage-qualification-engine/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_MODEL_CHAIN", "")
	t.Setenv("LLM_OVERLOAD_BACKOFF", "")
	t.Setenv("WHATSAPP_URL", "")
	t.Setenv("DB_HOST", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultModelChain, cfg.ModelChain)
	assert.Equal(t, 2, cfg.LLMRetries)
	assert.Equal(t, 800*time.Millisecond, cfg.LLMRetryWait)
	assert.Equal(t, "https://wa.me/6512345678", cfg.WhatsAppURL)
	assert.Equal(t, "localhost", cfg.DBHost)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_MODEL_CHAIN", "gemini-2.0-flash, ,gemini-1.5-pro")
	t.Setenv("LLM_OVERLOAD_RETRIES", "4")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("ADVISER_EMAILS", "a@loanconnection.sg,b@loanconnection.sg")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, cfg.ModelChain)
	assert.Equal(t, 4, cfg.LLMRetries)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"a@loanconnection.sg", "b@loanconnection.sg"}, cfg.AdviserEmails)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{
		GeminiAPIKey: "key",
		ModelChain:   config.DefaultModelChain,
		LLMRetries:   2,
		SessionTTL:   time.Hour,
	}
	assert.NoError(t, cfg.Validate())

	cfg.GeminiAPIKey = ""
	cfg.SessionTTL = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Contains(t, err.Error(), "SESSION_TTL")
}

func TestDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	local := &config.Config{DBHost: "localhost", DBPort: 5432, DBName: "mortgage_catalog", DBUser: "postgres", DBPassword: "pw"}
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/mortgage_catalog?sslmode=disable", local.DatabaseURL())

	remote := &config.Config{DBHost: "db.internal", DBPort: 5433, DBName: "catalog", DBUser: "app", DBPassword: "pw"}
	assert.Equal(t, "postgres://app:pw@db.internal:5433/catalog?sslmode=require", remote.DatabaseURL())

	t.Setenv("DATABASE_URL", "postgres://override")
	assert.Equal(t, "postgres://override", remote.DatabaseURL())
}
