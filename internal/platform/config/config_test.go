package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("FORM_TOKEN_SECRET", "")
	t.Setenv("TURNSTILE_SECRET_KEY", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, int64(500*1024), cfg.Server.MaxRequestBytes)
	assert.Equal(t, 100, cfg.Throttle.SubmitLimit, "non-production raises the submission cap")
	assert.Equal(t, time.Hour, cfg.Throttle.SubmitWindow)
	assert.Equal(t, 30*time.Minute, cfg.Throttle.EmailCooldown)
	assert.Equal(t, 10, cfg.Throttle.SuspiciousLimit)
	assert.Equal(t, 10*time.Second, cfg.Guard.MinDwell)
	assert.True(t, cfg.Guard.UsingDevSecret)
	assert.False(t, cfg.Guard.EnforceTokenIP)
	assert.True(t, cfg.ObjectStore.InlineImageFallback)
}

func TestFromEnvProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", EnvProduction)
	t.Setenv("FORM_TOKEN_SECRET", "")
	t.Setenv("TURNSTILE_SECRET_KEY", "ts-secret")
	t.Setenv("SUBMIT_RATE_LIMIT", "")

	cfg := FromEnv()

	assert.Equal(t, 5, cfg.Throttle.SubmitLimit)
	assert.Equal(t, "ts-secret", cfg.Guard.FormTokenSecret, "falls back to the turnstile secret")
	assert.False(t, cfg.Guard.UsingDevSecret)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SUBMIT_RATE_LIMIT", "7")
	t.Setenv("EMAIL_COOLDOWN", "45m")
	t.Setenv("FORM_TOKEN_ENFORCE_IP", "true")
	t.Setenv("BASE_URL", "https://apply.example.org/")
	t.Setenv("SUSPICIOUS_THRESHOLD", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, 7, cfg.Throttle.SubmitLimit)
	assert.Equal(t, 45*time.Minute, cfg.Throttle.EmailCooldown)
	assert.True(t, cfg.Guard.EnforceTokenIP)
	assert.Equal(t, "https://apply.example.org", cfg.Server.BaseURL)
	assert.Equal(t, 10, cfg.Throttle.SuspiciousLimit, "unparseable values keep the default")
}

func TestValidate(t *testing.T) {
	t.Setenv("FORM_TOKEN_SECRET", "s")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("THROTTLE_BACKEND", "")
	t.Setenv("OBJECT_STORE", "")
	base := func() Config {
		return FromEnv()
	}

	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("postgres driver needs database url", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Driver = DriverPostgres
		cfg.Storage.DatabaseURL = ""
		require.ErrorContains(t, cfg.Validate(), "DATABASE_URL")
	})

	t.Run("redis backend needs redis url", func(t *testing.T) {
		cfg := base()
		cfg.Throttle.Backend = BackendRedis
		cfg.Redis.URL = ""
		require.ErrorContains(t, cfg.Validate(), "REDIS_URL")
	})

	t.Run("supabase needs credentials", func(t *testing.T) {
		cfg := base()
		cfg.ObjectStore.Driver = ObjectStoreSupabase
		require.ErrorContains(t, cfg.Validate(), "SUPABASE_URL")
	})

	t.Run("production refuses dev secret", func(t *testing.T) {
		cfg := base()
		cfg.Server.Environment = EnvProduction
		cfg.Guard.UsingDevSecret = true
		require.ErrorContains(t, cfg.Validate(), "FORM_TOKEN_SECRET")
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Driver = "mongo"
		require.ErrorContains(t, cfg.Validate(), "STORAGE_DRIVER")
	})
}
