package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:      "secret",
		BPMSBaseURL:    "http://bpms.internal",
		RateLimitStore: RateLimitStoreMemory,
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("missing JWT secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingSecret)
	})

	t.Run("missing BPMS URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.BPMSBaseURL = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingBPMSURL)
	})

	t.Run("backdoor without hash in production", func(t *testing.T) {
		cfg := validConfig()
		cfg.BackdoorEnabled = true
		cfg.IsProduction = true
		assert.ErrorIs(t, cfg.Validate(), ErrBackdoorUnprotected)
	})

	t.Run("backdoor without hash in development", func(t *testing.T) {
		cfg := validConfig()
		cfg.BackdoorEnabled = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("backdoor with hash in production", func(t *testing.T) {
		cfg := validConfig()
		cfg.BackdoorEnabled = true
		cfg.IsProduction = true
		cfg.BackdoorPasswordHash = "$2a$10$something"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown rate limit store", func(t *testing.T) {
		cfg := validConfig()
		cfg.RateLimitStore = "memcached"
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiration)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenExpiration)
	assert.Equal(t, 1, cfg.ResolverMaxRetries)
	assert.Equal(t, "A0001", cfg.EntitlementRole)
	assert.Equal(t, "All", cfg.EntitlementStatus)
	assert.Equal(t, 10, cfg.EntitlementPageSize)
	assert.False(t, cfg.BackdoorEnabled)
	assert.Equal(t, RateLimitStoreMemory, cfg.RateLimitStore)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ACCESS_TOKEN_EXPIRATION", "5m")
	t.Setenv("BACKDOOR_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.True(t, cfg.IsProduction)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpiration)
	assert.True(t, cfg.BackdoorEnabled)
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("go duration syntax", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "90s")
		assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Minute))
	})

	t.Run("bare seconds", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "900")
		assert.Equal(t, 900*time.Second, getEnvDuration("TEST_DURATION", time.Minute))
	})

	t.Run("unset falls back", func(t *testing.T) {
		assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION_UNSET", time.Minute))
	})

	t.Run("garbage falls back", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "soon")
		assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION", time.Minute))
	})
}
