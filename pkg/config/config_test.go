package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears a variable for the duration of the test.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unset(t, "APP_ENV", "PORT", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "MAX_BODY_BYTES", "NATS_QUEUE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(10485760), cfg.Server.MaxBodyBytes)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, "notify", cfg.NATS.Queue)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("production needs a secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		unset(t, "JWT_SECRET")
		_, err := Load()
		assert.EqualError(t, err, "JWT_SECRET must be set in production")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("ACCESS_TOKEN_TTL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "parse env")
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		t.Setenv("REFRESH_TOKEN_TTL", "0s")
		_, err := Load()
		assert.EqualError(t, err, "token TTLs must be positive")
	})
}
