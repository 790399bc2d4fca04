package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10, cfg.MaxConcurrent)
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.BackoffInitial)
	assert.Equal(t, 5*time.Second, cfg.BackoffMax)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.True(t, cfg.IncludeFailures)
	assert.Zero(t, cfg.CollectInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("MAX_CONCURRENT", "3")
	t.Setenv("MAX_ATTEMPTS", "7")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("BACKOFF_INITIAL", "100ms")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("OUTPUT_INCLUDE_FAILURES", "false")
	t.Setenv("COLLECT_INTERVAL", "15m")
	t.Setenv("GEO_BASE_URL", "http://localhost:9090/geo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Equal(t, 7, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.BackoffInitial)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.False(t, cfg.IncludeFailures)
	assert.Equal(t, 15*time.Minute, cfg.CollectInterval)
	assert.Equal(t, "http://localhost:9090/geo", cfg.GeoBaseURL)
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("HTTP_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestLoadIgnoresUnparsableNumbers(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
	t.Setenv("MAX_CONCURRENT", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxConcurrent)
}
