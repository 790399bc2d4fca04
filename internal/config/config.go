package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// AppConfig holds everything the collector needs, loaded once at startup and
// passed explicitly into components.
type AppConfig struct {
	APIKey string `validate:"required"`

	// Provider endpoints; overridable mainly for tests.
	GeoBaseURL     string
	WeatherBaseURL string

	// Outbound HTTP behaviour.
	HTTPTimeout    time.Duration `validate:"gt=0"`
	MaxConcurrent  int           `validate:"gt=0"`
	MaxAttempts    int           `validate:"gt=0"`
	BackoffInitial time.Duration `validate:"gt=0"`
	BackoffMax     time.Duration
	RateLimitRPS   float64 `validate:"gt=0"`
	RateLimitBurst int     `validate:"gt=0"`

	// Output artifact.
	OutputDir       string
	IncludeFailures bool

	// CollectInterval > 0 switches to repeat mode: one collection run (and one
	// artifact) per interval. Zero means a single run.
	CollectInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		APIKey:         os.Getenv("OPENWEATHER_API_KEY"),
		GeoBaseURL:     os.Getenv("GEO_BASE_URL"),
		WeatherBaseURL: os.Getenv("WEATHER_BASE_URL"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.BackoffInitial, err = getenvDuration("BACKOFF_INITIAL", "500ms"); err != nil {
		return nil, err
	}
	if cfg.BackoffMax, err = getenvDuration("BACKOFF_MAX", "5s"); err != nil {
		return nil, err
	}
	if cfg.CollectInterval, err = getenvDuration("COLLECT_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	cfg.MaxConcurrent = getenvInt("MAX_CONCURRENT", 10)
	cfg.MaxAttempts = getenvInt("MAX_ATTEMPTS", 4)
	cfg.RateLimitRPS = getenvFloat("RATE_LIMIT_RPS", 10)
	cfg.RateLimitBurst = getenvInt("RATE_LIMIT_BURST", 10)
	cfg.OutputDir = getenvDefault("OUTPUT_DIR", ".")
	cfg.IncludeFailures = getenvBool("OUTPUT_INCLUDE_FAILURES", true)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
