package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/i474232898/area-weather-collector/internal/config"
	"github.com/i474232898/area-weather-collector/internal/geo"
	"github.com/i474232898/area-weather-collector/internal/report"
	"github.com/i474232898/area-weather-collector/internal/scheduler"
	"github.com/i474232898/area-weather-collector/internal/weather"
	"github.com/i474232898/area-weather-collector/internal/weather/providers"
)

func main() {
	minLat := flag.Float64("min-lat", math.NaN(), "minimum latitude of the bounding box")
	maxLat := flag.Float64("max-lat", math.NaN(), "maximum latitude of the bounding box")
	minLon := flag.Float64("min-lon", math.NaN(), "minimum longitude of the bounding box")
	maxLon := flag.Float64("max-lon", math.NaN(), "maximum longitude of the bounding box")
	flag.Parse()

	if math.IsNaN(*minLat) || math.IsNaN(*maxLat) || math.IsNaN(*minLon) || math.IsNaN(*maxLon) {
		fmt.Fprintln(os.Stderr, "all of -min-lat, -max-lat, -min-lon and -max-lon are required")
		flag.Usage()
		os.Exit(2)
	}

	box := geo.BoundingBox{
		MinLat: *minLat,
		MaxLat: *maxLat,
		MinLon: *minLon,
		MaxLon: *maxLon,
	}
	if err := box.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// One token bucket shared by both endpoints keeps the total outbound rate
	// within the provider's limits.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	backoff := providers.BackoffConfig{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.BackoffInitial,
		MaxInterval:     cfg.BackoffMax,
		Jitter:          true,
	}

	geoClient := providers.NewGeoClient(httpClient, cfg.APIKey, cfg.GeoBaseURL, backoff, limiter)
	weatherClient := providers.NewWeatherClient(httpClient, cfg.APIKey, cfg.WeatherBaseURL, backoff, limiter)

	collector := weather.NewCollector(weatherClient, cfg.MaxConcurrent, logger)
	writer := report.NewWriter(cfg.OutputDir, cfg.IncludeFailures)

	runOnce := func(ctx context.Context) error {
		cities, err := geoClient.CitiesInBox(ctx, box)
		if err != nil {
			return err
		}
		fmt.Printf("Found %d cities\n", len(cities))

		result := collector.Collect(ctx, box, cities)
		_, succeeded, failed := result.Summary()

		fmt.Printf("Successfully collected data for %d cities\n", succeeded)
		if failed > 0 {
			fmt.Printf("Failed to collect data for %d cities\n", failed)
		}

		path, err := writer.Write(result)
		if err != nil {
			return err
		}
		fmt.Printf("Results saved to %s\n", path)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.CollectInterval > 0 {
		sched := scheduler.New(cfg.CollectInterval, cfg.CollectInterval, runOnce, logger)
		if err := sched.Start(); err != nil {
			logger.Fatalw("failed to start scheduler", "error", err)
		}
		defer sched.Stop()

		<-ctx.Done()
		return
	}

	if err := runOnce(ctx); err != nil {
		logger.Fatalw("collection run failed", "error", err)
	}
}
