package weather

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/area-weather-collector/internal/geo"
)

// Fetcher abstracts the per-city current-weather lookup.
type Fetcher interface {
	Current(ctx context.Context, city geo.CityRef) (WeatherRecord, error)
}

// Collector fans the Fetcher out over a city list with a bounded number of
// calls in flight.
type Collector struct {
	fetcher     Fetcher
	maxInFlight int
	log         *zap.SugaredLogger
}

// NewCollector creates a Collector. maxInFlight values below 1 are treated as 1.
func NewCollector(fetcher Fetcher, maxInFlight int, log *zap.SugaredLogger) *Collector {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Collector{
		fetcher:     fetcher,
		maxInFlight: maxInFlight,
		log:         log,
	}
}

// Collect fetches weather for every city and returns one outcome per input
// city. A failed city is recorded and never blocks or cancels the others.
func (c *Collector) Collect(ctx context.Context, box geo.BoundingBox, cities []geo.CityRef) CollectionResult {
	result := CollectionResult{
		Box:       box,
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]FetchOutcome, 0, len(cities)),
	}

	if len(cities) == 0 {
		return result
	}

	// Semaphore bounding in-flight requests; results channel is buffered so
	// workers never block on send.
	sem := make(chan struct{}, c.maxInFlight)
	outcomes := make(chan FetchOutcome, len(cities))

	var wg sync.WaitGroup
	for _, city := range cities {
		wg.Add(1)
		go func(city geo.CityRef) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			record, err := c.fetcher.Current(ctx, city)
			if err != nil {
				c.log.Warnw("weather fetch failed", "city", city.Name, "reason", err)
				outcomes <- FetchOutcome{City: city, Err: err}
				return
			}
			outcomes <- FetchOutcome{City: city, Record: &record}
		}(city)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		result.Outcomes = append(result.Outcomes, o)
	}

	_, succeeded, failed := result.Summary()
	c.log.Infow("collection finished",
		"cities", len(cities), "succeeded", succeeded, "failed", failed)

	return result
}
