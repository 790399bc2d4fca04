package weather

import (
	"time"

	"github.com/i474232898/area-weather-collector/internal/geo"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// WeatherRecord is one successful observation for a city.
type WeatherRecord struct {
	City         string    `json:"city"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	TemperatureC float64   `json:"temperatureC"`
	HumidityPct  float64   `json:"humidityPercent"`
	WindSpeedMS  float64   `json:"windSpeed"`
	Description  string    `json:"description"`
	Condition    Condition `json:"condition"`
	Timestamp    time.Time `json:"timestamp"` // always UTC
}

// FetchOutcome holds the terminal result for one city: either a record or an
// error, never both.
type FetchOutcome struct {
	City   geo.CityRef
	Record *WeatherRecord
	Err    error
}

// Failed reports whether this outcome carries an error instead of a record.
func (o FetchOutcome) Failed() bool {
	return o.Err != nil
}

// CollectionResult aggregates the outcomes of one run. It contains exactly one
// outcome per located city.
type CollectionResult struct {
	Box       geo.BoundingBox
	StartedAt time.Time
	Outcomes  []FetchOutcome
}

// Records returns the successful observations.
func (r CollectionResult) Records() []WeatherRecord {
	records := make([]WeatherRecord, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if !o.Failed() {
			records = append(records, *o.Record)
		}
	}
	return records
}

// Failures returns the outcomes that ended in an error.
func (r CollectionResult) Failures() []FetchOutcome {
	var failures []FetchOutcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failures = append(failures, o)
		}
	}
	return failures
}

// Summary returns the found/succeeded/failed counts for console reporting.
func (r CollectionResult) Summary() (found, succeeded, failed int) {
	found = len(r.Outcomes)
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	return found, succeeded, failed
}
