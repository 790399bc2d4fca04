package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/area-weather-collector/internal/geo"
	"github.com/i474232898/area-weather-collector/internal/weather"
)

// Writer serializes a CollectionResult to one uniquely named JSON artifact
// per run.
type Writer struct {
	dir             string
	includeFailures bool
}

// NewWriter creates a Writer targeting dir. When includeFailures is true the
// artifact carries a diagnostic list of failed cities alongside the records.
func NewWriter(dir string, includeFailures bool) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{
		dir:             dir,
		includeFailures: includeFailures,
	}
}

type failureEntry struct {
	City   string  `json:"city"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Reason string  `json:"reason"`
}

type runArtifact struct {
	GeneratedAt time.Time               `json:"generatedAt"`
	BoundingBox geo.BoundingBox         `json:"boundingBox"`
	CitiesFound int                     `json:"citiesFound"`
	Succeeded   int                     `json:"succeeded"`
	Failed      int                     `json:"failed"`
	Records     []weather.WeatherRecord `json:"records"`
	Failures    []failureEntry          `json:"failures,omitempty"`
}

// Write persists the result and returns the path of the written file. The
// name embeds the run start timestamp and a short run id so consecutive runs
// never overwrite each other. An empty result still produces a valid artifact.
func (w *Writer) Write(result weather.CollectionResult) (string, error) {
	found, succeeded, failed := result.Summary()

	artifact := runArtifact{
		GeneratedAt: time.Now().UTC(),
		BoundingBox: result.Box,
		CitiesFound: found,
		Succeeded:   succeeded,
		Failed:      failed,
		Records:     result.Records(),
	}

	if w.includeFailures {
		artifact.Failures = make([]failureEntry, 0, failed)
		for _, o := range result.Failures() {
			artifact.Failures = append(artifact.Failures, failureEntry{
				City:   o.City.Name,
				Lat:    o.City.Lat,
				Lon:    o.City.Lon,
				Reason: o.Err.Error(),
			})
		}
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	runID := uuid.NewString()[:8]
	name := fmt.Sprintf("weather_data_%s_%s.json",
		result.StartedAt.UTC().Format("20060102_150405"), runID)
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
