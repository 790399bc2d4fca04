package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/area-weather-collector/internal/geo"
)

// DefaultGeoBaseURL is OpenWeatherMap's city-within-rectangle search endpoint.
const DefaultGeoBaseURL = "https://api.openweathermap.org/data/2.5/box/city"

// GeoClient queries the provider's area-search endpoint for cities inside a
// bounding box.
type GeoClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewGeoClient(client *http.Client, apiKey, baseURL string, backoff BackoffConfig, limiter *rate.Limiter) *GeoClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "geocoding",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if baseURL == "" {
		baseURL = DefaultGeoBaseURL
	}

	return &GeoClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: cb,
		limiter: limiter,
	}
}

// CitiesInBox issues one area-search query and returns the cities inside the
// box. An empty result is normal and returns a non-nil empty slice. Entries
// outside the requested box are dropped and duplicate city ids collapse to
// their first occurrence.
func (c *GeoClient) CitiesInBox(ctx context.Context, box geo.BoundingBox) ([]geo.CityRef, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("geocoding api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("min_lat", fmt.Sprintf("%f", box.MinLat))
		values.Set("max_lat", fmt.Sprintf("%f", box.MaxLat))
		values.Set("min_lon", fmt.Sprintf("%f", box.MinLon))
		values.Set("max_lon", fmt.Sprintf("%f", box.MaxLon))

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithRetry(ctx, c.httpCfg, c.circuit, c.limiter, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("city search failed: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			ID    int64  `json:"id"`
			Name  string `json:"name"`
			Coord struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"coord"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("city search failed: malformed response: %w", err)
	}

	cities := make([]geo.CityRef, 0, len(payload.List))
	seen := make(map[int64]struct{}, len(payload.List))

	for _, entry := range payload.List {
		if entry.ID == 0 || entry.Name == "" {
			return nil, fmt.Errorf("city search failed: malformed city entry (id=%d, name=%q)", entry.ID, entry.Name)
		}
		if !box.Contains(entry.Coord.Lat, entry.Coord.Lon) {
			continue
		}
		if _, ok := seen[entry.ID]; ok {
			continue
		}
		seen[entry.ID] = struct{}{}

		cities = append(cities, geo.CityRef{
			ID:   entry.ID,
			Name: entry.Name,
			Lat:  entry.Coord.Lat,
			Lon:  entry.Coord.Lon,
		})
	}

	return cities, nil
}
