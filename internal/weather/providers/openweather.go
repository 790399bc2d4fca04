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
	"github.com/i474232898/area-weather-collector/internal/weather"
)

// DefaultWeatherBaseURL is OpenWeatherMap's current-weather endpoint.
const DefaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// WeatherClient implements the weather.Fetcher interface against
// OpenWeatherMap's current-weather-by-coordinate endpoint.
type WeatherClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewWeatherClient(client *http.Client, apiKey, baseURL string, backoff BackoffConfig, limiter *rate.Limiter) *WeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}

	return &WeatherClient{
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

// Current fetches the current weather for one city. Transient upstream
// failures are retried; the returned error is terminal.
func (c *WeatherClient) Current(ctx context.Context, city geo.CityRef) (weather.WeatherRecord, error) {
	if c.apiKey == "" {
		return weather.WeatherRecord{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")
		values.Set("lat", fmt.Sprintf("%f", city.Lat))
		values.Set("lon", fmt.Sprintf("%f", city.Lon))

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	resp, err := doRequestWithRetry(ctx, c.httpCfg, c.circuit, c.limiter, buildRequest)
	if err != nil {
		return weather.WeatherRecord{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.WeatherRecord{}, &PermanentError{Reason: fmt.Sprintf("malformed weather payload: %v", err)}
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	record := weather.WeatherRecord{
		City:         city.Name,
		Lat:          city.Lat,
		Lon:          city.Lon,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMS:  payload.Wind.Speed,
		Condition:    weather.ConditionUnknown,
		Timestamp:    ts,
	}

	if len(payload.Weather) > 0 {
		record.Description = payload.Weather[0].Description
		record.Condition = mapOpenWeatherCondition(payload.Weather[0].Main)
	}

	return record, nil
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
