package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/area-weather-collector/internal/geo"
	"github.com/i474232898/area-weather-collector/internal/weather"
)

var testCity = geo.CityRef{ID: 7, Name: "Croydon", Lat: 51.42, Lon: -0.11}

func newWeatherClient(t *testing.T, srv *httptest.Server, maxAttempts int) *WeatherClient {
	t.Helper()
	return NewWeatherClient(srv.Client(), "test-key", srv.URL, testBackoff(maxAttempts), nil)
}

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "51.420000", q.Get("lat"))
		assert.Equal(t, "-0.110000", q.Get("lon"))

		w.Write([]byte(`{
			"dt": 1700000000,
			"main": {"temp": 11.5, "humidity": 82},
			"wind": {"speed": 4.2},
			"weather": [{"main": "Clouds", "description": "overcast clouds"}],
			"name": "Croydon"
		}`))
	}))
	defer srv.Close()

	record, err := newWeatherClient(t, srv, 1).Current(context.Background(), testCity)
	require.NoError(t, err)

	assert.Equal(t, "Croydon", record.City)
	assert.Equal(t, 51.42, record.Lat)
	assert.Equal(t, -0.11, record.Lon)
	assert.Equal(t, 11.5, record.TemperatureC)
	assert.Equal(t, 82.0, record.HumidityPct)
	assert.Equal(t, 4.2, record.WindSpeedMS)
	assert.Equal(t, "overcast clouds", record.Description)
	assert.Equal(t, weather.ConditionCloudy, record.Condition)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), record.Timestamp)
	assert.Equal(t, time.UTC, record.Timestamp.Location())
}

func TestCurrentMissingObservationTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"main": {"temp": 3.0}, "weather": []}`))
	}))
	defer srv.Close()

	before := time.Now().UTC()
	record, err := newWeatherClient(t, srv, 1).Current(context.Background(), testCity)
	require.NoError(t, err)

	assert.False(t, record.Timestamp.Before(before))
	assert.Equal(t, weather.ConditionUnknown, record.Condition)
	assert.Empty(t, record.Description)
}

func TestCurrentPermanentRejection(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newWeatherClient(t, srv, 4).Current(context.Background(), testCity)
	require.Error(t, err)

	var perm *PermanentError
	require.ErrorAs(t, err, &perm)
	assert.Equal(t, http.StatusUnauthorized, perm.Status)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits))
}

func TestCurrentMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	_, err := newWeatherClient(t, srv, 1).Current(context.Background(), testCity)
	require.Error(t, err)

	var perm *PermanentError
	assert.ErrorAs(t, err, &perm)
}

func TestMapOpenWeatherCondition(t *testing.T) {
	cases := map[string]weather.Condition{
		"Clear":        weather.ConditionClear,
		"Clouds":       weather.ConditionCloudy,
		"Rain":         weather.ConditionRain,
		"Drizzle":      weather.ConditionRain,
		"Snow":         weather.ConditionSnow,
		"Thunderstorm": weather.ConditionStorm,
		"Haze":         weather.ConditionUnknown,
	}
	for main, want := range cases {
		assert.Equal(t, want, mapOpenWeatherCondition(main), main)
	}
}
