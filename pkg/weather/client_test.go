package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/config"
)

const openWeatherPayload = `{
	"name":"London","sys":{"country":"GB"},
	"main":{"temp":15.5,"feels_like":14.2,"temp_min":13.0,"temp_max":17.1,"humidity":72,"pressure":1012},
	"weather":[{"main":"Clouds","description":"scattered clouds"}],
	"wind":{"speed":4.1}
}`

const weatherAPIPayload = `{
	"location":{"name":"Tehran","country":"Iran"},
	"current":{"temp_c":28.0,"feelslike_c":26.5,"humidity":31,"pressure_mb":1015.0,
		"condition":{"text":"Sunny","icon":"//cdn.weatherapi.com/sunny.png"},
		"wind_kph":11.2,"wind_dir":"NW","uv":7.0,"vis_km":10.0,"last_updated":"2024-06-01 12:00"}
}`

const wttrPayload = `{
	"current_condition":[{"temp_C":"18","FeelsLikeC":"17","humidity":"65","windspeedKmph":"9",
		"weatherDesc":[{"value":"Partly cloudy"}]}]
}`

func TestCurrentOpenWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "London" {
			t.Errorf("Expected q=London, got %s", r.URL.Query().Get("q"))
		}
		if r.URL.Query().Get("appid") != "ow-key" {
			t.Errorf("Expected appid=ow-key, got %s", r.URL.Query().Get("appid"))
		}
		_, _ = w.Write([]byte(openWeatherPayload))
	}))
	defer server.Close()

	client := NewClient(config.WeatherConfig{OpenWeatherKey: "ow-key"}, nil)
	client.openWeatherURL = server.URL

	obs, err := client.Current(context.Background(), "London", "")
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}

	if obs.Source != "OpenWeatherMap" {
		t.Errorf("Expected source OpenWeatherMap, got %s", obs.Source)
	}
	if obs.City != "London" || obs.Country != "GB" {
		t.Errorf("Unexpected location: %s/%s", obs.City, obs.Country)
	}
	if obs.Temperature.Current != 15.5 || obs.Temperature.Unit != "°C" {
		t.Errorf("Unexpected temperature: %+v", obs.Temperature)
	}
	if obs.Humidity != "72%" {
		t.Errorf("Expected humidity 72%%, got %s", obs.Humidity)
	}
	if obs.Weather.Description != "scattered clouds" {
		t.Errorf("Unexpected description: %s", obs.Weather.Description)
	}
}

func TestCurrentOpenWeatherErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"invalid key", http.StatusUnauthorized, ErrInvalidAPIKey},
		{"unknown city", http.StatusNotFound, ErrCityNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(config.WeatherConfig{OpenWeatherKey: "ow-key"}, nil)
			client.openWeatherURL = server.URL

			_, err := client.Current(context.Background(), "Nowhere", "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCurrentNoKey(t *testing.T) {
	client := NewClient(config.WeatherConfig{}, nil)

	_, err := client.Current(context.Background(), "London", "")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
}

func TestCurrentAlternativeWeatherAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "wa-key" {
			t.Errorf("Expected key=wa-key, got %s", r.URL.Query().Get("key"))
		}
		_, _ = w.Write([]byte(weatherAPIPayload))
	}))
	defer server.Close()

	client := NewClient(config.WeatherConfig{WeatherAPIKey: "wa-key"}, nil)
	client.weatherAPIURL = server.URL

	obs, err := client.CurrentAlternative(context.Background(), "Tehran")
	if err != nil {
		t.Fatalf("CurrentAlternative failed: %v", err)
	}

	if obs.Source != "WeatherAPI.com" {
		t.Errorf("Expected source WeatherAPI.com, got %s", obs.Source)
	}
	if obs.City != "Tehran" {
		t.Errorf("Expected city Tehran, got %s", obs.City)
	}
	if obs.Temperature.Current != 28.0 {
		t.Errorf("Expected temperature 28.0, got %g", obs.Temperature.Current)
	}
	if obs.Wind.Direction != "NW" {
		t.Errorf("Expected wind direction NW, got %s", obs.Wind.Direction)
	}
	if obs.UVIndex == nil || *obs.UVIndex != 7.0 {
		t.Errorf("Expected UV index 7.0, got %v", obs.UVIndex)
	}
}

func TestCurrentAlternativeWTTRFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Berlin" {
			t.Errorf("Expected path /Berlin, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "j1" {
			t.Errorf("Expected format=j1, got %s", r.URL.Query().Get("format"))
		}
		_, _ = w.Write([]byte(wttrPayload))
	}))
	defer server.Close()

	// No WeatherAPI key configured, so the call falls through to wttr.in.
	client := NewClient(config.WeatherConfig{}, nil)
	client.wttrURL = server.URL

	obs, err := client.CurrentAlternative(context.Background(), "Berlin")
	if err != nil {
		t.Fatalf("CurrentAlternative failed: %v", err)
	}

	if obs.Source != "wttr.in (no API key required)" {
		t.Errorf("Unexpected source: %s", obs.Source)
	}
	if obs.Temperature.Current != 18 {
		t.Errorf("Expected temperature 18, got %g", obs.Temperature.Current)
	}
	if obs.Weather.Description != "Partly cloudy" {
		t.Errorf("Unexpected description: %s", obs.Weather.Description)
	}
	if obs.Wind.Speed != "9 km/h" {
		t.Errorf("Unexpected wind speed: %s", obs.Wind.Speed)
	}
}

func TestCurrentAlternativeNoKeyAndFallbackDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.WeatherConfig{}, nil)
	client.wttrURL = server.URL

	_, err := client.CurrentAlternative(context.Background(), "Berlin")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
}

func TestProbeWithoutKeys(t *testing.T) {
	client := NewClient(config.WeatherConfig{}, nil)

	results := client.Probe(context.Background())
	if results["openweather"].Status != "no API key configured" {
		t.Errorf("Unexpected openweather probe: %+v", results["openweather"])
	}
	if results["weatherapi"].Status != "no API key configured" {
		t.Errorf("Unexpected weatherapi probe: %+v", results["weatherapi"])
	}
}
