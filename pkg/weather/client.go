// Package weather proxies single-city weather lookups to upstream providers.
// One provider answers each request; there is no fan-out or aggregation here.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/config"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/version"
)

const (
	openWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	weatherAPIBaseURL  = "http://api.weatherapi.com/v1/current.json"
	wttrBaseURL        = "https://wttr.in"

	defaultTimeout = 10 * time.Second

	timestampLayout = "2006-01-02 15:04:05"
)

var (
	// ErrNoAPIKey marks a provider that cannot be used without a configured key.
	ErrNoAPIKey = errors.New("weather API key not configured")
	// ErrInvalidAPIKey marks a key the provider rejected, commonly a fresh
	// OpenWeather key that is not activated yet.
	ErrInvalidAPIKey = errors.New("weather API key invalid or not yet activated")
	// ErrCityNotFound marks a city the provider does not know.
	ErrCityNotFound = errors.New("city not found")
)

// StatusError carries an unexpected upstream HTTP status through to the
// HTTP shell.
type StatusError struct {
	Provider string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned unexpected status code: %d", e.Provider, e.Status)
}

// Temperature is the normalized temperature block of an observation.
type Temperature struct {
	Current   float64  `json:"current"`
	FeelsLike float64  `json:"feels_like"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Unit      string   `json:"unit"`
}

// Conditions describes the sky in provider terms.
type Conditions struct {
	Main        string `json:"main,omitempty"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// Wind is the normalized wind block, speeds kept as provider-unit strings.
type Wind struct {
	Speed     string `json:"speed"`
	Direction string `json:"direction,omitempty"`
}

// Observation is the normalized weather response independent of which
// provider produced it.
type Observation struct {
	Source      string      `json:"source"`
	City        string      `json:"city"`
	Country     string      `json:"country,omitempty"`
	Temperature Temperature `json:"temperature"`
	Humidity    string      `json:"humidity"`
	Pressure    string      `json:"pressure,omitempty"`
	Weather     Conditions  `json:"weather"`
	Wind        Wind        `json:"wind"`
	UVIndex     *float64    `json:"uv_index,omitempty"`
	Visibility  string      `json:"visibility,omitempty"`
	LastUpdated string      `json:"last_updated,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

// Client queries the configured weather providers.
type Client struct {
	httpc          *http.Client
	timeout        time.Duration
	openWeatherKey string
	weatherAPIKey  string
	logger         *logging.Logger

	// Base URLs are fields so tests can point the client at a local server.
	openWeatherURL string
	weatherAPIURL  string
	wttrURL        string
}

// NewClient creates a weather client from configuration.
func NewClient(cfg config.WeatherConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	timeout := cfg.Timeout.ToDuration()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpc:          &http.Client{},
		timeout:        timeout,
		openWeatherKey: cfg.OpenWeatherKey,
		weatherAPIKey:  cfg.WeatherAPIKey,
		logger:         logger,
		openWeatherURL: openWeatherBaseURL,
		weatherAPIURL:  weatherAPIBaseURL,
		wttrURL:        wttrBaseURL,
	}
}

// get performs one provider call and returns the body together with the
// HTTP status code. Transport failures surface as errors, any status as data.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.AgentString())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
