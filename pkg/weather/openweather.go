package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/metrics"
)

const providerOpenWeather = "openweather"

// openWeatherResponse represents the OpenWeatherMap current weather payload.
type openWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches the current weather for a city from OpenWeatherMap.
// Units is "metric" or "imperial"; empty selects metric.
func (c *Client) Current(ctx context.Context, city, units string) (*Observation, error) {
	if c.openWeatherKey == "" {
		return nil, fmt.Errorf("OpenWeather %w", ErrNoAPIKey)
	}
	if units == "" {
		units = "metric"
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.openWeatherKey)
	params.Set("units", units)

	status, body, err := c.get(ctx, c.openWeatherURL, params)
	if err != nil {
		metrics.RecordWeatherRequest(providerOpenWeather, "error")
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		metrics.RecordWeatherRequest(providerOpenWeather, "error")
		return nil, ErrInvalidAPIKey
	case status == http.StatusNotFound:
		metrics.RecordWeatherRequest(providerOpenWeather, "error")
		return nil, fmt.Errorf("%w: %q", ErrCityNotFound, city)
	case status < 200 || status > 299:
		metrics.RecordWeatherRequest(providerOpenWeather, "error")
		return nil, &StatusError{Provider: "OpenWeatherMap", Status: status}
	}

	var resp openWeatherResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordWeatherRequest(providerOpenWeather, "error")
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	metrics.RecordWeatherRequest(providerOpenWeather, "success")

	tempUnit, speedUnit := "°C", "m/s"
	if units == "imperial" {
		tempUnit, speedUnit = "°F", "mph"
	}

	obs := &Observation{
		Source:  "OpenWeatherMap",
		City:    resp.Name,
		Country: resp.Sys.Country,
		Temperature: Temperature{
			Current:   resp.Main.Temp,
			FeelsLike: resp.Main.FeelsLike,
			Min:       &resp.Main.TempMin,
			Max:       &resp.Main.TempMax,
			Unit:      tempUnit,
		},
		Humidity:  fmt.Sprintf("%d%%", resp.Main.Humidity),
		Pressure:  fmt.Sprintf("%d hPa", resp.Main.Pressure),
		Wind:      Wind{Speed: fmt.Sprintf("%g %s", resp.Wind.Speed, speedUnit)},
		Timestamp: time.Now().Format(timestampLayout),
	}
	if len(resp.Weather) > 0 {
		obs.Weather = Conditions{
			Main:        resp.Weather[0].Main,
			Description: resp.Weather[0].Description,
		}
	}
	return obs, nil
}
