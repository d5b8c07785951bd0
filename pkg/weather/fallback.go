package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/metrics"
)

const (
	providerWeatherAPI = "weatherapi"
	providerWTTR       = "wttr.in"
)

// weatherAPIResponse represents the WeatherAPI.com current.json payload.
type weatherAPIResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64 `json:"temp_c"`
		FeelsLikeC float64 `json:"feelslike_c"`
		Humidity   int     `json:"humidity"`
		PressureMb float64 `json:"pressure_mb"`
		Condition  struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
		WindKph     float64 `json:"wind_kph"`
		WindDir     string  `json:"wind_dir"`
		UV          float64 `json:"uv"`
		VisKm       float64 `json:"vis_km"`
		LastUpdated string  `json:"last_updated"`
	} `json:"current"`
}

// wttrResponse represents the wttr.in ?format=j1 payload. Every numeric
// value arrives as a string.
type wttrResponse struct {
	CurrentCondition []struct {
		TempC         string `json:"temp_C"`
		FeelsLikeC    string `json:"FeelsLikeC"`
		Humidity      string `json:"humidity"`
		WindspeedKmph string `json:"windspeedKmph"`
		WeatherDesc   []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

// CurrentAlternative fetches the current weather from WeatherAPI.com, or from
// wttr.in when no WeatherAPI key is configured. wttr.in needs no key, so this
// route works on a fresh deployment.
func (c *Client) CurrentAlternative(ctx context.Context, city string) (*Observation, error) {
	if c.weatherAPIKey == "" {
		obs, err := c.currentWTTR(ctx, city)
		if err == nil {
			return obs, nil
		}
		c.logger.Warn("wttr.in fallback failed", "city", city, "error", err.Error())
		return nil, fmt.Errorf("WeatherAPI %w and wttr.in fallback failed: %v", ErrNoAPIKey, err)
	}

	params := url.Values{}
	params.Set("key", c.weatherAPIKey)
	params.Set("q", city)
	params.Set("aqi", "no")

	status, body, err := c.get(ctx, c.weatherAPIURL, params)
	if err != nil {
		metrics.RecordWeatherRequest(providerWeatherAPI, "error")
		return nil, err
	}
	if status < 200 || status > 299 {
		metrics.RecordWeatherRequest(providerWeatherAPI, "error")
		return nil, &StatusError{Provider: "WeatherAPI.com", Status: status}
	}

	var resp weatherAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordWeatherRequest(providerWeatherAPI, "error")
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	metrics.RecordWeatherRequest(providerWeatherAPI, "success")

	uv := resp.Current.UV
	return &Observation{
		Source:  "WeatherAPI.com",
		City:    resp.Location.Name,
		Country: resp.Location.Country,
		Temperature: Temperature{
			Current:   resp.Current.TempC,
			FeelsLike: resp.Current.FeelsLikeC,
			Unit:      "°C",
		},
		Humidity: fmt.Sprintf("%d%%", resp.Current.Humidity),
		Pressure: fmt.Sprintf("%g mb", resp.Current.PressureMb),
		Weather: Conditions{
			Description: resp.Current.Condition.Text,
			Icon:        resp.Current.Condition.Icon,
		},
		Wind: Wind{
			Speed:     fmt.Sprintf("%g km/h", resp.Current.WindKph),
			Direction: resp.Current.WindDir,
		},
		UVIndex:     &uv,
		Visibility:  fmt.Sprintf("%g km", resp.Current.VisKm),
		LastUpdated: resp.Current.LastUpdated,
		Timestamp:   time.Now().Format(timestampLayout),
	}, nil
}

// currentWTTR fetches from wttr.in, which requires no API key.
func (c *Client) currentWTTR(ctx context.Context, city string) (*Observation, error) {
	params := url.Values{}
	params.Set("format", "j1")

	status, body, err := c.get(ctx, c.wttrURL+"/"+url.PathEscape(city), params)
	if err != nil {
		metrics.RecordWeatherRequest(providerWTTR, "error")
		return nil, err
	}
	if status < 200 || status > 299 {
		metrics.RecordWeatherRequest(providerWTTR, "error")
		return nil, &StatusError{Provider: "wttr.in", Status: status}
	}

	var resp wttrResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.RecordWeatherRequest(providerWTTR, "error")
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.CurrentCondition) == 0 {
		metrics.RecordWeatherRequest(providerWTTR, "error")
		return nil, fmt.Errorf("missing current_condition in response")
	}
	metrics.RecordWeatherRequest(providerWTTR, "success")

	current := resp.CurrentCondition[0]
	temp, err := strconv.ParseFloat(current.TempC, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid temp_C %q", current.TempC)
	}
	feelsLike, err := strconv.ParseFloat(current.FeelsLikeC, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid FeelsLikeC %q", current.FeelsLikeC)
	}

	obs := &Observation{
		Source: "wttr.in (no API key required)",
		City:   city,
		Temperature: Temperature{
			Current:   temp,
			FeelsLike: feelsLike,
			Unit:      "°C",
		},
		Humidity:  current.Humidity + "%",
		Wind:      Wind{Speed: current.WindspeedKmph + " km/h"},
		Timestamp: time.Now().Format(timestampLayout),
	}
	if len(current.WeatherDesc) > 0 {
		obs.Weather = Conditions{Description: current.WeatherDesc[0].Value}
	}
	return obs, nil
}

// ProbeResult is the health of one weather provider as seen by Probe.
type ProbeResult struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Probe checks which configured providers answer for a known city. Providers
// without a configured key report that instead of being called.
func (c *Client) Probe(ctx context.Context) map[string]ProbeResult {
	results := make(map[string]ProbeResult, 2)

	if c.openWeatherKey == "" {
		results[providerOpenWeather] = ProbeResult{Status: "no API key configured"}
	} else {
		params := url.Values{}
		params.Set("q", "London")
		params.Set("appid", c.openWeatherKey)
		if status, _, err := c.get(ctx, c.openWeatherURL, params); err != nil {
			results[providerOpenWeather] = ProbeResult{Status: "error", Message: err.Error()}
		} else {
			results[providerOpenWeather] = ProbeResult{Status: probeStatus(status), Code: status}
		}
	}

	if c.weatherAPIKey == "" {
		results[providerWeatherAPI] = ProbeResult{Status: "no API key configured"}
	} else {
		params := url.Values{}
		params.Set("key", c.weatherAPIKey)
		params.Set("q", "London")
		if status, _, err := c.get(ctx, c.weatherAPIURL, params); err != nil {
			results[providerWeatherAPI] = ProbeResult{Status: "error", Message: err.Error()}
		} else {
			results[providerWeatherAPI] = ProbeResult{Status: probeStatus(status), Code: status}
		}
	}

	return results
}

func probeStatus(status int) string {
	if status >= 200 && status <= 299 {
		return "working"
	}
	return "failing"
}
