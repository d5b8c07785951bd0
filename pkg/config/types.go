package config

import "time"

// Config is the root configuration structure
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Sources []SourceConfig `yaml:"sources"`
	Cache   CacheConfig    `yaml:"cache"`
	Weather WeatherConfig  `yaml:"weather"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Logging LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP server and the fan-out policy
type ServerConfig struct {
	HTTP           HTTPConfig `yaml:"http"`
	WebSocket      WSConfig   `yaml:"websocket"`
	GlobalDeadline Duration   `yaml:"global_deadline"` // upper bound on one full fan-out
	RetryBackoff   Duration   `yaml:"retry_backoff"`   // pause before the single retry
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WSConfig configures WebSocket report streaming
type WSConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SourceConfig configures one upstream price source. Fields left empty fall
// back to the source's built-in defaults.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	APIKey  string            `yaml:"api_key"`
	Timeout Duration          `yaml:"timeout"`
	Params  map[string]string `yaml:"params"`
	Headers map[string]string `yaml:"headers"`
}

// CacheConfig configures the optional Redis report cache
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"`
}

// WeatherConfig configures the weather proxy providers
type WeatherConfig struct {
	OpenWeatherKey string   `yaml:"openweather_api_key"`
	WeatherAPIKey  string   `yaml:"weatherapi_api_key"`
	Timeout        Duration `yaml:"timeout"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
