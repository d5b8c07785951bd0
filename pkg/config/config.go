package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// defaultSourceNames is the canonical source order used when the
// configuration does not list sources explicitly.
var defaultSourceNames = []string{
	"coinbase",
	"blockchain",
	"coinmarketcap",
	"binance",
	"kraken",
	"nobitex",
}

// Load loads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	// Validate and sanitize path
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in YAML
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8000"
	}
	if cfg.Server.GlobalDeadline.ToDuration() == 0 {
		cfg.Server.GlobalDeadline = Duration(60 * 1e9) // 60 seconds
	}
	if cfg.Server.RetryBackoff.ToDuration() == 0 {
		cfg.Server.RetryBackoff = Duration(1 * 1e9) // 1 second
	}

	// Sources default to the full built-in set
	if len(cfg.Sources) == 0 {
		for _, name := range defaultSourceNames {
			cfg.Sources = append(cfg.Sources, SourceConfig{Name: name, Enabled: true})
		}
	}

	// Credentials fall back to the environment when the config file left
	// them empty. This is the only place ambient process state is read.
	for i := range cfg.Sources {
		if cfg.Sources[i].Name == "coinmarketcap" && cfg.Sources[i].APIKey == "" {
			cfg.Sources[i].APIKey = os.Getenv("COINMARKETCAP_API_KEY")
		}
	}
	if cfg.Weather.OpenWeatherKey == "" {
		cfg.Weather.OpenWeatherKey = os.Getenv("OPENWEATHER_API_KEY")
	}
	if cfg.Weather.WeatherAPIKey == "" {
		cfg.Weather.WeatherAPIKey = os.Getenv("WEATHERAPI_KEY")
	}
	if cfg.Weather.Timeout.ToDuration() == 0 {
		cfg.Weather.Timeout = Duration(10 * 1e9) // 10 seconds
	}

	// Cache defaults
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = "localhost:6379"
	}
	if cfg.Cache.TTL.ToDuration() == 0 {
		cfg.Cache.TTL = Duration(60 * 1e9) // 60 seconds
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// EnabledSources returns the enabled source configurations in config order.
func (c *Config) EnabledSources() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}
