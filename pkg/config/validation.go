package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Sources))
	enabled := 0
	for i, source := range cfg.Sources {
		if source.Name == "" {
			return fmt.Errorf("source %d: %w", i, ErrSourceNameRequired)
		}
		if seen[source.Name] {
			return fmt.Errorf("source %d: %w: %s", i, ErrDuplicateSource, source.Name)
		}
		seen[source.Name] = true
		if source.Timeout.ToDuration() < 0 {
			return fmt.Errorf("source %s: %w", source.Name, ErrNegativeTimeout)
		}
		if source.Enabled {
			enabled++
		}
	}
	if len(cfg.Sources) > 0 && enabled == 0 {
		return ErrNoSourcesEnabled
	}

	if cfg.Server.GlobalDeadline.ToDuration() < 0 {
		return fmt.Errorf("server global_deadline: %w", ErrNegativeTimeout)
	}
	if cfg.Server.RetryBackoff.ToDuration() < 0 {
		return fmt.Errorf("server retry_backoff: %w", ErrNegativeTimeout)
	}

	if cfg.Cache.Enabled && cfg.Cache.Addr == "" {
		return ErrCacheAddrRequired
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	switch strings.ToLower(cfg.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, cfg.Level)
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
