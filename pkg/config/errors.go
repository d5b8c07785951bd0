// Package config provides configuration loading and validation for weather-bitcoin-api.
package config

import "errors"

var (
	// ErrSourceNameRequired indicates that a source entry is missing its name.
	ErrSourceNameRequired = errors.New("source name is required")
	// ErrDuplicateSource indicates that a source name appears more than once.
	ErrDuplicateSource = errors.New("duplicate source name")
	// ErrNegativeTimeout indicates that a timeout is negative.
	ErrNegativeTimeout = errors.New("timeout must not be negative")
	// ErrNoSourcesEnabled indicates that every configured source is disabled.
	ErrNoSourcesEnabled = errors.New("no sources enabled")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrCacheAddrRequired indicates that the cache is enabled without an address.
	ErrCacheAddrRequired = errors.New("cache addr must be specified when cache is enabled")
)
