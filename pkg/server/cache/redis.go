// Package cache provides an optional Redis-backed cache of the latest
// serialized aggregate report.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/config"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
)

const (
	reportKey  = "bitcoin:report:latest"
	defaultTTL = 60 * time.Second
)

// ReportCache stores the serialized response of the last full fan-out so
// repeated requests inside the TTL skip the upstream round trips entirely.
type ReportCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// New creates a report cache from configuration. It does not dial; call Ping
// to verify the server is reachable.
func New(cfg config.CacheConfig, logger *logging.Logger) *ReportCache {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	ttl := cfg.TTL.ToDuration()
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ReportCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:    ttl,
		logger: logger,
	}
}

// Ping verifies the Redis server is reachable.
func (c *ReportCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetReport returns the cached serialized report. A miss returns nil bytes
// and no error.
func (c *ReportCache) GetReport(ctx context.Context) ([]byte, error) {
	data, err := c.rdb.Get(ctx, reportKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetReport stores the serialized report under the configured TTL.
func (c *ReportCache) SetReport(ctx context.Context, data []byte) error {
	return c.rdb.Set(ctx, reportKey, data, c.ttl).Err()
}

// Close releases the underlying connection pool.
func (c *ReportCache) Close() error {
	return c.rdb.Close()
}
