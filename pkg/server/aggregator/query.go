// Package aggregator fans fetch-and-normalize units of work out across all
// registered sources and assembles the combined report.
package aggregator

import (
	"context"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/metrics"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/sources"
)

// Query fetches and normalizes exactly one named source. It serves the
// standalone single-source operation and is the unit of work the fan-out
// runs per source.
type Query struct {
	registry *sources.Registry
	fetcher  *sources.Fetcher
	logger   *logging.Logger
}

// NewQuery creates a single-source query over the given registry and fetcher.
func NewQuery(registry *sources.Registry, fetcher *sources.Fetcher, logger *logging.Logger) *Query {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Query{
		registry: registry,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Registry returns the underlying source registry.
func (q *Query) Registry() *sources.Registry {
	return q.registry
}

// Fetch resolves, fetches and normalizes one source. An unknown identifier
// yields an invalid_source outcome without any network call.
func (q *Query) Fetch(ctx context.Context, name string) sources.Outcome {
	desc, strat, ferr := q.registry.Resolve(name)
	if ferr != nil {
		return sources.Outcome{Err: ferr}
	}

	start := time.Now()
	body, ferr := q.fetcher.Fetch(ctx, strat, desc)
	if ferr != nil {
		metrics.RecordFetchDuration(name, time.Since(start))
		return sources.Outcome{Err: ferr}
	}

	record, ferr := strat.Normalize(body, time.Now().UTC())
	metrics.RecordFetchDuration(name, time.Since(start))
	if ferr != nil {
		q.logger.Warn("Failed to normalize payload", "source", name, "error", ferr.Message)
		return sources.Outcome{Err: ferr}
	}

	q.logger.Debug("Fetched price", "source", name, "usd", record.USD.String())
	return sources.Outcome{Record: record}
}
