package sources

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/metrics"
)

const (
	// maxAttempts bounds the retry policy: one retry after a transient
	// failure, nothing more.
	maxAttempts = 2

	defaultBackoff = 1 * time.Second
	defaultTimeout = 8 * time.Second
)

// Fetcher performs one bounded-retry HTTP GET against a source endpoint and
// hands back the raw payload. It holds no mutable state beyond the shared
// HTTP client, so a single instance is safe for concurrent use.
type Fetcher struct {
	client  *http.Client
	backoff time.Duration
	logger  *logging.Logger
}

// NewFetcher creates a fetcher with the given backoff between the two
// attempts. A zero backoff selects the default of one second.
func NewFetcher(backoff time.Duration, logger *logging.Logger) *Fetcher {
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Fetcher{
		// Per-attempt deadlines come from the request context, so the
		// client itself carries no timeout.
		client:  &http.Client{},
		backoff: backoff,
		logger:  logger,
	}
}

// Fetch retrieves the raw payload for one source. A source that requires a
// credential and has none fails immediately with a configuration error and
// no network call. Transient failures (network, timeout, non-2xx) are
// retried once after the backoff; the retry's failure is the one surfaced.
func (f *Fetcher) Fetch(ctx context.Context, strat Strategy, desc Descriptor) ([]byte, *FetchError) {
	if desc.RequiresKey && desc.APIKey == "" {
		return nil, &FetchError{
			Source:  desc.Name,
			Kind:    KindConfiguration,
			Message: "API key required but not configured",
		}
	}

	var lastErr *FetchError
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.RecordFetchRetry(desc.Name)
			f.logger.Debug("Retrying fetch", "source", desc.Name, "backoff", f.backoff.String())
			select {
			case <-time.After(f.backoff):
			case <-ctx.Done():
				return nil, newTimeoutError(desc.Name)
			}
		}

		body, ferr := f.attempt(ctx, strat, desc)
		if ferr == nil {
			metrics.RecordFetchAttempt(desc.Name, "success")
			return body, nil
		}

		metrics.RecordFetchAttempt(desc.Name, string(ferr.Kind))
		f.logger.Warn("Fetch attempt failed",
			"source", desc.Name, "attempt", attempt+1, "kind", string(ferr.Kind), "error", ferr.Message)
		lastErr = ferr
		if !ferr.Transient() {
			break
		}
	}

	return nil, lastErr
}

// attempt performs a single GET bounded by the descriptor's timeout.
func (f *Fetcher) attempt(ctx context.Context, strat Strategy, desc Descriptor) ([]byte, *FetchError) {
	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := strat.BuildRequest(attemptCtx, desc)
	if err != nil {
		return nil, &FetchError{Source: desc.Name, Kind: KindConfiguration, Message: err.Error()}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() != nil {
			return nil, newTimeoutError(desc.Name)
		}
		return nil, &FetchError{Source: desc.Name, Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if ferr := strat.ClassifyStatus(resp.StatusCode); ferr != nil {
		ferr.Source = desc.Name
		return nil, ferr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: desc.Name, Kind: KindNetwork, Message: err.Error()}
	}
	return body, nil
}
