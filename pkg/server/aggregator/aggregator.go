package aggregator

import (
	"context"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/metrics"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/sources"
)

// defaultDeadline bounds one full fan-out. It is a safety net above the
// per-source timeout/retry budgets, guarding against several sources each
// retrying slowly at once.
const defaultDeadline = 60 * time.Second

// Aggregator queries all registered sources concurrently and collects one
// outcome per source, never letting one source's failure or slowness abort
// the others.
type Aggregator struct {
	query    *Query
	deadline time.Duration
	logger   *logging.Logger
}

// New creates an aggregator over the given query. A zero deadline selects
// the default of 60 seconds.
func New(query *Query, deadline time.Duration, logger *logging.Logger) *Aggregator {
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Aggregator{
		query:    query,
		deadline: deadline,
		logger:   logger,
	}
}

// FetchAll fans one fetch-and-normalize unit of work out per registered
// source under a single global deadline. Every registered source yields
// exactly one outcome; successes and failures sum to the registry size.
func (a *Aggregator) FetchAll(ctx context.Context) *sources.Report {
	start := time.Now()
	names := a.query.Registry().List()

	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	type result struct {
		name    string
		outcome sources.Outcome
	}

	// Buffered to registry size so late finishers never block after the
	// deadline fired; their results are simply discarded.
	results := make(chan result, len(names))
	outcomes := make(map[string]sources.Outcome, len(names))
	inFlight := 0

	for _, name := range names {
		desc, _, ferr := a.query.Registry().Resolve(name)
		if ferr != nil {
			outcomes[name] = sources.Outcome{Err: ferr}
			continue
		}
		if desc.RequiresKey && desc.APIKey == "" {
			// Recorded immediately: no concurrency slot, no network attempt.
			outcomes[name] = sources.Outcome{Err: &sources.FetchError{
				Source:  name,
				Kind:    sources.KindConfiguration,
				Message: "API key required but not configured",
			}}
			continue
		}

		inFlight++
		go func(name string) {
			results <- result{name: name, outcome: a.query.Fetch(ctx, name)}
		}(name)
	}

	for inFlight > 0 {
		select {
		case r := <-results:
			outcomes[r.name] = r.outcome
			inFlight--
		case <-ctx.Done():
			// Units still in flight are abandoned and recorded as timed out.
			for _, name := range names {
				if _, ok := outcomes[name]; !ok {
					outcomes[name] = sources.Outcome{Err: &sources.FetchError{
						Source:  name,
						Kind:    sources.KindTimeout,
						Message: "global deadline reached",
					}}
				}
			}
			inFlight = 0
		}
	}

	report := &sources.Report{
		Outcomes:  outcomes,
		Timestamp: time.Now().UTC(),
	}
	for _, outcome := range outcomes {
		if outcome.OK() {
			report.Successes++
		} else {
			report.Failures++
		}
	}

	metrics.RecordAggregate(time.Since(start), report.Successes, report.Failures)
	a.logger.Info("Completed fan-out",
		"sources", len(names),
		"successes", report.Successes,
		"failures", report.Failures,
		"elapsed", time.Since(start).String())

	return report
}
