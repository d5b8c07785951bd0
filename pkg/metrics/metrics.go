// Package metrics provides Prometheus metrics for the price feed service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchAttemptsTotal is a counter of fetch attempts against upstream sources.
	FetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_attempts_total",
			Help: "Total number of fetch attempts against upstream price sources",
		},
		[]string{"source", "outcome"},
	)

	// FetchRetriesTotal is a counter of retried fetches per source.
	FetchRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_retries_total",
			Help: "Total number of retried fetches per source",
		},
		[]string{"source"},
	)

	// FetchDuration is a histogram of per-source fetch durations.
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Duration of fetch-and-normalize operations per source",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// AggregateDuration is a histogram of full fan-out durations.
	AggregateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregate_fetch_duration_seconds",
			Help:    "Duration of the full multi-source fan-out",
			Buckets: prometheus.DefBuckets,
		},
	)

	// AggregateSources is a gauge of per-result source counts of the last fan-out.
	AggregateSources = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aggregate_sources",
			Help: "Number of sources per result class in the last fan-out",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30, 60},
		},
		[]string{"endpoint"},
	)

	// WeatherRequestsTotal is a counter of upstream weather provider calls.
	WeatherRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_requests_total",
			Help: "Total number of upstream weather provider calls",
		},
		[]string{"provider", "status"},
	)
)

// Init registers all metrics with the default Prometheus registry.
func Init() {
	prometheus.MustRegister(
		FetchAttemptsTotal,
		FetchRetriesTotal,
		FetchDuration,
		AggregateDuration,
		AggregateSources,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		WeatherRequestsTotal,
	)
}

// ServeHTTP serves Prometheus metrics on the specified address.
func ServeHTTP(addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// RecordFetchAttempt records one fetch attempt and its outcome.
func RecordFetchAttempt(source, outcome string) {
	FetchAttemptsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordFetchRetry records a retried fetch for a source.
func RecordFetchRetry(source string) {
	FetchRetriesTotal.WithLabelValues(source).Inc()
}

// RecordFetchDuration records the duration of a fetch-and-normalize call.
func RecordFetchDuration(source string, duration time.Duration) {
	FetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordAggregate records a full fan-out: duration plus success/failure counts.
func RecordAggregate(duration time.Duration, successes, failures int) {
	AggregateDuration.Observe(duration.Seconds())
	AggregateSources.WithLabelValues("success").Set(float64(successes))
	AggregateSources.WithLabelValues("failure").Set(float64(failures))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordWeatherRequest records an upstream weather provider call.
func RecordWeatherRequest(provider, status string) {
	WeatherRequestsTotal.WithLabelValues(provider, status).Inc()
}
