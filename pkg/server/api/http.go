// Package api provides the HTTP and WebSocket endpoints of the price and
// weather service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/logging"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/metrics"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/aggregator"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/cache"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/sources"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/version"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/weather"
)

const timestampLayout = "2006-01-02 15:04:05"

// Server represents the HTTP API server.
type Server struct {
	addr       string
	query      *aggregator.Query
	aggregator *aggregator.Aggregator
	weather    *weather.Client
	server     *http.Server
	logger     *logging.Logger
	cache      *cache.ReportCache // optional
	hub        *Hub               // optional
}

// allResponse is the body of /bitcoin/all.
type allResponse struct {
	BitcoinPrices     map[string]sources.Outcome `json:"bitcoin_prices"`
	Timestamp         string                     `json:"timestamp"`
	SuccessfulSources int                        `json:"successful_sources"`
	FailedSources     int                        `json:"failed_sources"`
}

// errorResponse is the body of every error answer.
type errorResponse struct {
	Error string            `json:"error"`
	Kind  sources.ErrorKind `json:"kind,omitempty"`
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, query *aggregator.Query, agg *aggregator.Aggregator, wc *weather.Client, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Server{
		addr:       addr,
		query:      query,
		aggregator: agg,
		weather:    wc,
		logger:     logger,
	}
}

// SetCache attaches the optional Redis report cache.
func (s *Server) SetCache(c *cache.ReportCache) {
	s.cache = c
}

// SetHub attaches the optional WebSocket hub.
func (s *Server) SetHub(h *Hub) {
	s.hub = h
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /bitcoin/all", s.handleBitcoinAll)
	mux.HandleFunc("GET /bitcoin/source/{source}", s.handleBitcoinSource)
	mux.HandleFunc("GET /weather/test", s.handleWeatherTest)
	mux.HandleFunc("GET /weather/v2/{city}", s.handleWeatherV2)
	mux.HandleFunc("GET /weather/{city}", s.handleWeather)
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.handleWebSocket)
	}
	return mux
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second, // must outlive the fan-out deadline
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRoot answers with a short endpoint directory.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to Weather & Bitcoin API v" + version.Version,
		"endpoints": map[string]any{
			"weather": map[string]string{
				"openweather": "/weather/{city}",
				"weatherapi":  "/weather/v2/{city}",
				"test":        "/weather/test",
			},
			"bitcoin": map[string]string{
				"all_sources":   "/bitcoin/all",
				"single_source": "/bitcoin/source/{source}",
			},
		},
		"available_sources": s.query.Registry().List(),
	})
}

// handleHealth handles the /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	defer func() {
		metrics.RecordHTTPRequest("/health", "200", time.Since(start))
	}()

	s.sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleBitcoinAll runs the full fan-out and returns one outcome per source.
// With the cache attached, a fresh cached report short-circuits the fan-out.
func (s *Server) handleBitcoinAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/bitcoin/all", strconv.Itoa(status), time.Since(start))
	}()

	if s.cache != nil {
		data, err := s.cache.GetReport(r.Context())
		if err != nil {
			s.logger.Warn("Report cache read failed", "error", err.Error())
		} else if data != nil {
			s.sendRaw(w, http.StatusOK, data)
			return
		}
	}

	report := s.aggregator.FetchAll(r.Context())
	payload := allResponse{
		BitcoinPrices:     report.Outcomes,
		Timestamp:         report.Timestamp.Format(timestampLayout),
		SuccessfulSources: report.Successes,
		FailedSources:     report.Failures,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		s.sendJSON(w, status, errorResponse{Error: "failed to encode response"})
		return
	}

	if s.cache != nil {
		if err := s.cache.SetReport(r.Context(), data); err != nil {
			s.logger.Warn("Report cache write failed", "error", err.Error())
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(report)
	}

	s.sendRaw(w, http.StatusOK, data)
}

// handleBitcoinSource fetches exactly one source. The HTTP status is derived
// from the outcome's error kind.
func (s *Server) handleBitcoinSource(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/bitcoin/source", strconv.Itoa(status), time.Since(start))
	}()

	name := r.PathValue("source")
	outcome := s.query.Fetch(r.Context(), name)
	if !outcome.OK() {
		status = statusForKind(outcome.Err.Kind)
		s.sendJSON(w, status, errorResponse{Error: outcome.Err.Message, Kind: outcome.Err.Kind})
		return
	}

	s.sendJSON(w, http.StatusOK, outcome.Record)
}

// handleWeather proxies to OpenWeatherMap.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/weather", strconv.Itoa(status), time.Since(start))
	}()

	obs, err := s.weather.Current(r.Context(), r.PathValue("city"), r.URL.Query().Get("units"))
	if err != nil {
		status = statusForWeatherError(err)
		s.sendJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.sendJSON(w, http.StatusOK, obs)
}

// handleWeatherV2 proxies to WeatherAPI.com with the wttr.in fallback.
func (s *Server) handleWeatherV2(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		metrics.RecordHTTPRequest("/weather/v2", strconv.Itoa(status), time.Since(start))
	}()

	obs, err := s.weather.CurrentAlternative(r.Context(), r.PathValue("city"))
	if err != nil {
		status = statusForWeatherError(err)
		s.sendJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	s.sendJSON(w, http.StatusOK, obs)
}

// handleWeatherTest reports which weather providers currently answer.
func (s *Server) handleWeatherTest(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.weather.Probe(r.Context()))
}

// statusForKind maps a fetch error kind to an HTTP status code.
func statusForKind(kind sources.ErrorKind) int {
	switch kind {
	case sources.KindInvalidSource:
		return http.StatusBadRequest
	case sources.KindConfiguration:
		return http.StatusInternalServerError
	case sources.KindTimeout:
		return http.StatusGatewayTimeout
	case sources.KindNetwork:
		return http.StatusServiceUnavailable
	case sources.KindHTTP, sources.KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// statusForWeatherError maps weather client errors to HTTP status codes.
func statusForWeatherError(err error) int {
	var statusErr *weather.StatusError
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return http.StatusNotFound
	case errors.Is(err, weather.ErrInvalidAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, weather.ErrNoAPIKey):
		return http.StatusInternalServerError
	case errors.As(err, &statusErr):
		return statusErr.Status
	default:
		return http.StatusInternalServerError
	}
}

// sendJSON writes data as a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

// sendRaw writes a pre-serialized JSON body.
func (s *Server) sendRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}
