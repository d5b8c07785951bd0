package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/config"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/aggregator"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/server/sources"
	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/weather"
)

const coinbasePayload = `{"data":{"currency":"BTC","rates":{"USD":"50000","EUR":"46000","GBP":"40000"}}}`

func newTestAPI(t *testing.T, cfgs []config.SourceConfig) *httptest.Server {
	t.Helper()

	registry, err := sources.NewRegistry(cfgs)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	fetcher := sources.NewFetcher(10*time.Millisecond, nil)
	query := aggregator.NewQuery(registry, fetcher, nil)
	agg := aggregator.New(query, 5*time.Second, nil)
	weatherClient := weather.NewClient(config.WeatherConfig{}, nil)

	server := NewServer(":0", query, agg, weatherClient, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func upstream(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHandleHealth(t *testing.T) {
	ts := newTestAPI(t, []config.SourceConfig{{Name: "coinbase", Enabled: true}})

	var body map[string]string
	if status := getJSON(t, ts.URL+"/health", &body); status != http.StatusOK {
		t.Errorf("Expected 200, got %d", status)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body)
	}
}

func TestHandleBitcoinSource(t *testing.T) {
	src := upstream(t, coinbasePayload)
	ts := newTestAPI(t, []config.SourceConfig{{Name: "coinbase", Enabled: true, URL: src.URL}})

	var record map[string]interface{}
	if status := getJSON(t, ts.URL+"/bitcoin/source/coinbase", &record); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if record["source"] != "coinbase" {
		t.Errorf("Expected source coinbase, got %v", record["source"])
	}
	if record["usd"] != "50000" {
		t.Errorf("Expected usd 50000, got %v", record["usd"])
	}
}

func TestHandleBitcoinSourceInvalid(t *testing.T) {
	ts := newTestAPI(t, []config.SourceConfig{{Name: "coinbase", Enabled: true}})

	var body map[string]string
	if status := getJSON(t, ts.URL+"/bitcoin/source/bitfinex", &body); status != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", status)
	}
	if body["kind"] != "invalid_source" {
		t.Errorf("Expected kind invalid_source, got %v", body["kind"])
	}
}

func TestHandleBitcoinSourceMissingKey(t *testing.T) {
	ts := newTestAPI(t, []config.SourceConfig{{Name: "coinmarketcap", Enabled: true}})

	var body map[string]string
	if status := getJSON(t, ts.URL+"/bitcoin/source/coinmarketcap", &body); status != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", status)
	}
	if body["kind"] != "configuration_error" {
		t.Errorf("Expected kind configuration_error, got %v", body["kind"])
	}
}

func TestHandleBitcoinAll(t *testing.T) {
	good := upstream(t, coinbasePayload)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)

	ts := newTestAPI(t, []config.SourceConfig{
		{Name: "coinbase", Enabled: true, URL: good.URL},
		{Name: "kraken", Enabled: true, URL: bad.URL},
	})

	var body struct {
		BitcoinPrices     map[string]map[string]interface{} `json:"bitcoin_prices"`
		Timestamp         string                            `json:"timestamp"`
		SuccessfulSources int                               `json:"successful_sources"`
		FailedSources     int                               `json:"failed_sources"`
	}
	if status := getJSON(t, ts.URL+"/bitcoin/all", &body); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	if len(body.BitcoinPrices) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(body.BitcoinPrices))
	}
	if body.SuccessfulSources != 1 || body.FailedSources != 1 {
		t.Errorf("Expected 1 success and 1 failure, got %d/%d", body.SuccessfulSources, body.FailedSources)
	}
	if body.BitcoinPrices["coinbase"]["usd"] != "50000" {
		t.Errorf("Expected coinbase usd 50000, got %v", body.BitcoinPrices["coinbase"]["usd"])
	}
	if body.BitcoinPrices["kraken"]["kind"] != "http_error" {
		t.Errorf("Expected kraken http_error, got %v", body.BitcoinPrices["kraken"])
	}
	if _, err := time.Parse(timestampLayout, body.Timestamp); err != nil {
		t.Errorf("Unexpected timestamp format: %s", body.Timestamp)
	}
}

func TestHandleWeatherNoKey(t *testing.T) {
	ts := newTestAPI(t, []config.SourceConfig{{Name: "coinbase", Enabled: true}})

	var body map[string]string
	if status := getJSON(t, ts.URL+"/weather/London", &body); status != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", status)
	}
	if body["error"] == "" {
		t.Error("Expected an error message")
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind sources.ErrorKind
		want int
	}{
		{sources.KindInvalidSource, http.StatusBadRequest},
		{sources.KindConfiguration, http.StatusInternalServerError},
		{sources.KindTimeout, http.StatusGatewayTimeout},
		{sources.KindNetwork, http.StatusServiceUnavailable},
		{sources.KindHTTP, http.StatusBadGateway},
		{sources.KindParse, http.StatusBadGateway},
		{sources.ErrorKind("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
