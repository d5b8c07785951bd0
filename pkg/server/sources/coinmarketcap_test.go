package sources

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCoinMarketCapNormalize(t *testing.T) {
	body := []byte(`{
		"status":{"timestamp":"2024-01-01T00:00:00.000Z","error_code":0,"error_message":null},
		"data":{"BTC":{"symbol":"BTC","quote":{"USD":{"price":64500.75,"volume_24h":31000000000,"percent_change_24h":-1.25,"market_cap":1260000000000}}}}
	}`)

	record, ferr := coinMarketCapStrategy{}.Normalize(body, time.Now())
	if ferr != nil {
		t.Fatalf("Normalize failed: %v", ferr)
	}

	if !record.USD.Equal(decimal.RequireFromString("64500.75")) {
		t.Errorf("Expected USD 64500.75, got %s", record.USD)
	}
	if record.Change24h == nil || !record.Change24h.Equal(decimal.RequireFromString("-1.25")) {
		t.Errorf("Expected 24h change -1.25, got %v", record.Change24h)
	}
	if record.MarketCap == nil || record.MarketCap.IsZero() {
		t.Errorf("Expected non-zero market cap, got %v", record.MarketCap)
	}
	if record.Volume24h == nil || record.Volume24h.IsZero() {
		t.Errorf("Expected non-zero 24h volume, got %v", record.Volume24h)
	}
}

func TestCoinMarketCapNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"envelope error", `{"status":{"error_code":1001,"error_message":"This API Key is invalid."},"data":{}}`},
		{"missing BTC", `{"status":{"error_code":0},"data":{}}`},
		{"missing USD quote", `{"status":{"error_code":0},"data":{"BTC":{"quote":{}}}}`},
		{"zero price", `{"status":{"error_code":0},"data":{"BTC":{"quote":{"USD":{"price":0}}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ferr := coinMarketCapStrategy{}.Normalize([]byte(tt.body), time.Now())
			if ferr == nil {
				t.Fatal("Expected error, got nil")
			}
			if ferr.Kind != KindParse {
				t.Errorf("Expected kind %s, got %s", KindParse, ferr.Kind)
			}
		})
	}
}

func TestCoinMarketCapBuildRequestSetsKeyHeader(t *testing.T) {
	strat := coinMarketCapStrategy{}
	desc := strat.DefaultDescriptor()
	desc.APIKey = "test-key"

	req, err := strat.BuildRequest(context.Background(), desc)
	if err != nil {
		t.Fatalf("BuildRequest failed: %v", err)
	}
	if got := req.Header.Get("X-CMC_PRO_API_KEY"); got != "test-key" {
		t.Errorf("Expected credential header 'test-key', got '%s'", got)
	}
	if got := req.URL.Query().Get("symbol"); got != "BTC" {
		t.Errorf("Expected symbol param 'BTC', got '%s'", got)
	}
}
