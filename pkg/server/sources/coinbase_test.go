package sources

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCoinbaseNormalize(t *testing.T) {
	body := []byte(`{"data":{"currency":"BTC","rates":{"USD":"50000","EUR":"46000","GBP":"40000"}}}`)

	now := time.Now().UTC()
	record, ferr := coinbaseStrategy{}.Normalize(body, now)
	if ferr != nil {
		t.Fatalf("Normalize failed: %v", ferr)
	}

	if record.Source != "coinbase" {
		t.Errorf("Expected source 'coinbase', got '%s'", record.Source)
	}
	if !record.USD.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("Expected USD 50000, got %s", record.USD)
	}
	if record.EUR == nil || !record.EUR.Equal(decimal.RequireFromString("46000")) {
		t.Errorf("Expected EUR 46000, got %v", record.EUR)
	}
	if record.GBP == nil || !record.GBP.Equal(decimal.RequireFromString("40000")) {
		t.Errorf("Expected GBP 40000, got %v", record.GBP)
	}
	if !record.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, record.Timestamp)
	}
}

func TestCoinbaseNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"data":`},
		{"missing rates", `{"data":{"currency":"BTC"}}`},
		{"missing GBP", `{"data":{"rates":{"USD":"50000","EUR":"46000"}}}`},
		{"non-numeric rate", `{"data":{"rates":{"USD":"fifty","EUR":"46000","GBP":"40000"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ferr := coinbaseStrategy{}.Normalize([]byte(tt.body), time.Now())
			if ferr == nil {
				t.Fatal("Expected error, got nil")
			}
			if ferr.Kind != KindParse {
				t.Errorf("Expected kind %s, got %s", KindParse, ferr.Kind)
			}
		})
	}
}
