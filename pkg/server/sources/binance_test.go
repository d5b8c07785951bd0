package sources

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBinanceNormalize(t *testing.T) {
	body := []byte(`{"symbol":"BTCUSDT","price":"64123.45000000"}`)

	record, ferr := binanceStrategy{}.Normalize(body, time.Now())
	if ferr != nil {
		t.Fatalf("Normalize failed: %v", ferr)
	}
	if !record.USD.Equal(decimal.RequireFromString("64123.45")) {
		t.Errorf("Expected USD 64123.45, got %s", record.USD)
	}
}

func TestBinanceNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing price", `{"symbol":"BTCUSDT"}`},
		{"non-numeric price", `{"symbol":"BTCUSDT","price":"n/a"}`},
		{"malformed JSON", `[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ferr := binanceStrategy{}.Normalize([]byte(tt.body), time.Now())
			if ferr == nil {
				t.Fatal("Expected error, got nil")
			}
			if ferr.Kind != KindParse {
				t.Errorf("Expected kind %s, got %s", KindParse, ferr.Kind)
			}
		})
	}
}
