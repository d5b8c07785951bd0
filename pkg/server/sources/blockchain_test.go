package sources

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBlockchainNormalize(t *testing.T) {
	body := []byte(`{"USD":{"last":64000.12,"buy":64000,"sell":64001,"symbol":"$"},"EUR":{"last":59000.5,"symbol":"€"},"GBP":{"last":50500.25,"symbol":"£"}}`)

	record, ferr := blockchainStrategy{}.Normalize(body, time.Now())
	if ferr != nil {
		t.Fatalf("Normalize failed: %v", ferr)
	}

	if !record.USD.Equal(decimal.RequireFromString("64000.12")) {
		t.Errorf("Expected USD 64000.12, got %s", record.USD)
	}
	if record.EUR == nil || !record.EUR.Equal(decimal.RequireFromString("59000.5")) {
		t.Errorf("Expected EUR 59000.5, got %v", record.EUR)
	}
	if record.GBP == nil || !record.GBP.Equal(decimal.RequireFromString("50500.25")) {
		t.Errorf("Expected GBP 50500.25, got %v", record.GBP)
	}
}

func TestBlockchainNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing EUR ticker", `{"USD":{"last":64000},"GBP":{"last":50500}}`},
		{"zero last price", `{"USD":{"last":0},"EUR":{"last":59000},"GBP":{"last":50500}}`},
		{"malformed JSON", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ferr := blockchainStrategy{}.Normalize([]byte(tt.body), time.Now())
			if ferr == nil {
				t.Fatal("Expected error, got nil")
			}
			if ferr.Kind != KindParse {
				t.Errorf("Expected kind %s, got %s", KindParse, ferr.Kind)
			}
		})
	}
}
