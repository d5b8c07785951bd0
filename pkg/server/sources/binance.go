package sources

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	binanceName    = "binance"
	binanceURL     = "https://api.binance.com/api/v3/ticker/price"
	binanceTimeout = 5 * time.Second
)

// binanceStrategy reads the lightweight BTCUSDT price ticker.
type binanceStrategy struct {
	restStrategy
}

// binancePriceTicker represents the /ticker/price response.
type binancePriceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (binanceStrategy) DefaultDescriptor() Descriptor {
	return Descriptor{
		Name:    binanceName,
		URL:     binanceURL,
		Timeout: binanceTimeout,
		Params:  map[string]string{"symbol": "BTCUSDT"},
	}
}

// Normalize extracts the single price field.
func (binanceStrategy) Normalize(body []byte, now time.Time) (*PriceRecord, *FetchError) {
	var ticker binancePriceTicker
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, newParseError(binanceName, "failed to unmarshal response: %v", err)
	}

	if ticker.Price == "" {
		return nil, newParseError(binanceName, "missing price field")
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return nil, newParseError(binanceName, "invalid price %q", ticker.Price)
	}

	return &PriceRecord{
		Source:    binanceName,
		USD:       price,
		Timestamp: now,
	}, nil
}

func init() {
	Register(binanceStrategy{})
}
