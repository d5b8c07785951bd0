package sources

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	krakenName    = "kraken"
	krakenURL     = "https://api.kraken.com/0/public/Ticker"
	krakenTimeout = 8 * time.Second

	// Kraken answers a XBTUSD request with its own prefixed pair name.
	krakenPairKey = "XXBTZUSD"
)

// krakenStrategy reads the BTC/USD ticker keyed by trading pair under a
// result envelope.
type krakenStrategy struct {
	restStrategy
}

// krakenTickerData represents ticker data for a single pair.
type krakenTickerData struct {
	A []string `json:"a"` // Ask [price, whole lot volume, lot volume]
	B []string `json:"b"` // Bid [price, whole lot volume, lot volume]
	C []string `json:"c"` // Last trade [price, lot volume]
	V []string `json:"v"` // Volume [today, last 24 hours]
}

// krakenResponse represents the API response.
type krakenResponse struct {
	Error  []string                    `json:"error"`
	Result map[string]krakenTickerData `json:"result"`
}

func (krakenStrategy) DefaultDescriptor() Descriptor {
	return Descriptor{
		Name:    krakenName,
		URL:     krakenURL,
		Timeout: krakenTimeout,
		Params:  map[string]string{"pair": "XBTUSD"},
	}
}

// Normalize extracts the last trade price of the fixed trading pair.
// Absence of the pair key is a parse error, never a silent zero.
func (krakenStrategy) Normalize(body []byte, now time.Time) (*PriceRecord, *FetchError) {
	var resp krakenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newParseError(krakenName, "failed to unmarshal response: %v", err)
	}

	if len(resp.Error) > 0 {
		return nil, newParseError(krakenName, "API errors: %s", strings.Join(resp.Error, ", "))
	}

	ticker, ok := resp.Result[krakenPairKey]
	if !ok {
		return nil, newParseError(krakenName, "missing %s pair in result", krakenPairKey)
	}
	if len(ticker.C) == 0 || ticker.C[0] == "" {
		return nil, newParseError(krakenName, "missing last trade price for %s", krakenPairKey)
	}
	price, err := decimal.NewFromString(ticker.C[0])
	if err != nil {
		return nil, newParseError(krakenName, "invalid last trade price %q", ticker.C[0])
	}

	return &PriceRecord{
		Source:    krakenName,
		USD:       price,
		Timestamp: now,
	}, nil
}

func init() {
	Register(krakenStrategy{})
}
