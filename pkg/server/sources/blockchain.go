package sources

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	blockchainName    = "blockchain"
	blockchainURL     = "https://blockchain.info/ticker"
	blockchainTimeout = 8 * time.Second
)

// blockchainStrategy reads the blockchain.info ticker, a map keyed by
// currency code with the last trade price per currency.
type blockchainStrategy struct {
	restStrategy
}

// blockchainTicker is one currency entry of the ticker map.
type blockchainTicker struct {
	Last   float64 `json:"last"`
	Buy    float64 `json:"buy"`
	Sell   float64 `json:"sell"`
	Symbol string  `json:"symbol"`
}

func (blockchainStrategy) DefaultDescriptor() Descriptor {
	return Descriptor{
		Name:    blockchainName,
		URL:     blockchainURL,
		Timeout: blockchainTimeout,
	}
}

// Normalize extracts the USD, EUR and GBP last prices.
func (blockchainStrategy) Normalize(body []byte, now time.Time) (*PriceRecord, *FetchError) {
	var resp map[string]blockchainTicker
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newParseError(blockchainName, "failed to unmarshal response: %v", err)
	}

	usd, ferr := blockchainLast(resp, "USD")
	if ferr != nil {
		return nil, ferr
	}
	eur, ferr := blockchainLast(resp, "EUR")
	if ferr != nil {
		return nil, ferr
	}
	gbp, ferr := blockchainLast(resp, "GBP")
	if ferr != nil {
		return nil, ferr
	}

	return &PriceRecord{
		Source:    blockchainName,
		USD:       usd,
		EUR:       dec(eur),
		GBP:       dec(gbp),
		Timestamp: now,
	}, nil
}

func blockchainLast(tickers map[string]blockchainTicker, code string) (decimal.Decimal, *FetchError) {
	ticker, ok := tickers[code]
	if !ok {
		return decimal.Zero, newParseError(blockchainName, "missing %s ticker", code)
	}
	if ticker.Last == 0 {
		return decimal.Zero, newParseError(blockchainName, "missing last price for %s", code)
	}
	return decimal.NewFromFloat(ticker.Last), nil
}

func init() {
	Register(blockchainStrategy{})
}
