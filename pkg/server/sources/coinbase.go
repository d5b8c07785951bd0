package sources

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	coinbaseName    = "coinbase"
	coinbaseURL     = "https://api.coinbase.com/v2/exchange-rates"
	coinbaseTimeout = 8 * time.Second
)

// coinbaseStrategy reads BTC exchange rates from Coinbase. A rate already
// expresses 1 BTC valued in the quoted currency, so it is used directly and
// never inverted.
type coinbaseStrategy struct {
	restStrategy
}

// coinbaseResponse represents the exchange-rates envelope.
type coinbaseResponse struct {
	Data struct {
		Currency string            `json:"currency"`
		Rates    map[string]string `json:"rates"`
	} `json:"data"`
}

func (coinbaseStrategy) DefaultDescriptor() Descriptor {
	return Descriptor{
		Name:    coinbaseName,
		URL:     coinbaseURL,
		Timeout: coinbaseTimeout,
		Params:  map[string]string{"currency": "BTC"},
	}
}

// Normalize extracts the USD, EUR and GBP rates.
func (coinbaseStrategy) Normalize(body []byte, now time.Time) (*PriceRecord, *FetchError) {
	var resp coinbaseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newParseError(coinbaseName, "failed to unmarshal response: %v", err)
	}

	usd, ferr := coinbaseRate(resp.Data.Rates, "USD")
	if ferr != nil {
		return nil, ferr
	}
	eur, ferr := coinbaseRate(resp.Data.Rates, "EUR")
	if ferr != nil {
		return nil, ferr
	}
	gbp, ferr := coinbaseRate(resp.Data.Rates, "GBP")
	if ferr != nil {
		return nil, ferr
	}

	return &PriceRecord{
		Source:    coinbaseName,
		USD:       usd,
		EUR:       dec(eur),
		GBP:       dec(gbp),
		Timestamp: now,
	}, nil
}

func coinbaseRate(rates map[string]string, code string) (decimal.Decimal, *FetchError) {
	raw, ok := rates[code]
	if !ok {
		return decimal.Zero, newParseError(coinbaseName, "missing %s rate", code)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, newParseError(coinbaseName, "invalid %s rate %q", code, raw)
	}
	return d, nil
}

func init() {
	Register(coinbaseStrategy{})
}
