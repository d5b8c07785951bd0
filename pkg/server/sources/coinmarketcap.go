package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	coinmarketcapName    = "coinmarketcap"
	coinmarketcapURL     = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/quotes/latest"
	coinmarketcapTimeout = 8 * time.Second
)

// coinMarketCapStrategy reads BTC market data from the CoinMarketCap pro
// API. This is the only source that requires a credential.
type coinMarketCapStrategy struct {
	restStrategy
}

// coinMarketCapQuote represents a quote in one convert currency.
type coinMarketCapQuote struct {
	Price            float64 `json:"price"`
	Volume24h        float64 `json:"volume_24h"`
	PercentChange24h float64 `json:"percent_change_24h"`
	MarketCap        float64 `json:"market_cap"`
}

// coinMarketCapData represents cryptocurrency data.
type coinMarketCapData struct {
	Symbol string                        `json:"symbol"`
	Quote  map[string]coinMarketCapQuote `json:"quote"`
}

// coinMarketCapResponse represents the API response envelope.
type coinMarketCapResponse struct {
	Status struct {
		Timestamp    string `json:"timestamp"`
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]coinMarketCapData `json:"data"`
}

func (coinMarketCapStrategy) DefaultDescriptor() Descriptor {
	return Descriptor{
		Name:        coinmarketcapName,
		URL:         coinmarketcapURL,
		RequiresKey: true,
		Timeout:     coinmarketcapTimeout,
		Params: map[string]string{
			"symbol":  "BTC",
			"convert": "USD",
		},
	}
}

// BuildRequest adds the credential header on top of the shared GET building.
func (s coinMarketCapStrategy) BuildRequest(ctx context.Context, desc Descriptor) (*http.Request, error) {
	req, err := s.restStrategy.BuildRequest(ctx, desc)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-CMC_PRO_API_KEY", desc.APIKey)
	return req, nil
}

// Normalize extracts price, 24h change, market cap and 24h volume from the
// USD quote. An API-level error in the envelope is a parse error: the
// payload arrived but is not usable.
func (coinMarketCapStrategy) Normalize(body []byte, now time.Time) (*PriceRecord, *FetchError) {
	var resp coinMarketCapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newParseError(coinmarketcapName, "failed to unmarshal response: %v", err)
	}

	if resp.Status.ErrorCode != 0 {
		return nil, newParseError(coinmarketcapName, "API error %d: %s",
			resp.Status.ErrorCode, resp.Status.ErrorMessage)
	}

	data, ok := resp.Data["BTC"]
	if !ok {
		return nil, newParseError(coinmarketcapName, "missing BTC data")
	}
	quote, ok := data.Quote["USD"]
	if !ok {
		return nil, newParseError(coinmarketcapName, "missing USD quote")
	}
	if quote.Price == 0 {
		return nil, newParseError(coinmarketcapName, "missing USD price")
	}

	return &PriceRecord{
		Source:    coinmarketcapName,
		USD:       decimal.NewFromFloat(quote.Price),
		Change24h: dec(decimal.NewFromFloat(quote.PercentChange24h)),
		MarketCap: dec(decimal.NewFromFloat(quote.MarketCap)),
		Volume24h: dec(decimal.NewFromFloat(quote.Volume24h)),
		Timestamp: now,
	}, nil
}

func init() {
	Register(coinMarketCapStrategy{})
}
