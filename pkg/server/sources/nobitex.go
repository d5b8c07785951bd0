package sources

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	nobitexName    = "nobitex"
	nobitexURL     = "https://apiv2.nobitex.ir/v3/orderbook/BTCUSDT"
	nobitexTimeout = 8 * time.Second

	// nobitexStatusOK is the success sentinel the payload must carry.
	nobitexStatusOK = "ok"
)

// nobitexStrategy reads the BTCUSDT order book. The primary price is the
// midpoint of best bid and best ask when both are available, otherwise the
// last trade price.
type nobitexStrategy struct {
	restStrategy
}

// nobitexResponse represents the order book payload. Bids and asks are
// price/amount string pairs, best-priced entry first.
type nobitexResponse struct {
	Status         string     `json:"status"`
	LastUpdate     int64      `json:"lastUpdate"`
	LastTradePrice string     `json:"lastTradePrice"`
	Bids           [][]string `json:"bids"`
	Asks           [][]string `json:"asks"`
}

func (nobitexStrategy) DefaultDescriptor() Descriptor {
	return Descriptor{
		Name:    nobitexName,
		URL:     nobitexURL,
		Timeout: nobitexTimeout,
	}
}

// Normalize derives midpoint, spread and best bid/ask from the order book.
func (nobitexStrategy) Normalize(body []byte, now time.Time) (*PriceRecord, *FetchError) {
	var resp nobitexResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newParseError(nobitexName, "failed to unmarshal response: %v", err)
	}

	if resp.Status != nobitexStatusOK {
		return nil, newParseError(nobitexName, "unexpected status %q", resp.Status)
	}

	lastTrade := decimal.Zero
	if resp.LastTradePrice != "" {
		d, err := decimal.NewFromString(resp.LastTradePrice)
		if err != nil {
			return nil, newParseError(nobitexName, "invalid lastTradePrice %q", resp.LastTradePrice)
		}
		lastTrade = d
	}

	bestBid, ferr := nobitexBestLevel(resp.Bids)
	if ferr != nil {
		return nil, ferr
	}
	bestAsk, ferr := nobitexBestLevel(resp.Asks)
	if ferr != nil {
		return nil, ferr
	}

	// Midpoint when both sides of the book are populated, otherwise the
	// last trade price. Spread follows the same condition.
	usd := lastTrade
	spread := decimal.Zero
	if !bestBid.IsZero() && !bestAsk.IsZero() {
		usd = bestBid.Add(bestAsk).Div(decimal.NewFromInt(2))
		spread = bestAsk.Sub(bestBid)
	}

	return &PriceRecord{
		Source:         nobitexName,
		USD:            usd,
		LastTradePrice: dec(lastTrade),
		BestBid:        dec(bestBid),
		BestAsk:        dec(bestAsk),
		Spread:         dec(spread),
		Timestamp:      now,
	}, nil
}

// nobitexBestLevel returns the price of the first (best-priced) order book
// level, or zero for an empty side.
func nobitexBestLevel(levels [][]string) (decimal.Decimal, *FetchError) {
	if len(levels) == 0 {
		return decimal.Zero, nil
	}
	if len(levels[0]) == 0 {
		return decimal.Zero, newParseError(nobitexName, "empty order book level")
	}
	price, err := decimal.NewFromString(levels[0][0])
	if err != nil {
		return decimal.Zero, newParseError(nobitexName, "invalid order book price %q", levels[0][0])
	}
	return price, nil
}

func init() {
	Register(nobitexStrategy{})
}
