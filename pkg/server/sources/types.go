package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Descriptor describes how to reach one upstream price source. Descriptors
// are built once from configuration at startup and read-only afterwards.
type Descriptor struct {
	Name        string
	URL         string
	RequiresKey bool
	APIKey      string
	Timeout     time.Duration
	Params      map[string]string
	Headers     map[string]string
}

// Strategy covers everything source-specific about one upstream: its default
// endpoint descriptor, request building, HTTP status classification, and
// payload normalization. One implementation per source identifier,
// registered via Register.
type Strategy interface {
	// DefaultDescriptor returns the built-in endpoint descriptor. The maps
	// inside must be freshly allocated so callers can override entries.
	DefaultDescriptor() Descriptor

	// BuildRequest resolves the descriptor into a single GET request.
	BuildRequest(ctx context.Context, desc Descriptor) (*http.Request, error)

	// ClassifyStatus maps an HTTP status code to nil (usable payload) or a
	// FetchError. The fetcher fills in the source name.
	ClassifyStatus(status int) *FetchError

	// Normalize converts the raw payload into a canonical price record.
	// Any structural surprise yields a parse error, never a panic.
	Normalize(body []byte, now time.Time) (*PriceRecord, *FetchError)
}

// PriceRecord is the canonical, source-agnostic price representation.
// The primary price is always USD regardless of source. Optional fields are
// present only when the source supplies them.
type PriceRecord struct {
	Source         string           `json:"source"`
	USD            decimal.Decimal  `json:"usd"`
	EUR            *decimal.Decimal `json:"eur,omitempty"`
	GBP            *decimal.Decimal `json:"gbp,omitempty"`
	Change24h      *decimal.Decimal `json:"24h_change,omitempty"`
	MarketCap      *decimal.Decimal `json:"market_cap,omitempty"`
	Volume24h      *decimal.Decimal `json:"volume_24h,omitempty"`
	LastTradePrice *decimal.Decimal `json:"last_trade_price,omitempty"`
	BestBid        *decimal.Decimal `json:"best_bid,omitempty"`
	BestAsk        *decimal.Decimal `json:"best_ask,omitempty"`
	Spread         *decimal.Decimal `json:"spread,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Outcome is the result of one fetch-and-normalize unit of work: either a
// canonical record or a structured error, never both.
type Outcome struct {
	Record *PriceRecord
	Err    *FetchError
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// MarshalJSON renders a record as-is and a failure as an error object.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(struct {
			Error string    `json:"error"`
			Kind  ErrorKind `json:"kind"`
		}{Error: o.Err.Message, Kind: o.Err.Kind})
	}
	return json.Marshal(o.Record)
}

// Report is the combined result of one fan-out across all registered
// sources. Every registered source has exactly one outcome; successes and
// failures sum to the registry size.
type Report struct {
	Outcomes  map[string]Outcome
	Successes int
	Failures  int
	Timestamp time.Time
}

// dec returns a pointer to d, for the optional record fields.
func dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}
