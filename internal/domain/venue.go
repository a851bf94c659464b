package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Capability describes what a venue can do. The sizing calculator consults
// this instead of branching on venue identity.
type Capability struct {
	SupportsShort bool `yaml:"supports_short" json:"supports_short"` // margin short selling available
	UsesMargin    bool `yaml:"uses_margin" json:"uses_margin"`       // orders carry a leverage parameter
}

// VenueState is the per-leg view of one exchange: instrument metadata, the
// latest top-of-book quote and the account balances backing it.
// It is owned by the engine loop and mutated only by the venue connector's
// query results.
type VenueState struct {
	ID     string // connector identifier, e.g. "bitmesh"
	Symbol string // instrument on this venue, e.g. "BTC/USDT"

	// Top of book
	BidPrice decimal.Decimal
	BidQty   decimal.Decimal
	AskPrice decimal.Decimal
	AskQty   decimal.Decimal
	BookTime time.Time

	// Market metadata, populated by LoadMarkets
	PricePrecision int32
	MinOrderQty    decimal.Decimal

	// Fee rates per side (fraction, e.g. 0.001)
	LongFee  decimal.Decimal
	ShortFee decimal.Decimal

	Capability Capability

	// Balances: base = instrument asset, quote = settlement asset
	BaseFree  decimal.Decimal
	BaseUsed  decimal.Decimal
	QuoteFree decimal.Decimal
	QuoteUsed decimal.Decimal
}

// HasQuote reports whether the current top of book is usable. A venue that
// has not yet received a book, or received a degenerate one, must never
// contribute samples to the spread series.
func (v *VenueState) HasQuote() bool {
	return v.BidPrice.IsPositive() && v.AskPrice.IsPositive()
}

// QuoteAge returns how old the current book is relative to now.
func (v *VenueState) QuoteAge(now time.Time) time.Duration {
	return now.Sub(v.BookTime)
}

// RoundToPrecision rounds a price to this venue's price precision.
func (v *VenueState) RoundToPrecision(p decimal.Decimal) decimal.Decimal {
	return p.Round(v.PricePrecision)
}
