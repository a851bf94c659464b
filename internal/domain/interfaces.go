package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Connector is the abstract exchange connectivity layer for one venue leg.
// Query methods populate the associated VenueState in place; the engine loop
// is the only caller, so implementations need no internal locking of state.
type Connector interface {
	// LoadMarkets resolves instrument metadata (price precision, minimum
	// order size) into the venue state. Failure at startup is fatal.
	LoadMarkets(ctx context.Context) error

	// FetchBalance refreshes free/used balances for base and quote assets.
	FetchBalance(ctx context.Context) error

	// FetchOrderBook refreshes best bid/ask price+size and the book timestamp.
	FetchOrderBook(ctx context.Context) error

	// CreateOrder places a market order for qty base units and reports the
	// immediate execution outcome.
	CreateOrder(ctx context.Context, side string, qty decimal.Decimal) (OrderResult, error)

	// CancelOrder cancels the unfilled remainder of an order.
	CancelOrder(ctx context.Context, orderID string) error

	// State returns the venue state this connector populates.
	State() *VenueState
}

// HistoryStore provides historical top-of-book rows for warming up the
// spread series at startup.
type HistoryStore interface {
	// FetchOne returns the quotes recorded for a venue at a unix second,
	// or an empty slice when nothing was recorded then.
	FetchOne(venueID string, timestamp int64) ([]Quote, error)

	// SaveQuote persists a live top-of-book observation.
	SaveQuote(q *Quote) error
}

// AlertSink receives structured operational events (signal detected, trade
// executed, unhedged exposure). Append-only, side-effect only; delivery
// failures are logged and never block the engine.
type AlertSink interface {
	Notify(ctx context.Context, a Alert)
}
