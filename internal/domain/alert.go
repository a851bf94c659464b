package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert kinds emitted by the engine.
const (
	AlertSignal       = "SIGNAL"       // a directional decision was produced
	AlertTrade        = "TRADE"        // both legs executed
	AlertCycleSkipped = "CYCLE_SKIPPED"
	AlertUnhedged     = "UNHEDGED_EXPOSURE" // leg 2 exhausted its retry budget
)

// Alert is a structured operational event for the alert sink.
type Alert struct {
	Kind      string          `json:"kind"`
	Symbol    string          `json:"symbol"`
	Direction string          `json:"direction,omitempty"`
	Qty       decimal.Decimal `json:"qty,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	At        time.Time       `json:"at"`
}

// NewAlert creates an alert stamped with the current time.
func NewAlert(kind, symbol, direction, detail string, qty decimal.Decimal) Alert {
	return Alert{
		Kind:      kind,
		Symbol:    symbol,
		Direction: direction,
		Qty:       qty,
		Detail:    detail,
		At:        time.Now(),
	}
}
