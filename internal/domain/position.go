package domain

import "github.com/shopspring/decimal"

// Direction is the current position direction across the two venues.
type Direction int

const (
	Flat        Direction = 0
	LongSpreadA Direction = 1 // sold venue 1, bought venue 2
	LongSpreadB Direction = 2 // bought venue 1, sold venue 2
)

// String returns the string representation of Direction
func (d Direction) String() string {
	switch d {
	case LongSpreadA:
		return "LONG_SPREAD_A"
	case LongSpreadB:
		return "LONG_SPREAD_B"
	default:
		return "FLAT"
	}
}

// Position tracks open notional on each directional bet.
// Invariant: at most one of SpreadAQty/SpreadBQty is positive, and the
// direction is Flat iff both are zero. Venue balances are the ground truth;
// these quantities are a cache that is re-derived after connector failures.
type Position struct {
	Direction  Direction
	SpreadAQty decimal.Decimal
	SpreadBQty decimal.Decimal
}

// Recompute re-derives the direction from the open quantities. Called after
// every execution so the direction never drifts from the quantities.
func (p *Position) Recompute() {
	switch {
	case p.SpreadAQty.IsPositive():
		p.Direction = LongSpreadA
	case p.SpreadBQty.IsPositive():
		p.Direction = LongSpreadB
	default:
		p.Direction = Flat
	}
}

// FromBalances reconstructs the position from venue balances at startup.
// A used base balance on a short-capable leg implies an open short there,
// which is the first leg of the corresponding spread position.
// A used balance on both legs would violate the one-side invariant; the
// spread A leg wins and the other is left for manual reconciliation.
func FromBalances(v1, v2 *VenueState) Position {
	var p Position
	switch {
	case v1.BaseUsed.IsPositive():
		p.SpreadAQty = v1.BaseUsed
	case v2.BaseUsed.IsPositive():
		p.SpreadBQty = v2.BaseUsed
	}
	p.Recompute()
	return p
}

// ApplyFill books a hedged fill of qty in the given decision direction.
// Opening or extending increments the matching side; a fill against the
// opposite open side reduces it (the reduce/flip path).
func (p *Position) ApplyFill(decision Direction, qty decimal.Decimal) {
	switch decision {
	case LongSpreadA:
		if p.Direction == LongSpreadB {
			p.SpreadBQty = p.SpreadBQty.Sub(qty)
			if p.SpreadBQty.IsNegative() {
				p.SpreadBQty = decimal.Zero
			}
		} else {
			p.SpreadAQty = p.SpreadAQty.Add(qty)
		}
	case LongSpreadB:
		if p.Direction == LongSpreadA {
			p.SpreadAQty = p.SpreadAQty.Sub(qty)
			if p.SpreadAQty.IsNegative() {
				p.SpreadAQty = decimal.Zero
			}
		} else {
			p.SpreadBQty = p.SpreadBQty.Add(qty)
		}
	}
	p.Recompute()
}

// OpenOppositeQty returns the quantity currently open against the given
// decision direction. Zero when flat or already aligned.
func (p *Position) OpenOppositeQty(decision Direction) decimal.Decimal {
	if decision == LongSpreadA && p.Direction == LongSpreadB {
		return p.SpreadBQty
	}
	if decision == LongSpreadB && p.Direction == LongSpreadA {
		return p.SpreadAQty
	}
	return decimal.Zero
}
