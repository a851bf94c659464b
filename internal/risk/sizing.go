// Package risk turns a directional decision into an executable order size,
// bounded by visible depth, capital capacity and exchange minimums.
package risk

import (
	"arb_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Sizer computes executable quantities for a decision direction.
type Sizer struct {
	ParticipationRatio decimal.Decimal // fraction of top-of-book depth assumed fillable (default 0.25)
	ExposureDivisor    decimal.Decimal // capital capacity divided by this per trade (default 10)
	FeeSafetyMultiple  decimal.Decimal // edge must exceed round-trip fees times this (default 3)
}

// NewSizer creates a Sizer with the given bounds.
func NewSizer(participation, exposureDivisor, feeSafety decimal.Decimal) *Sizer {
	return &Sizer{
		ParticipationRatio: participation,
		ExposureDivisor:    exposureDivisor,
		FeeSafetyMultiple:  feeSafety,
	}
}

// Quantity returns the executable order size for the decision, or zero when
// no trade should be placed. v1 and v2 are the two legs in fixed order;
// the decision determines which one sells and which one buys.
//
// The candidate starts from visible depth scaled by the participation
// ratio, is capped by the open opposite quantity on the reduce/flip path,
// then by capital capacity over the exposure divisor, and is finally
// rejected outright below either venue's minimum order size.
func (s *Sizer) Quantity(decision domain.Direction, pos *domain.Position, v1, v2 *domain.VenueState) decimal.Decimal {
	sellLeg, buyLeg := legs(decision, v1, v2)
	if sellLeg == nil {
		return decimal.Zero
	}

	qty := decimal.Min(sellLeg.BidQty, buyLeg.AskQty).Mul(s.ParticipationRatio)
	if opposite := pos.OpenOppositeQty(decision); opposite.IsPositive() {
		qty = decimal.Min(qty, opposite)
	}

	capacity := decimal.Min(sellCapacity(sellLeg), buyCapacity(buyLeg))
	qty = decimal.Min(qty, capacity.Div(s.ExposureDivisor))

	if qty.LessThan(v1.MinOrderQty) || qty.LessThan(v2.MinOrderQty) {
		return decimal.Zero
	}
	return qty
}

// FeeGate reports whether the expected per-unit edge clears the combined
// round-trip fee of both legs by the safety multiple. Applied when opening
// or extending; reducing an open position is always allowed through.
func (s *Sizer) FeeGate(decision domain.Direction, latest, mean decimal.Decimal, v1, v2 *domain.VenueState) bool {
	sellLeg, buyLeg := legs(decision, v1, v2)
	if sellLeg == nil || !sellLeg.AskPrice.IsPositive() {
		return false
	}
	edge := latest.Sub(mean).Abs().Div(sellLeg.AskPrice)
	fees := sellLeg.LongFee.Add(buyLeg.ShortFee).Mul(s.FeeSafetyMultiple)
	return edge.GreaterThan(fees)
}

// legs maps a decision to (sell leg, buy leg). Nil for no decision.
func legs(decision domain.Direction, v1, v2 *domain.VenueState) (*domain.VenueState, *domain.VenueState) {
	switch decision {
	case domain.LongSpreadA:
		return v1, v2
	case domain.LongSpreadB:
		return v2, v1
	default:
		return nil, nil
	}
}

// sellCapacity is the maximum base quantity the venue can sell: the free
// base balance, plus quote collateral converted at the bid where the venue
// supports shorting.
func sellCapacity(v *domain.VenueState) decimal.Decimal {
	qty := v.BaseFree
	if v.Capability.SupportsShort && v.BidPrice.IsPositive() {
		qty = qty.Add(v.QuoteFree.Div(v.BidPrice))
	}
	return qty
}

// buyCapacity is the maximum base quantity the venue can buy: free quote
// converted at the ask, plus the borrowed base a buy would close where the
// venue supports shorting.
func buyCapacity(v *domain.VenueState) decimal.Decimal {
	var qty decimal.Decimal
	if v.AskPrice.IsPositive() {
		qty = v.QuoteFree.Div(v.AskPrice)
	}
	if v.Capability.SupportsShort {
		qty = qty.Add(v.BaseUsed)
	}
	return qty
}
