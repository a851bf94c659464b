package strategy

import (
	"arb_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Signal evaluates the latest spread values against their rolling statistics
// and the current position direction, and emits a directional decision.
// It is stateless: the position direction is an input, not retained.
type Signal struct {
	OpenCoef  decimal.Decimal // z-score required to open or extend (default 2.0)
	CloseCoef decimal.Decimal // z-score on the opposite spread, inverted, that triggers reduce/flip (default 0.3)
}

// NewSignal creates a Signal with the given coefficients.
func NewSignal(openCoef, closeCoef decimal.Decimal) *Signal {
	return &Signal{OpenCoef: openCoef, CloseCoef: closeCoef}
}

// Evaluate returns the decision direction for this cycle, or Flat when
// there is no signal. A zero standard deviation makes the corresponding
// z-score undefined; each branch guards its own divisor, so a degenerate
// window yields no signal rather than a division blowup.
//
// From FLAT, when both spreads exceed the open threshold, spread A wins.
func (s *Signal) Evaluate(current domain.Direction, latestA, latestB decimal.Decimal, stats Statistics) domain.Direction {
	switch current {
	case domain.Flat:
		if exceeds(latestA, stats.MeanA, stats.StdevA, s.OpenCoef) {
			return domain.LongSpreadA
		}
		if exceeds(latestB, stats.MeanB, stats.StdevB, s.OpenCoef) {
			return domain.LongSpreadB
		}
	case domain.LongSpreadA:
		if exceeds(latestA, stats.MeanA, stats.StdevA, s.OpenCoef) {
			return domain.LongSpreadA // extend
		}
		if exceeds(latestB, stats.MeanB, stats.StdevB, s.CloseCoef.Neg()) {
			return domain.LongSpreadB // reduce/flip
		}
	case domain.LongSpreadB:
		if exceeds(latestB, stats.MeanB, stats.StdevB, s.OpenCoef) {
			return domain.LongSpreadB // extend
		}
		if exceeds(latestA, stats.MeanA, stats.StdevA, s.CloseCoef.Neg()) {
			return domain.LongSpreadA // reduce/flip
		}
	}
	return domain.Flat
}

// exceeds reports whether (value - mean) / stdev > coef, treating a zero
// stdev as never exceeding.
func exceeds(value, mean, stdev, coef decimal.Decimal) bool {
	if !stdev.IsPositive() {
		return false
	}
	return value.Sub(mean).Div(stdev).GreaterThan(coef)
}
