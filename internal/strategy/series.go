package strategy

import (
	"math"

	"arb_go/internal/domain"

	"github.com/shopspring/decimal"
)

// SpreadSeries maintains the two bounded spread series and their rolling
// statistics. Spread A is venue-1 bid minus venue-2 ask; spread B is the
// mirror. Both series are appended in lock-step, once per cycle, so they
// always have the same length.
//
// Uses a shared ring buffer pair to keep the hotpath allocation-free
// (same layout as a fixed window SMA).
type SpreadSeries struct {
	window int

	a, b  []decimal.Decimal
	head  int // next write position
	count int

	sumA decimal.Decimal // running sums for mean
	sumB decimal.Decimal
}

// Statistics holds the rolling mean and population standard deviation of
// both spread series over the full window.
type Statistics struct {
	MeanA  decimal.Decimal
	StdevA decimal.Decimal
	MeanB  decimal.Decimal
	StdevB decimal.Decimal
}

// NewSpreadSeries creates a series pair with the given window size.
func NewSpreadSeries(window int) *SpreadSeries {
	if window < 1 {
		panic("SpreadSeries: window must be >= 1")
	}
	return &SpreadSeries{
		window: window,
		a:      make([]decimal.Decimal, window),
		b:      make([]decimal.Decimal, window),
	}
}

// Record computes both spread values from the venues' current best bid/ask
// and appends them. It is a no-op when either venue has no usable quote: a
// missing book must never push zero/garbage samples into the window.
func (s *SpreadSeries) Record(v1, v2 *domain.VenueState) bool {
	if !v1.HasQuote() || !v2.HasQuote() {
		return false
	}
	prec := v1.PricePrecision
	if v2.PricePrecision > prec {
		prec = v2.PricePrecision
	}
	spreadA := v1.RoundToPrecision(v1.BidPrice).Sub(v2.RoundToPrecision(v2.AskPrice)).Round(prec)
	spreadB := v2.RoundToPrecision(v2.BidPrice).Sub(v1.RoundToPrecision(v1.AskPrice)).Round(prec)
	s.push(spreadA, spreadB)
	return true
}

func (s *SpreadSeries) push(spreadA, spreadB decimal.Decimal) {
	if s.count == s.window {
		// Full: head points at the oldest sample, evict it from the sums.
		s.sumA = s.sumA.Sub(s.a[s.head])
		s.sumB = s.sumB.Sub(s.b[s.head])
	}
	s.a[s.head] = spreadA
	s.b[s.head] = spreadB
	s.sumA = s.sumA.Add(spreadA)
	s.sumB = s.sumB.Add(spreadB)
	s.head = (s.head + 1) % s.window
	if s.count < s.window {
		s.count++
	}
}

// Len returns the current number of samples in each series.
func (s *SpreadSeries) Len() int {
	return s.count
}

// Full reports whether the window has enough samples for statistics.
// Statistics must not be read before this returns true.
func (s *SpreadSeries) Full() bool {
	return s.count == s.window
}

// LatestA returns the most recent spread A sample. Meaningless when empty.
func (s *SpreadSeries) LatestA() decimal.Decimal {
	return s.a[s.latestIdx()]
}

// LatestB returns the most recent spread B sample. Meaningless when empty.
func (s *SpreadSeries) LatestB() decimal.Decimal {
	return s.b[s.latestIdx()]
}

func (s *SpreadSeries) latestIdx() int {
	idx := s.head - 1
	if idx < 0 {
		idx = s.window - 1
	}
	return idx
}

// SamplesA returns the spread A window contents in insertion order.
func (s *SpreadSeries) SamplesA() []decimal.Decimal {
	return s.samples(s.a)
}

// SamplesB returns the spread B window contents in insertion order.
func (s *SpreadSeries) SamplesB() []decimal.Decimal {
	return s.samples(s.b)
}

func (s *SpreadSeries) samples(buf []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, s.count)
	start := s.head - s.count
	for i := 0; i < s.count; i++ {
		idx := start + i
		if idx < 0 {
			idx += s.window
		}
		out = append(out, buf[idx%s.window])
	}
	return out
}

// Stats computes rolling mean and population standard deviation over the
// full window. Precondition: Full() is true; the caller must check.
func (s *SpreadSeries) Stats() Statistics {
	n := decimal.NewFromInt(int64(s.window))
	meanA := s.sumA.Div(n)
	meanB := s.sumB.Div(n)
	return Statistics{
		MeanA:  meanA,
		StdevA: s.stdev(s.a, meanA),
		MeanB:  meanB,
		StdevB: s.stdev(s.b, meanB),
	}
}

func (s *SpreadSeries) stdev(buf []decimal.Decimal, mean decimal.Decimal) decimal.Decimal {
	var variance float64
	for i := 0; i < s.window; i++ {
		d, _ := buf[i].Sub(mean).Float64()
		variance += d * d
	}
	variance /= float64(s.window)
	return decimal.NewFromFloat(math.Sqrt(variance))
}
