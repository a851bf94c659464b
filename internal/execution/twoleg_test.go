package execution

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"arb_go/internal/domain"

	"github.com/shopspring/decimal"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

type orderCall struct {
	side string
	qty  decimal.Decimal
}

// fakeConnector scripts CreateOrder results and records every call.
type fakeConnector struct {
	state    *domain.VenueState
	results  []domain.OrderResult
	errs     []error
	calls    []orderCall
	canceled []string
}

func newFakeConnector(id string) *fakeConnector {
	return &fakeConnector{state: &domain.VenueState{ID: id, Symbol: "BTC/USDT"}}
}

func (f *fakeConnector) script(r domain.OrderResult, err error) {
	f.results = append(f.results, r)
	f.errs = append(f.errs, err)
}

func (f *fakeConnector) LoadMarkets(ctx context.Context) error   { return nil }
func (f *fakeConnector) FetchBalance(ctx context.Context) error  { return nil }
func (f *fakeConnector) FetchOrderBook(ctx context.Context) error { return nil }
func (f *fakeConnector) State() *domain.VenueState               { return f.state }

func (f *fakeConnector) CreateOrder(ctx context.Context, side string, qty decimal.Decimal) (domain.OrderResult, error) {
	f.calls = append(f.calls, orderCall{side: side, qty: qty})
	if len(f.results) == 0 {
		return domain.OrderResult{}, errors.New("unscripted order")
	}
	r, err := f.results[0], f.errs[0]
	f.results, f.errs = f.results[1:], f.errs[1:]
	return r, err
}

func (f *fakeConnector) CancelOrder(ctx context.Context, orderID string) error {
	f.canceled = append(f.canceled, orderID)
	return nil
}

type fakeSink struct {
	alerts []domain.Alert
}

func (s *fakeSink) Notify(_ context.Context, a domain.Alert) {
	s.alerts = append(s.alerts, a)
}

func newExecutor(v1, v2 *fakeConnector, sink *fakeSink, maxAttempts int) *TwoLeg {
	t := NewTwoLeg(v1, v2, sink, maxAttempts, slog.Default())
	t.sleep = func(time.Duration) {} // no real backoff in tests
	return t
}

func TestTwoLeg_ZeroFillAborts(t *testing.T) {
	v1, v2 := newFakeConnector("v1"), newFakeConnector("v2")
	sink := &fakeSink{}
	exec := newExecutor(v1, v2, sink, 3)

	// Leg 1 executes nothing: residual canceled, leg 2 never invoked.
	v1.script(domain.OrderResult{ID: "o-1", Status: domain.OrderStatusNew, Filled: decimal.Zero, Remaining: dec(2)}, nil)

	pos := domain.Position{}
	hedged, err := exec.Execute(context.Background(), domain.LongSpreadA, dec(2), &pos)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !hedged.IsZero() {
		t.Errorf("Expected zero hedged qty, got %s", hedged)
	}
	if len(v2.calls) != 0 {
		t.Errorf("Leg 2 must not be invoked after a zero fill, got %d calls", len(v2.calls))
	}
	if len(v1.canceled) != 1 || v1.canceled[0] != "o-1" {
		t.Errorf("Expected residual cancel of o-1, got %v", v1.canceled)
	}
	if pos.Direction != domain.Flat || !pos.SpreadAQty.IsZero() {
		t.Errorf("Position must be unchanged, got %+v", pos)
	}
}

func TestTwoLeg_ExactFill(t *testing.T) {
	v1, v2 := newFakeConnector("v1"), newFakeConnector("v2")
	sink := &fakeSink{}
	exec := newExecutor(v1, v2, sink, 3)

	v1.script(domain.OrderResult{ID: "o-1", Status: domain.OrderStatusFilled, Filled: dec(2), Remaining: decimal.Zero}, nil)
	v2.script(domain.OrderResult{ID: "o-2", Status: domain.OrderStatusFilled, Filled: dec(2), Remaining: decimal.Zero}, nil)

	pos := domain.Position{}
	hedged, err := exec.Execute(context.Background(), domain.LongSpreadA, dec(2), &pos)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !hedged.Equal(dec(2)) {
		t.Errorf("Expected hedged 2, got %s", hedged)
	}
	// Position adjusted by exactly the converged fill, no over/under
	if !pos.SpreadAQty.Equal(dec(2)) || pos.Direction != domain.LongSpreadA {
		t.Errorf("Expected spread A qty 2, got %+v", pos)
	}
	if v1.calls[0].side != domain.SideSell || v2.calls[0].side != domain.SideBuy {
		t.Errorf("Direction A must sell venue 1 and buy venue 2")
	}
	if len(sink.alerts) != 1 || sink.alerts[0].Kind != domain.AlertTrade {
		t.Errorf("Expected a TRADE alert, got %v", sink.alerts)
	}
}

func TestTwoLeg_PartialLeg1SizesLeg2(t *testing.T) {
	v1, v2 := newFakeConnector("v1"), newFakeConnector("v2")
	exec := newExecutor(v1, v2, &fakeSink{}, 3)

	// Leg 1 fills 1.4 of 2; residual canceled; leg 2 is sized to 1.4, never 2.
	v1.script(domain.OrderResult{ID: "o-1", Status: domain.OrderStatusPartiallyFilled, Filled: dec(1.4), Remaining: dec(0.6)}, nil)
	v2.script(domain.OrderResult{ID: "o-2", Status: domain.OrderStatusFilled, Filled: dec(1.4), Remaining: decimal.Zero}, nil)

	pos := domain.Position{}
	if _, err := exec.Execute(context.Background(), domain.LongSpreadA, dec(2), &pos); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(v1.canceled) != 1 {
		t.Errorf("Expected leg 1 residual cancel, got %v", v1.canceled)
	}
	if !v2.calls[0].qty.Equal(dec(1.4)) {
		t.Errorf("Leg 2 must match leg 1's fill: expected 1.4, got %s", v2.calls[0].qty)
	}
	if !pos.SpreadAQty.Equal(dec(1.4)) {
		t.Errorf("Expected spread A qty 1.4, got %s", pos.SpreadAQty)
	}
}

func TestTwoLeg_Leg2RetriesToConvergence(t *testing.T) {
	v1, v2 := newFakeConnector("v1"), newFakeConnector("v2")
	exec := newExecutor(v1, v2, &fakeSink{}, 5)

	v1.script(domain.OrderResult{ID: "o-1", Status: domain.OrderStatusFilled, Filled: dec(2), Remaining: decimal.Zero}, nil)
	// Two partial leg-2 fills converge on the full 2.0
	v2.script(domain.OrderResult{ID: "o-2", Status: domain.OrderStatusPartiallyFilled, Filled: dec(1.2), Remaining: dec(0.8)}, nil)
	v2.script(domain.OrderResult{ID: "o-3", Status: domain.OrderStatusFilled, Filled: dec(0.8), Remaining: decimal.Zero}, nil)

	pos := domain.Position{}
	hedged, err := exec.Execute(context.Background(), domain.LongSpreadA, dec(2), &pos)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !hedged.Equal(dec(2)) {
		t.Errorf("Expected cumulative hedged 2, got %s", hedged)
	}
	if len(v2.calls) != 2 {
		t.Fatalf("Expected 2 leg-2 submissions, got %d", len(v2.calls))
	}
	// Re-submission carries only the remaining amount
	if !v2.calls[1].qty.Equal(dec(0.8)) {
		t.Errorf("Expected re-submit of 0.8, got %s", v2.calls[1].qty)
	}
}

func TestTwoLeg_RetryBudgetExhausted(t *testing.T) {
	v1, v2 := newFakeConnector("v1"), newFakeConnector("v2")
	sink := &fakeSink{}
	exec := newExecutor(v1, v2, sink, 2)

	v1.script(domain.OrderResult{ID: "o-1", Status: domain.OrderStatusFilled, Filled: dec(2), Remaining: decimal.Zero}, nil)
	// Each attempt fills only 0.5; budget of 2 leaves 1.0 unhedged.
	v2.script(domain.OrderResult{ID: "o-2", Status: domain.OrderStatusPartiallyFilled, Filled: dec(0.5), Remaining: dec(1.5)}, nil)
	v2.script(domain.OrderResult{ID: "o-3", Status: domain.OrderStatusPartiallyFilled, Filled: dec(0.5), Remaining: dec(1.0)}, nil)

	pos := domain.Position{}
	hedged, err := exec.Execute(context.Background(), domain.LongSpreadA, dec(2), &pos)
	if !errors.Is(err, domain.ErrUnhedgedExposure) {
		t.Fatalf("Expected ErrUnhedgedExposure, got %v", err)
	}
	if !hedged.Equal(dec(1)) {
		t.Errorf("Expected hedged 1.0, got %s", hedged)
	}
	// Only the hedged quantity is booked
	if !pos.SpreadAQty.Equal(dec(1)) {
		t.Errorf("Expected spread A qty 1.0, got %s", pos.SpreadAQty)
	}
	found := false
	for _, a := range sink.alerts {
		if a.Kind == domain.AlertUnhedged {
			found = true
		}
	}
	if !found {
		t.Error("Expected an UNHEDGED_EXPOSURE alert")
	}
}

func TestTwoLeg_DirectionBSwapsVenues(t *testing.T) {
	v1, v2 := newFakeConnector("v1"), newFakeConnector("v2")
	exec := newExecutor(v1, v2, &fakeSink{}, 3)

	// Direction B sells on venue 2 first, then buys venue 1.
	v2.script(domain.OrderResult{ID: "o-1", Status: domain.OrderStatusFilled, Filled: dec(1), Remaining: decimal.Zero}, nil)
	v1.script(domain.OrderResult{ID: "o-2", Status: domain.OrderStatusFilled, Filled: dec(1), Remaining: decimal.Zero}, nil)

	pos := domain.Position{}
	if _, err := exec.Execute(context.Background(), domain.LongSpreadB, dec(1), &pos); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if v2.calls[0].side != domain.SideSell {
		t.Errorf("Expected venue 2 to sell, got %s", v2.calls[0].side)
	}
	if v1.calls[0].side != domain.SideBuy {
		t.Errorf("Expected venue 1 to buy, got %s", v1.calls[0].side)
	}
	if !pos.SpreadBQty.Equal(dec(1)) || pos.Direction != domain.LongSpreadB {
		t.Errorf("Expected spread B position of 1, got %+v", pos)
	}
}

func TestTwoLeg_ReduceFlipDecrementsOpposite(t *testing.T) {
	v1, v2 := newFakeConnector("v1"), newFakeConnector("v2")
	exec := newExecutor(v1, v2, &fakeSink{}, 3)

	v1.script(domain.OrderResult{ID: "o-1", Status: domain.OrderStatusFilled, Filled: dec(0.5), Remaining: decimal.Zero}, nil)
	v2.script(domain.OrderResult{ID: "o-2", Status: domain.OrderStatusFilled, Filled: dec(0.5), Remaining: decimal.Zero}, nil)

	// Holding spread B 0.8; a direction-A execution reduces it.
	pos := domain.Position{SpreadBQty: dec(0.8)}
	pos.Recompute()

	if _, err := exec.Execute(context.Background(), domain.LongSpreadA, dec(0.5), &pos); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !pos.SpreadBQty.Equal(dec(0.3)) {
		t.Errorf("Expected spread B reduced to 0.3, got %s", pos.SpreadBQty)
	}
	if !pos.SpreadAQty.IsZero() {
		t.Errorf("Spread A must stay zero on the reduce path, got %s", pos.SpreadAQty)
	}
	// Invariant: at most one side open
	if pos.Direction != domain.LongSpreadB {
		t.Errorf("Expected direction still LONG_SPREAD_B, got %s", pos.Direction)
	}
}
