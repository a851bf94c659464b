// Package execution implements the ordered, partial-fill-aware placement of
// the two correlated legs of a spread trade.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arb_go/internal/domain"
	"arb_go/internal/infra"

	"github.com/shopspring/decimal"
)

// TwoLeg executes hedged spread trades across the two venue connectors.
// Leg 1 is always the side capturing the statistical edge; leg 2 is sized
// to exactly match leg 1's realized fill, never more, so the legs' filled
// quantities converge to equality.
type TwoLeg struct {
	venue1 domain.Connector
	venue2 domain.Connector
	alerts domain.AlertSink
	logger *slog.Logger

	// Leg 2 re-submit policy. Attempts are bounded: an unfilled remainder
	// after the budget is real unhedged exposure and is alerted, not looped
	// on forever.
	maxAttempts int
	backoff     func(retry int) time.Duration
	sleep       func(d time.Duration)
}

// NewTwoLeg creates an executor over the two venue connectors.
func NewTwoLeg(venue1, venue2 domain.Connector, alerts domain.AlertSink, maxAttempts int, logger *slog.Logger) *TwoLeg {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TwoLeg{
		venue1:      venue1,
		venue2:      venue2,
		alerts:      alerts,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoff:     infra.CalculateBackoff,
		sleep:       time.Sleep,
	}
}

// Execute places both legs for the decision direction and books the hedged
// fill into pos. It returns the hedged quantity; zero with a nil error means
// leg 1 did not fill and the opportunity was skipped for this cycle.
//
// Protocol: market sell on the spread's sell leg; cancel any unfilled
// remainder; abort on zero fill. Then market buy the filled amount on the
// other leg, re-submitting the remaining amount with backoff until filled
// or the attempt budget is spent.
func (t *TwoLeg) Execute(ctx context.Context, decision domain.Direction, qty decimal.Decimal, pos *domain.Position) (decimal.Decimal, error) {
	sell, buy := t.legs(decision)
	if sell == nil {
		return decimal.Zero, fmt.Errorf("execute: no decision direction")
	}

	leg1, err := sell.CreateOrder(ctx, domain.SideSell, qty)
	if err != nil {
		return decimal.Zero, domain.NewVenueError(sell.State().ID, "create_order", err)
	}
	if leg1.Remaining.IsPositive() {
		if cerr := sell.CancelOrder(ctx, leg1.ID); cerr != nil {
			t.logger.Warn("leg1 residual cancel failed",
				slog.String("venue", sell.State().ID),
				slog.String("order_id", leg1.ID),
				slog.Any("error", cerr))
		}
	}
	if leg1.NoFill() {
		t.logger.Info("leg1 no fill, opportunity skipped",
			slog.String("venue", sell.State().ID),
			slog.String("direction", decision.String()),
			slog.String("qty", qty.String()))
		return decimal.Zero, nil
	}

	hedged, remaining := t.fillLeg2(ctx, buy, leg1.Filled)

	// Position is adjusted only by the quantity actually hedged on leg 2;
	// an unmatched leg 1 remainder is surfaced, never silently absorbed.
	pos.ApplyFill(decision, hedged)

	if remaining.IsPositive() {
		detail := fmt.Sprintf("leg1 filled %s on %s, leg2 short %s on %s after %d attempts",
			leg1.Filled, sell.State().ID, remaining, buy.State().ID, t.maxAttempts)
		t.alerts.Notify(ctx, domain.NewAlert(domain.AlertUnhedged, sell.State().Symbol, decision.String(), detail, remaining))
		t.logger.Error("unhedged exposure, manual intervention required",
			slog.String("direction", decision.String()),
			slog.String("remaining", remaining.String()))
		return hedged, fmt.Errorf("%w: %s", domain.ErrUnhedgedExposure, detail)
	}

	t.alerts.Notify(ctx, domain.NewAlert(domain.AlertTrade, sell.State().Symbol, decision.String(), "", hedged))
	t.logger.Info("trade executed",
		slog.String("direction", decision.String()),
		slog.String("sell_venue", sell.State().ID),
		slog.String("buy_venue", buy.State().ID),
		slog.String("qty", hedged.String()))
	return hedged, nil
}

// fillLeg2 buys target on the given leg, re-submitting the remainder with
// bounded retries. Returns the cumulative fill and any remainder left.
func (t *TwoLeg) fillLeg2(ctx context.Context, buy domain.Connector, target decimal.Decimal) (hedged, remaining decimal.Decimal) {
	remaining = target
	for attempt := 0; attempt < t.maxAttempts && remaining.IsPositive(); attempt++ {
		if attempt > 0 {
			t.sleep(t.backoff(attempt))
		}
		res, err := buy.CreateOrder(ctx, domain.SideBuy, remaining)
		if err != nil {
			t.logger.Warn("leg2 submit failed",
				slog.String("venue", buy.State().ID),
				slog.Int("attempt", attempt+1),
				slog.Any("error", err))
			continue
		}
		hedged = hedged.Add(res.Filled)
		remaining = remaining.Sub(res.Filled)
	}
	return hedged, remaining
}

func (t *TwoLeg) legs(decision domain.Direction) (sell, buy domain.Connector) {
	switch decision {
	case domain.LongSpreadA:
		return t.venue1, t.venue2
	case domain.LongSpreadB:
		return t.venue2, t.venue1
	default:
		return nil, nil
	}
}
