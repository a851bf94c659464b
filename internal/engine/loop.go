// Package engine runs the per-instrument control loop: refresh, record,
// evaluate, size, execute.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"arb_go/internal/domain"
	"arb_go/internal/execution"
	"arb_go/internal/risk"
	"arb_go/internal/strategy"

	"github.com/shopspring/decimal"
)

// Options are the loop-level tunables.
type Options struct {
	Symbol        string        // unified instrument name for logs/alerts
	Staleness     time.Duration // skip the cycle when either book is older than this
	CycleInterval time.Duration
	WindowSize    int // spread series window, also bounds the history backfill
}

// Engine owns the two venue states and the position for one instrument.
// It is strictly sequential: no cycle starts while a trade is in flight,
// and leg 2 is never submitted before leg 1's outcome is known.
type Engine struct {
	opts    Options
	venue1  domain.Connector
	venue2  domain.Connector
	history domain.HistoryStore
	alerts  domain.AlertSink
	series  *strategy.SpreadSeries
	signal  *strategy.Signal
	sizer   *risk.Sizer
	exec    *execution.TwoLeg
	logger  *slog.Logger

	pos domain.Position

	// Set after any connector failure; forces the position to be re-derived
	// from venue balances, which are the ground truth, before trading again.
	resync bool

	now func() time.Time
}

// New creates an engine from its collaborators.
func New(opts Options, venue1, venue2 domain.Connector, history domain.HistoryStore,
	alerts domain.AlertSink, series *strategy.SpreadSeries, signal *strategy.Signal,
	sizer *risk.Sizer, exec *execution.TwoLeg, logger *slog.Logger) *Engine {
	return &Engine{
		opts:    opts,
		venue1:  venue1,
		venue2:  venue2,
		history: history,
		alerts:  alerts,
		series:  series,
		signal:  signal,
		sizer:   sizer,
		exec:    exec,
		logger:  logger,
		now:     time.Now,
	}
}

// Position returns a copy of the current position.
func (e *Engine) Position() domain.Position {
	return e.pos
}

// Init performs the startup sequence: market metadata for both venues
// (fatal on failure), series warmup from history, initial balances and
// position reconstruction.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.venue1.LoadMarkets(ctx); err != nil {
		return err
	}
	if err := e.venue2.LoadMarkets(ctx); err != nil {
		return err
	}

	e.seedFromHistory()

	if err := e.fetchBalances(ctx); err != nil {
		return err
	}
	e.pos = domain.FromBalances(e.venue1.State(), e.venue2.State())
	e.logger.Info("engine initialized",
		slog.String("symbol", e.opts.Symbol),
		slog.String("direction", e.pos.Direction.String()),
		slog.String("spread_a_qty", e.pos.SpreadAQty.String()),
		slog.String("spread_b_qty", e.pos.SpreadBQty.String()))
	return nil
}

// seedFromHistory backfills the spread series from persisted quotes so
// trading can begin without waiting a full live window. Only runs when the
// series is empty; gaps in the stored range are simply skipped.
func (e *Engine) seedFromHistory() {
	if e.history == nil || e.series.Len() > 0 {
		return
	}
	v1, v2 := e.venue1.State(), e.venue2.State()
	from := e.now().Unix() - int64(e.opts.WindowSize)*2
	seeded := 0
	for ts := from; ts < from+int64(e.opts.WindowSize); ts++ {
		rows1, err1 := e.history.FetchOne(v1.ID, ts)
		rows2, err2 := e.history.FetchOne(v2.ID, ts)
		if err1 != nil || err2 != nil || len(rows1) == 0 || len(rows2) == 0 {
			continue
		}
		r1, r2 := rows1[len(rows1)-1], rows2[len(rows2)-1]
		v1.BidPrice = decimal.NewFromFloat(r1.Bid)
		v1.AskPrice = decimal.NewFromFloat(r1.Ask)
		v2.BidPrice = decimal.NewFromFloat(r2.Bid)
		v2.AskPrice = decimal.NewFromFloat(r2.Ask)
		if e.series.Record(v1, v2) {
			seeded++
		}
	}
	e.logger.Info("series seeded from history", slog.Int("samples", seeded))
}

// Run executes cycles until the context is canceled. Transient failures
// skip the cycle; only startup errors abort the engine.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.opts.CycleInterval)
	defer ticker.Stop()

	e.logger.Info("engine loop started", slog.String("symbol", e.opts.Symbol))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine loop stopping")
			return
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// runCycle performs one full refresh-evaluate-execute pass.
func (e *Engine) runCycle(ctx context.Context) {
	if err := e.fetchBalances(ctx); err != nil {
		e.skip(ctx, "fetch_balance", err)
		return
	}
	if e.resync {
		// Balances are authoritative after any failure; the in-memory
		// quantities are only a cache.
		e.pos = domain.FromBalances(e.venue1.State(), e.venue2.State())
		e.resync = false
		e.logger.Info("position re-derived from balances",
			slog.String("direction", e.pos.Direction.String()))
	}

	if err := e.fetchBooks(ctx); err != nil {
		e.skip(ctx, "fetch_order_book", err)
		return
	}

	v1, v2 := e.venue1.State(), e.venue2.State()
	e.persistQuotes(v1, v2)
	if !e.series.Record(v1, v2) {
		// A degenerate book (zero or missing prices) contributes no sample,
		// and the rest of the cycle must not evaluate against it either:
		// the latest series values would belong to an older book.
		e.logger.Debug("cycle skipped", slog.String("op", "record_spread"),
			slog.String("venue1_bid", v1.BidPrice.String()),
			slog.String("venue2_bid", v2.BidPrice.String()))
		return
	}

	if !e.series.Full() {
		e.logger.Debug("cycle skipped", slog.String("op", "series"),
			slog.Any("error", domain.ErrSeriesWarmingUp),
			slog.Int("len", e.series.Len()),
			slog.Int("window", e.opts.WindowSize))
		return
	}

	now := e.now()
	if v1.QuoteAge(now) > e.opts.Staleness || v2.QuoteAge(now) > e.opts.Staleness {
		e.logger.Debug("cycle skipped", slog.String("op", "quote_age"), slog.Any("error", domain.ErrStaleQuote))
		return
	}

	stats := e.series.Stats()
	latestA, latestB := e.series.LatestA(), e.series.LatestB()
	decision := e.signal.Evaluate(e.pos.Direction, latestA, latestB, stats)
	if decision == domain.Flat {
		return
	}

	e.logSignal(ctx, decision, v1, v2)

	reducing := e.pos.OpenOppositeQty(decision).IsPositive()
	latest, mean := latestA, stats.MeanA
	if decision == domain.LongSpreadB {
		latest, mean = latestB, stats.MeanB
	}
	if !reducing && !e.sizer.FeeGate(decision, latest, mean, v1, v2) {
		e.logger.Debug("fee gate rejected trade", slog.String("direction", decision.String()))
		return
	}

	qty := e.sizer.Quantity(decision, &e.pos, v1, v2)
	if !qty.IsPositive() {
		e.logger.Debug("sized quantity not tradable",
			slog.String("direction", decision.String()),
			slog.Any("error", domain.ErrBelowMinimum))
		return
	}

	if _, err := e.exec.Execute(ctx, decision, qty, &e.pos); err != nil {
		// Trade path failed partway; trust venue balances next cycle.
		e.resync = true
		e.logger.Warn("execution failed", slog.Any("error", err))
	}
}

// fetchBalances refreshes both venues' balances concurrently; the two
// queries are independent.
func (e *Engine) fetchBalances(ctx context.Context) error {
	return e.fetchBoth(ctx, e.venue1.FetchBalance, e.venue2.FetchBalance)
}

// fetchBooks refreshes both venues' order books concurrently.
func (e *Engine) fetchBooks(ctx context.Context) error {
	return e.fetchBoth(ctx, e.venue1.FetchOrderBook, e.venue2.FetchOrderBook)
}

func (e *Engine) fetchBoth(ctx context.Context, f1, f2 func(context.Context) error) error {
	var wg sync.WaitGroup
	var err1, err2 error
	wg.Add(2)
	go func() { defer wg.Done(); err1 = f1(ctx) }()
	go func() { defer wg.Done(); err2 = f2(ctx) }()
	wg.Wait()
	if err1 != nil {
		return err1
	}
	return err2
}

// persistQuotes writes the live books to the history store so later
// restarts can warm up. Best effort.
func (e *Engine) persistQuotes(v1, v2 *domain.VenueState) {
	if e.history == nil {
		return
	}
	ts := e.now().Unix()
	for _, v := range []*domain.VenueState{v1, v2} {
		if !v.HasQuote() {
			continue
		}
		bid, _ := v.BidPrice.Float64()
		ask, _ := v.AskPrice.Float64()
		q := &domain.Quote{VenueID: v.ID, Timestamp: ts, Bid: bid, Ask: ask}
		if err := e.history.SaveQuote(q); err != nil {
			e.logger.Warn("quote persist failed", slog.String("venue", v.ID), slog.Any("error", err))
		}
	}
}

// skip records a skipped cycle and flags the position for re-derivation.
func (e *Engine) skip(ctx context.Context, op string, err error) {
	e.resync = true
	e.logger.Warn("cycle skipped", slog.String("op", op), slog.Any("error", err))
	e.alerts.Notify(ctx, domain.NewAlert(
		domain.AlertCycleSkipped, e.opts.Symbol, "", op+": "+err.Error(), decimal.Zero))
}

// logSignal mirrors the per-direction trade intent: which venue sells,
// which buys, at what top-of-book prices.
func (e *Engine) logSignal(ctx context.Context, decision domain.Direction, v1, v2 *domain.VenueState) {
	sell, buy := v1, v2
	if decision == domain.LongSpreadB {
		sell, buy = v2, v1
	}
	e.logger.Info("signal detected",
		slog.String("symbol", e.opts.Symbol),
		slog.String("direction", decision.String()),
		slog.String("sell_venue", sell.ID),
		slog.String("sell_bid", sell.BidPrice.String()),
		slog.String("buy_venue", buy.ID),
		slog.String("buy_ask", buy.AskPrice.String()))
	e.alerts.Notify(ctx, domain.NewAlert(
		domain.AlertSignal, e.opts.Symbol, decision.String(), "", decimal.Zero))
}
