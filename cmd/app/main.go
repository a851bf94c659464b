package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arb_go/internal/app"
	"arb_go/internal/engine"
	"arb_go/internal/execution"
	"arb_go/internal/infra/alert"
	"arb_go/internal/infra/venue"
	"arb_go/internal/risk"
	"arb_go/internal/strategy"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Venue connectors and their book feeds
	venue1 := venue.NewClient(cfg.Venue1)
	venue2 := venue.NewClient(cfg.Venue2)
	venue1.StartFeed(ctx)
	defer venue1.StopFeed()
	venue2.StartFeed(ctx)
	defer venue2.StopFeed()

	// 4. Core components
	sink := alert.NewWebhook(cfg.Alert.WebhookURL, time.Duration(cfg.Alert.TimeoutSec)*time.Second, slog.Default())
	series := strategy.NewSpreadSeries(cfg.Engine.WindowSize)
	sig := strategy.NewSignal(cfg.Engine.OpenCoef, cfg.Engine.CloseCoef)
	sizer := risk.NewSizer(cfg.Engine.ParticipationRatio, cfg.Engine.ExposureDivisor, cfg.Engine.FeeSafetyMultiple)
	exec := execution.NewTwoLeg(venue1, venue2, sink, cfg.Engine.Leg2MaxAttempts, slog.Default())

	eng := engine.New(engine.Options{
		Symbol:        cfg.Engine.Symbol,
		Staleness:     time.Duration(cfg.Engine.StalenessSec) * time.Second,
		CycleInterval: time.Duration(cfg.Engine.CycleIntervalMS) * time.Millisecond,
		WindowSize:    cfg.Engine.WindowSize,
	}, venue1, venue2, bootstrap.Storage, sink, series, sig, sizer, exec, slog.Default())

	// 5. Startup sequence: metadata is load-bearing, abort on failure.
	if err := eng.Init(ctx); err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		os.Exit(1)
	}

	go eng.Run(ctx)
	slog.InfoContext(ctx, "spread engine operational", slog.String("symbol", cfg.Engine.Symbol))

	// Wait for shutdown signal
	<-ctx.Done()
	slog.InfoContext(ctx, "shutting down gracefully")
}
