package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dexview/internal/app"
	"dexview/internal/infra"
	"dexview/internal/infra/relay"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. System Bootstrapping
	bootstrap := app.NewBootstrap()
	err := bootstrap.Initialize(ctx, "configs/config.yaml", func() {
		// A displayed view would recompute here; log the store shape for now.
		snap := infra.GlobalMetrics.Snapshot()
		slog.Debug("Store updated",
			slog.Uint64("events", snap.EventsIngested),
		)
	})
	if err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Ledger.Close()

	market := bootstrap.Market

	// 4. Backfill before anything projects: a partial store would report
	// matched orders as open.
	if err := bootstrap.Sync(ctx); err != nil {
		slog.Error("❌ Backfill failed", slog.Any("error", err))
		// os.Exit skips the deferred close; release the node connection here.
		bootstrap.Ledger.Close()
		os.Exit(1)
	}

	// 5. Single-writer event loop
	market.StartEventProcessor(ctx)

	// 6. Live feeds: chain subscription for Cancels, relay for the rest
	if err := bootstrap.Ledger.SubscribeCancels(ctx, market.EventChan()); err != nil {
		slog.Error("Failed to subscribe to Cancel events", slog.Any("error", err))
	}
	slog.InfoContext(ctx, "✅ Cancel subscription started")

	cfg := bootstrap.Config
	if cfg.Relay.WSURL != "" {
		relayWorker := relay.NewWorker(cfg.Relay.WSURL, cfg.Relay.Channels, market.EventChan())
		if err := relayWorker.Connect(ctx); err != nil {
			slog.Error("Failed to connect relay", slog.Any("error", err))
		}
		defer relayWorker.Disconnect()
		slog.InfoContext(ctx, "✅ Relay worker started", slog.Int("channels", len(cfg.Relay.Channels)))
	}

	// 7. Initial projections, mostly as a sanity log
	if book, err := market.OrderBook(); err == nil {
		slog.InfoContext(ctx, "Order book ready",
			slog.Int("buy", len(book.Buy)),
			slog.Int("sell", len(book.Sell)),
		)
	}
	if tape, err := market.TradeTape(); err == nil {
		slog.InfoContext(ctx, "Trade tape ready", slog.Int("trades", len(tape)))
	}

	slog.InfoContext(ctx, "✨ dexview fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
