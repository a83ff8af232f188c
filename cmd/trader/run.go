package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/polypaper/config"
	"github.com/alejandrodnm/polypaper/internal/adapters/notify"
	"github.com/alejandrodnm/polypaper/internal/adapters/storage"
	"github.com/alejandrodnm/polypaper/internal/application/engine"
)

// runLoop ejecuta un ciclo cada intervalo hasta recibir señal o
// detectar el archivo STOP.
func runLoop(ctx context.Context, eng *engine.Engine, store *storage.SQLiteStorage, notifier *notify.Console, cfg *config.Config) {
	stopFile := "STOP"
	ticker := time.NewTicker(cfg.CycleInterval())
	defer ticker.Stop()

	slog.Info("trading loop started — press Ctrl+C or create STOP file to exit",
		"interval", cfg.CycleInterval())

	runCycle(ctx, eng, notifier)

	for {
		select {
		case <-ctx.Done():
			slog.Info("trading loop stopped (signal)")
			runReport(ctx, store, notifier, cfg.Engine.InitialCash)
			return
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("STOP file detected — shutting down")
				os.Remove(stopFile)
				runReport(ctx, store, notifier, cfg.Engine.InitialCash)
				return
			}
			runCycle(ctx, eng, notifier)
		}
	}
}

func runCycle(ctx context.Context, eng *engine.Engine, notifier *notify.Console) {
	result, err := eng.RunOnce(ctx)
	if err != nil {
		slog.Error("cycle failed", "err", err)
		return
	}

	notifier.PrintStatus(notify.StatusInput{
		FeedDegraded:    result.FeedDegraded,
		MarketsSeen:     result.MarketsSeen,
		MarketsEligible: result.MarketsEligible,
		Opened:          result.Opened,
		Closed:          result.ClosedTrades,
		Vetoed:          result.Vetoed,
		Trades:          result.Trades,
		Positions:       result.Positions,
		Cash:            result.Cash,
		Equity:          result.Equity,
		MaxDrawdown:     result.MaxDrawdown,
		BreakerActive:   result.BreakerActive,
	})
}
