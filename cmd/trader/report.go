package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/polypaper/internal/adapters/notify"
	"github.com/alejandrodnm/polypaper/internal/adapters/storage"
	"github.com/alejandrodnm/polypaper/internal/application/engine"
	"github.com/alejandrodnm/polypaper/internal/domain"
)

// runReport agrega el log de trades y la curva de equity persistidos
// y los imprime como informe de rendimiento.
func runReport(ctx context.Context, store *storage.SQLiteStorage, notifier *notify.Console, initialCash float64) {
	trades, err := store.Trades(ctx)
	if err != nil {
		slog.Error("failed to load trades", "err", err)
		os.Exit(1)
	}
	curve, err := store.EquityCurve(ctx)
	if err != nil {
		slog.Error("failed to load equity curve", "err", err)
		os.Exit(1)
	}
	pf, err := store.LoadPortfolio(ctx, initialCash)
	if err != nil {
		slog.Error("failed to load portfolio", "err", err)
		os.Exit(1)
	}

	stats := engine.ComputeStats(trades, curve)

	perStrategy := make(map[string]notify.StrategyLine)
	for _, t := range trades {
		if t.Type != domain.TradeExit {
			continue
		}
		line := perStrategy[t.Strategy]
		line.Trades++
		if t.RealizedPnL > 0 {
			line.Wins++
		}
		line.NetPnL += t.RealizedPnL
		line.WinRate = float64(line.Wins) / float64(line.Trades)
		perStrategy[t.Strategy] = line
	}

	positions := make([]domain.Position, 0, len(pf.Positions))
	for _, pos := range pf.Positions {
		positions = append(positions, *pos)
	}

	notifier.PrintReport(notify.ReportInput{
		InitialCash:   initialCash,
		FinalCash:     stats.FinalCash,
		FinalEquity:   stats.FinalEquity,
		CyclesRun:     stats.CyclesRun,
		TotalTrades:   stats.TotalTrades,
		WinningTrades: stats.WinningTrades,
		LosingTrades:  stats.LosingTrades,
		WinRate:       stats.WinRate,
		TotalPnL:      stats.TotalPnL,
		AvgWin:        stats.AvgWin,
		AvgLoss:       stats.AvgLoss,
		ProfitFactor:  stats.ProfitFactor,
		SharpeRatio:   stats.SharpeRatio,
		MaxDrawdown:   stats.MaxDrawdown,
		PerStrategy:   perStrategy,
		OpenPositions: positions,
	})
}
