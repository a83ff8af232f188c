// Package engine runs the paper trading cycle: load state, fetch the
// instrument snapshot, mark and exit open positions, evaluate entries,
// recompute equity, persist. One call to RunOnce is one cycle.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/domain/strategy"
	"github.com/alejandrodnm/polypaper/internal/ports"
)

// Config holds the engine's risk and sizing parameters.
type Config struct {
	InitialCash      float64
	PositionFraction float64
	MinLiquidity     float64
	MinVolume        float64
	MaxOpenPositions int
	BreakerLosses    int
	HistoryWindow    int
	Regime           domain.RegimeParams
}

// DefaultConfig returns the calibrated engine defaults.
func DefaultConfig() Config {
	return Config{
		InitialCash:      100,
		PositionFraction: 0.10,
		MinLiquidity:     100,
		MinVolume:        1000,
		MaxOpenPositions: 5,
		BreakerLosses:    3,
		HistoryWindow:    domain.DefaultHistoryWindow,
		Regime:           domain.DefaultRegimeParams(),
	}
}

// Engine orchestrates one cycle per invocation. It holds no portfolio
// state between cycles: everything is reloaded from the store. The
// engine is not safe for concurrent RunOnce calls; the caller must
// serialize cycles.
type Engine struct {
	provider ports.MarketProvider
	store    ports.PortfolioStorage
	filter   *Filter
	rules    strategy.Rules
	risk     *Risk
	cfg      Config
	now      func() time.Time
}

// New creates an engine. A nil rules list falls back to the default
// mean-reversion + reversal pair, in that order.
func New(provider ports.MarketProvider, store ports.PortfolioStorage, filter *Filter, rules strategy.Rules, cfg Config) *Engine {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = domain.DefaultHistoryWindow
	}
	if rules == nil {
		rules = strategy.Rules{strategy.NewMeanReversion(), strategy.NewReversal()}
	}
	return &Engine{
		provider: provider,
		store:    store,
		filter:   filter,
		rules:    rules,
		risk:     NewRisk(cfg),
		cfg:      cfg,
		now:      time.Now,
	}
}

// CycleResult summarizes everything one cycle did, for the notifier.
type CycleResult struct {
	StartedAt       time.Time
	FeedDegraded    bool
	MarketsSeen     int
	MarketsEligible int
	DroppedRows     int
	Excluded        int
	Opened          int
	ClosedTrades    int
	Vetoed          int
	Trades          []domain.TradeRecord
	Positions       []domain.Position

	Cash              float64
	Equity            float64
	MaxDrawdown       float64
	ConsecutiveLosses int
	BreakerActive     bool
}

// RunOnce executes a single cycle. Feed failures degrade to an empty
// snapshot; only a persistence failure is returned as an error, in
// which case none of the cycle's effects are durable.
func (e *Engine) RunOnce(ctx context.Context) (*CycleResult, error) {
	started := e.now().UTC()
	result := &CycleResult{StartedAt: started}

	pf, err := e.store.LoadPortfolio(ctx, e.cfg.InitialCash)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: load portfolio: %w", err)
	}

	seed, err := e.store.LoadHistory(ctx, e.cfg.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("engine.RunOnce: load history: %w", err)
	}
	hist := domain.NewPriceHistory(e.cfg.HistoryWindow)
	for id, prices := range seed {
		hist.Seed(id, prices)
	}

	markets, dropped, err := e.provider.FetchMarkets(ctx)
	if err != nil {
		// Transient feed failure: run the cycle with an empty snapshot
		// so equity is still recomputed and persisted.
		slog.Warn("feed unavailable, running degraded cycle", "err", err)
		result.FeedDegraded = true
		markets = nil
	}
	result.MarketsSeen = len(markets)
	result.DroppedRows = dropped

	eligible, excluded := e.filter.Apply(markets)
	result.MarketsEligible = len(eligible)
	result.Excluded = excluded

	var observations []ports.PriceObservation
	for _, m := range eligible {
		price, ok := m.YesPrice()
		if !ok {
			continue
		}
		hist.Observe(m.ID, price)
		observations = append(observations, ports.PriceObservation{MarketID: m.ID, Price: price})

		// Mark-to-market always precedes the exit check, and the exit
		// check always precedes entry evaluation for the same market.
		if pos, open := pf.Positions[m.ID]; open {
			pos.MarkToMarket(price)
			if reason := pos.ExitReason(); reason != "" {
				e.closePosition(pf, pos, price, reason, result)
			}
		}

		if _, open := pf.Positions[m.ID]; !open {
			regime := domain.DetectRegime(hist.Prices(m.ID), e.cfg.Regime)
			sig, fired := e.rules.Evaluate(m, hist.Prices(m.ID), regime, price)
			if !fired {
				continue
			}
			if veto := e.risk.Check(pf, sig, m); veto != "" {
				result.Vetoed++
				slog.Debug("entry vetoed", "market", m.ID, "strategy", sig.Strategy, "veto", veto)
				continue
			}
			e.openPosition(pf, sig, m, result)
		}
	}

	// Positions on markets missing from this snapshot keep their
	// last-known marks; an empty snapshot is a valid cycle outcome.
	pf.RecomputeEquity()

	point := domain.EquityPoint{
		Timestamp:     started,
		Cash:          pf.Cash,
		Equity:        pf.Equity,
		OpenPositions: len(pf.Positions),
		MaxDrawdown:   pf.MaxDrawdown,
	}

	if err := e.store.SaveCycle(ctx, ports.CycleOutcome{
		Portfolio:    pf,
		Trades:       result.Trades,
		EquityPoint:  point,
		Observations: observations,
	}); err != nil {
		return nil, fmt.Errorf("engine.RunOnce: persist: %w", err)
	}

	for _, pos := range pf.Positions {
		result.Positions = append(result.Positions, *pos)
	}
	result.Cash = pf.Cash
	result.Equity = pf.Equity
	result.MaxDrawdown = pf.MaxDrawdown
	result.ConsecutiveLosses = pf.ConsecutiveLosses
	result.BreakerActive = pf.ConsecutiveLosses >= e.cfg.BreakerLosses

	slog.Info("cycle complete",
		"markets", result.MarketsSeen,
		"eligible", result.MarketsEligible,
		"opened", result.Opened,
		"closed", result.ClosedTrades,
		"vetoed", result.Vetoed,
		"cash", fmt.Sprintf("%.2f", pf.Cash),
		"equity", fmt.Sprintf("%.2f", pf.Equity),
		"positions", len(pf.Positions),
	)
	return result, nil
}
