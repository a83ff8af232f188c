package engine

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/domain/strategy"
)

// openPosition sizes and opens a new position from an accepted signal.
// The caller has already passed the risk check.
func (e *Engine) openPosition(pf *domain.Portfolio, sig strategy.Signal, m domain.Market, result *CycleResult) {
	now := e.now().UTC()
	notional := pf.Cash * e.cfg.PositionFraction
	size := notional / sig.Price

	pos := &domain.Position{
		ID:           uuid.New().String(),
		MarketID:     m.ID,
		Question:     m.Question,
		Strategy:     sig.Strategy,
		EntryTime:    now,
		EntryPrice:   sig.Price,
		Size:         size,
		Notional:     notional,
		ProfitTarget: sig.ProfitTarget,
		StopLoss:     sig.StopLoss,
	}
	pos.MarkToMarket(sig.Price)

	pf.Cash -= notional
	pf.Positions[m.ID] = pos

	result.Opened++
	result.Trades = append(result.Trades, domain.TradeRecord{
		ID:        uuid.New().String(),
		Timestamp: now,
		Type:      domain.TradeEntry,
		MarketID:  m.ID,
		Question:  m.Question,
		Strategy:  sig.Strategy,
		Price:     sig.Price,
		Size:      size,
		Notional:  notional,
	})

	slog.Info("position opened",
		"market", domain.TruncateQuestion(m.Question, m.ID, 40),
		"strategy", sig.Strategy,
		"price", sig.Price,
		"notional", notional,
		"reason", sig.Reason,
	)
}

// closePosition exits a position at the current price, credits cash,
// appends the immutable exit record, and updates the loss streak.
func (e *Engine) closePosition(pf *domain.Portfolio, pos *domain.Position, price float64, reason string, result *CycleResult) {
	now := e.now().UTC()
	proceeds := pos.Size * price
	realized := pos.Size * (price - pos.EntryPrice)
	realizedPct := 0.0
	if pos.Notional > 0 {
		realizedPct = realized / pos.Notional
	}

	pf.Cash += proceeds
	delete(pf.Positions, pos.MarketID)
	pf.RecordClose(realized)

	result.ClosedTrades++
	result.Trades = append(result.Trades, domain.TradeRecord{
		ID:          uuid.New().String(),
		Timestamp:   now,
		Type:        domain.TradeExit,
		MarketID:    pos.MarketID,
		Question:    pos.Question,
		Strategy:    pos.Strategy,
		Price:       price,
		Size:        pos.Size,
		Notional:    pos.Notional,
		RealizedPnL: realized,
		RealizedPct: realizedPct,
		ExitReason:  reason,
	})

	slog.Info("position closed",
		"market", domain.TruncateQuestion(pos.Question, pos.MarketID, 40),
		"strategy", pos.Strategy,
		"entry", pos.EntryPrice,
		"exit", price,
		"pnl", realized,
		"reason", reason,
		"loss_streak", pf.ConsecutiveLosses,
	)
}
