package domain

import "time"

// TradeType distinguishes the two kinds of trade log entries.
type TradeType string

const (
	TradeEntry TradeType = "entry"
	TradeExit  TradeType = "exit"
)

// Exit reasons attached to closing trade records.
const (
	ExitProfitTarget = "profit_target"
	ExitStopLoss     = "stop_loss"
)

// Position is a simulated long position on one market's target outcome.
// At most one position exists per market ID.
type Position struct {
	ID        string
	MarketID  string
	Question  string
	Strategy  string
	EntryTime time.Time
	// EntryPrice is the outcome price paid per share.
	EntryPrice float64
	// Size is the number of shares; Notional = Size * EntryPrice.
	Size     float64
	Notional float64
	// Exit parameters carried from the rule that opened the position,
	// both expressed as fractions of the notional.
	ProfitTarget float64
	StopLoss     float64
	// Mark-to-market fields, refreshed every cycle.
	CurrentPrice  float64
	UnrealizedPnL float64
	UnrealizedPct float64
}

// MarkToMarket recomputes the cached unrealized PnL against the latest
// observed price. Does not touch cash.
func (p *Position) MarkToMarket(currentPrice float64) {
	p.CurrentPrice = currentPrice
	p.UnrealizedPnL = p.Size * (currentPrice - p.EntryPrice)
	if p.Notional > 0 {
		p.UnrealizedPct = p.UnrealizedPnL / p.Notional
	}
}

// ExitReason returns the exit decision for the position's current
// mark, or "" when no exit condition fires. Profit target is checked
// before stop loss so a zero-width band resolves as a win.
func (p *Position) ExitReason() string {
	if p.UnrealizedPct >= p.ProfitTarget {
		return ExitProfitTarget
	}
	if p.UnrealizedPct <= -p.StopLoss {
		return ExitStopLoss
	}
	return ""
}

// TradeRecord is one immutable entry in the append-only trade log.
type TradeRecord struct {
	ID        string
	Timestamp time.Time
	Type      TradeType
	MarketID  string
	Question  string
	Strategy  string
	Price     float64
	Size      float64
	Notional  float64
	// Realized fields are set on exit records only.
	RealizedPnL float64
	RealizedPct float64
	ExitReason  string
}

// EquityPoint is one append-only equity curve sample, written once per
// cycle.
type EquityPoint struct {
	Timestamp     time.Time
	Cash          float64
	Equity        float64
	OpenPositions int
	MaxDrawdown   float64
}

// Portfolio is the durable portfolio document. It is loaded at cycle
// start, mutated in memory, and written back exactly once.
type Portfolio struct {
	Cash   float64
	Equity float64
	// Positions is keyed by market ID — the one-position-per-market
	// invariant is structural.
	Positions         map[string]*Position
	HighWaterMark     float64
	MaxDrawdown       float64
	ConsecutiveLosses int
}

// NewPortfolio returns the documented default state for a fresh run.
func NewPortfolio(initialCash float64) *Portfolio {
	return &Portfolio{
		Cash:          initialCash,
		Equity:        initialCash,
		Positions:     make(map[string]*Position),
		HighWaterMark: initialCash,
	}
}

// RecomputeEquity restores the equity invariant
// (equity == cash + Σ unrealized PnL) and advances the high-water mark
// and max drawdown. Both are monotonically non-decreasing.
func (pf *Portfolio) RecomputeEquity() {
	equity := pf.Cash
	for _, pos := range pf.Positions {
		equity += pos.UnrealizedPnL
	}
	pf.Equity = equity

	if equity > pf.HighWaterMark {
		pf.HighWaterMark = equity
	}
	if pf.HighWaterMark > 0 {
		dd := (pf.HighWaterMark - equity) / pf.HighWaterMark
		if dd > pf.MaxDrawdown {
			pf.MaxDrawdown = dd
		}
	}
}

// RecordClose updates the loss streak after a close: a profitable
// close resets it, any other close extends it.
func (pf *Portfolio) RecordClose(realizedPnL float64) {
	if realizedPnL > 0 {
		pf.ConsecutiveLosses = 0
	} else {
		pf.ConsecutiveLosses++
	}
}
