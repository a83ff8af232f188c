package engine

import (
	"math"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// Stats is the aggregate performance summary computed from the
// persisted trade log and equity curve.
type Stats struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPnL      float64
	AvgWin        float64
	AvgLoss       float64
	ProfitFactor  float64
	SharpeRatio   float64
	MaxDrawdown   float64
	FinalCash     float64
	FinalEquity   float64
	CyclesRun     int
}

// cyclesPerYear annualizes per-cycle returns at the default 15-minute
// cadence (4 cycles/hour, 24/7 markets).
const cyclesPerYear = 4 * 24 * 365

// ComputeStats derives the performance summary. Only exit records
// count as completed trades.
func ComputeStats(trades []domain.TradeRecord, curve []domain.EquityPoint) Stats {
	var s Stats
	var grossProfit, grossLoss float64

	for _, t := range trades {
		if t.Type != domain.TradeExit {
			continue
		}
		s.TotalTrades++
		s.TotalPnL += t.RealizedPnL
		if t.RealizedPnL > 0 {
			s.WinningTrades++
			grossProfit += t.RealizedPnL
		} else {
			s.LosingTrades++
			grossLoss += -t.RealizedPnL
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = grossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = -grossLoss / float64(s.LosingTrades)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	}

	s.CyclesRun = len(curve)
	if len(curve) > 0 {
		last := curve[len(curve)-1]
		s.FinalCash = last.Cash
		s.FinalEquity = last.Equity
		s.MaxDrawdown = last.MaxDrawdown
	}
	s.SharpeRatio = sharpe(curve)

	return s
}

// sharpe annualizes the mean/std of per-cycle equity returns.
func sharpe(curve []domain.EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(cyclesPerYear)
}
