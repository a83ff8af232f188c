// Package strategy holds the entry rules of the paper trading engine.
//
// Rules are evaluated as an ordered list with early exit on first
// match, so rule precedence is data, not buried control flow. Each
// rule carries its own exit parameters; they travel with the position
// it opens.
package strategy

import (
	"github.com/alejandrodnm/polypaper/internal/domain"
)

// Signal is an accepted entry decision for one market.
type Signal struct {
	MarketID string
	Strategy string
	// Price is the target-outcome price at evaluation time.
	Price  float64
	Reason string
	// Exit parameters attached to the resulting position, as fractions
	// of the entry notional.
	ProfitTarget float64
	StopLoss     float64
}

// Rule evaluates one market against its price history and regime.
// Implementations must be pure: no hidden state between cycles.
type Rule interface {
	Name() string
	// Evaluate returns (signal, true) when the rule fires. history is
	// ordered oldest first and already includes the current price.
	Evaluate(market domain.Market, history []float64, regime domain.Regime, price float64) (Signal, bool)
}

// Rules is the ordered rule list. First match wins: at most one signal
// per market per cycle.
type Rules []Rule

// Evaluate runs the rules in order and returns the first signal.
// Unknown regimes never generate signals.
func (rs Rules) Evaluate(market domain.Market, history []float64, regime domain.Regime, price float64) (Signal, bool) {
	if regime == domain.RegimeUnknown {
		return Signal{}, false
	}
	for _, r := range rs {
		if sig, ok := r.Evaluate(market, history, regime, price); ok {
			return sig, true
		}
	}
	return Signal{}, false
}
