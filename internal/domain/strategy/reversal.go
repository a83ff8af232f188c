package strategy

import (
	"fmt"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// NameReversal tags positions opened by the reversal rule.
const NameReversal = "reversal"

// Reversal trades a short bounce inside a larger downtrend: in a bear
// or volatile regime, positive 2-point momentum against negative
// 10-point momentum is treated as a tradeable divergence. The quick
// bounce gets a tight target and stop.
type Reversal struct {
	// MinShortMomentum is the minimum return over the last 2 points.
	MinShortMomentum float64
	// MaxLongMomentum is the maximum (negative) return over the last
	// 10 points.
	MaxLongMomentum float64
	ProfitTarget    float64
	StopLoss        float64
}

// NewReversal returns the rule with the calibrated defaults
// (m2 > +1%, m10 < -2%, +5% target, -8% stop).
func NewReversal() *Reversal {
	return &Reversal{
		MinShortMomentum: 0.01,
		MaxLongMomentum:  -0.02,
		ProfitTarget:     0.05,
		StopLoss:         0.08,
	}
}

func (r *Reversal) Name() string { return NameReversal }

// Evaluate fires in a bear or volatile regime when short momentum is
// up while long momentum is still down.
func (r *Reversal) Evaluate(market domain.Market, history []float64, regime domain.Regime, _ float64) (Signal, bool) {
	if regime != domain.RegimeBear && regime != domain.RegimeVolatile {
		return Signal{}, false
	}
	if len(history) < 10 {
		return Signal{}, false
	}

	m2 := domain.WindowReturn(history, 2)
	m10 := domain.WindowReturn(history, 10)
	if m2 <= r.MinShortMomentum || m10 >= r.MaxLongMomentum {
		return Signal{}, false
	}

	price := history[len(history)-1]
	return Signal{
		MarketID:     market.ID,
		Strategy:     NameReversal,
		Price:        price,
		Reason:       fmt.Sprintf("reversal setup in %s regime (m2=%+.3f, m10=%+.3f)", regime, m2, m10),
		ProfitTarget: r.ProfitTarget,
		StopLoss:     r.StopLoss,
	}, true
}
