package strategy

import (
	"fmt"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// NameMeanReversion tags positions opened by the mean-reversion rule.
const NameMeanReversion = "mean_reversion"

// MeanReversion buys an underpriced target outcome in calm conditions:
// in a bull or sideways regime a binary priced below the threshold is
// assumed to revert upward. The slow reversion gets a wide target and
// stop.
type MeanReversion struct {
	// BuyThreshold is the price below which the outcome counts as
	// underpriced.
	BuyThreshold float64
	ProfitTarget float64
	StopLoss     float64
}

// NewMeanReversion returns the rule with the calibrated defaults
// (buy < 0.40, +50% target, -10% stop).
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{
		BuyThreshold: 0.40,
		ProfitTarget: 0.50,
		StopLoss:     0.10,
	}
}

func (r *MeanReversion) Name() string { return NameMeanReversion }

// Evaluate fires when the current price is below the buy threshold and
// the regime is bull or sideways.
func (r *MeanReversion) Evaluate(market domain.Market, _ []float64, regime domain.Regime, price float64) (Signal, bool) {
	if regime != domain.RegimeBull && regime != domain.RegimeSideways {
		return Signal{}, false
	}
	if price >= r.BuyThreshold {
		return Signal{}, false
	}
	return Signal{
		MarketID:     market.ID,
		Strategy:     NameMeanReversion,
		Price:        price,
		Reason:       fmt.Sprintf("price %.2f below threshold %.2f in %s regime", price, r.BuyThreshold, regime),
		ProfitTarget: r.ProfitTarget,
		StopLoss:     r.StopLoss,
	}, true
}
