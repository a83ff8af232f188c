package domain

import "math"

// Regime is a coarse classification of a market's recent price behavior.
type Regime string

const (
	RegimeUnknown  Regime = "unknown"
	RegimeBull     Regime = "bull"
	RegimeBear     Regime = "bear"
	RegimeSideways Regime = "sideways"
	RegimeVolatile Regime = "volatile"
)

// regimeWindow is the number of trailing observations the classifier
// looks at. Histories shorter than this are RegimeUnknown and generate
// no signals.
const regimeWindow = 10

// RegimeParams are the classification thresholds.
type RegimeParams struct {
	// VolatilityThreshold: population std dev of the window above this → volatile.
	VolatilityThreshold float64
	// BullThreshold: window return above this → bull.
	BullThreshold float64
	// BearThreshold: window return below this → bear.
	BearThreshold float64
}

// DefaultRegimeParams returns the calibrated thresholds.
func DefaultRegimeParams() RegimeParams {
	return RegimeParams{
		VolatilityThreshold: 0.05,
		BullThreshold:       0.10,
		BearThreshold:       -0.10,
	}
}

// DetectRegime classifies a price history. Pure function of the last
// regimeWindow points; precedence is volatile, then bull, then bear,
// then sideways.
func DetectRegime(prices []float64, p RegimeParams) Regime {
	if len(prices) < regimeWindow {
		return RegimeUnknown
	}

	window := prices[len(prices)-regimeWindow:]
	ret := WindowReturn(window, regimeWindow)
	vol := stdDev(window)

	switch {
	case vol > p.VolatilityThreshold:
		return RegimeVolatile
	case ret > p.BullThreshold:
		return RegimeBull
	case ret < p.BearThreshold:
		return RegimeBear
	default:
		return RegimeSideways
	}
}

// WindowReturn is the fractional change between the n-th most recent
// price and the most recent one. Returns 0 when the history is too
// short or the reference price is 0.
func WindowReturn(prices []float64, n int) float64 {
	if n < 2 || len(prices) < n {
		return 0
	}
	first := prices[len(prices)-n]
	last := prices[len(prices)-1]
	if first == 0 {
		return 0
	}
	return (last - first) / first
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
