package domain

// DefaultHistoryWindow is how many trailing observations are kept per
// market.
const DefaultHistoryWindow = 20

// PriceHistory is the rolling working set of observed prices keyed by
// market ID. It is owned by the cycle orchestrator: rebuilt from the
// persisted price log at cycle start, extended with the current
// snapshot, and flushed back with the rest of the cycle.
type PriceHistory struct {
	window int
	series map[string][]float64
}

// NewPriceHistory creates an empty history with the given window size.
func NewPriceHistory(window int) *PriceHistory {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &PriceHistory{
		window: window,
		series: make(map[string][]float64),
	}
}

// Seed replaces the series for a market with previously persisted
// observations, keeping at most the trailing window.
func (h *PriceHistory) Seed(marketID string, prices []float64) {
	if len(prices) > h.window {
		prices = prices[len(prices)-h.window:]
	}
	h.series[marketID] = append([]float64(nil), prices...)
}

// Observe appends a price to a market's series, dropping the oldest
// observation on overflow.
func (h *PriceHistory) Observe(marketID string, price float64) {
	s := append(h.series[marketID], price)
	if len(s) > h.window {
		s = s[len(s)-h.window:]
	}
	h.series[marketID] = s
}

// Prices returns the current series for a market, oldest first.
func (h *PriceHistory) Prices(marketID string) []float64 {
	return h.series[marketID]
}

// Window returns the configured window size.
func (h *PriceHistory) Window() int {
	return h.window
}
