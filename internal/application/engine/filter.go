package engine

import (
	"github.com/alejandrodnm/polypaper/internal/domain"
)

// FilterConfig holds the instrument eligibility criteria.
type FilterConfig struct {
	// MinLiquidity excludes markets with too little liquidity to fill
	// a simulated order at the quoted price.
	MinLiquidity float64
	// MinVolume excludes markets without enough trading activity to
	// trust the price series.
	MinVolume float64
	// TopicKeywords and DirectionKeywords are matched against the
	// market question; one from each group is required.
	TopicKeywords     []string
	DirectionKeywords []string
}

// DefaultFilterConfig targets crypto "up"-style binary markets.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinLiquidity: 100,
		MinVolume:    1000,
		TopicKeywords: []string{
			"BTC", "BITCOIN", "ETH", "ETHEREUM", "SOL", "SOLANA", "CRYPTO",
		},
		DirectionKeywords: []string{
			"UP", "ABOVE", "BREAK", "HIGHER", "RISE", "INCREASE", "SURGE",
		},
	}
}

// Filter selects eligible instruments from the feed snapshot.
type Filter struct {
	cfg FilterConfig
}

// NewFilter creates a Filter with the given criteria.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Apply returns the eligible markets and the count of excluded ones.
// An empty result is a normal outcome, never an error.
func (f *Filter) Apply(markets []domain.Market) (eligible []domain.Market, excluded int) {
	eligible = make([]domain.Market, 0, len(markets))
	for _, m := range markets {
		if f.passes(m) {
			eligible = append(eligible, m)
		} else {
			excluded++
		}
	}
	return eligible, excluded
}

// passes reports whether a market meets every eligibility criterion.
func (f *Filter) passes(m domain.Market) bool {
	if !m.Active || m.Closed {
		return false
	}
	if !m.Binary() {
		return false
	}
	if m.Liquidity < f.cfg.MinLiquidity {
		return false
	}
	if m.Volume < f.cfg.MinVolume {
		return false
	}
	return m.MatchesKeywords(f.cfg.TopicKeywords, f.cfg.DirectionKeywords)
}
