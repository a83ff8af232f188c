package engine

import (
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/domain/strategy"
)

// Veto reasons returned by Risk.Check. A veto is a normal skipped
// entry, not an error.
const (
	VetoBreaker      = "circuit_breaker"
	VetoCash         = "insufficient_cash"
	VetoLiquidity    = "low_liquidity"
	VetoMaxPositions = "max_positions"
	VetoBadPrice     = "bad_price"
)

// Risk gates new entries. It never touches existing positions: while
// the breaker is tripped, open positions keep marking and may still
// exit normally.
type Risk struct {
	cfg Config
}

// NewRisk creates the controller from the engine config.
func NewRisk(cfg Config) *Risk {
	return &Risk{cfg: cfg}
}

// Check returns a veto reason, or "" when the entry is allowed.
func (r *Risk) Check(pf *domain.Portfolio, sig strategy.Signal, m domain.Market) string {
	if pf.ConsecutiveLosses >= r.cfg.BreakerLosses {
		return VetoBreaker
	}
	if len(pf.Positions) >= r.cfg.MaxOpenPositions {
		return VetoMaxPositions
	}
	if sig.Price <= 0 {
		return VetoBadPrice
	}
	notional := pf.Cash * r.cfg.PositionFraction
	if notional <= 0 || notional > pf.Cash {
		return VetoCash
	}
	// Redundant defense against a filter bypass.
	if m.Liquidity < r.cfg.MinLiquidity {
		return VetoLiquidity
	}
	return ""
}
