package ports

import (
	"context"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// PriceObservation is one persisted price point for a market.
type PriceObservation struct {
	MarketID string
	Price    float64
}

// CycleOutcome is everything one cycle produces; the store must commit
// it atomically so an interrupted cycle is invisible to the next load.
type CycleOutcome struct {
	Portfolio *domain.Portfolio
	// Trades are the records appended during this cycle, in order.
	Trades      []domain.TradeRecord
	EquityPoint domain.EquityPoint
	// Observations are the prices seen this cycle, appended to the
	// persisted history log.
	Observations []PriceObservation
}

// PortfolioStorage persists the paper trading state. The portfolio
// document follows a load-mutate-save pattern and is not safe under
// concurrent writers; callers must serialize cycles.
type PortfolioStorage interface {
	ApplySchema(ctx context.Context) error

	// LoadPortfolio returns the last durably written state, or the
	// default document with the given starting cash when none exists.
	LoadPortfolio(ctx context.Context, initialCash float64) (*domain.Portfolio, error)

	// LoadHistory returns up to window trailing persisted prices per
	// market, oldest first.
	LoadHistory(ctx context.Context, window int) (map[string][]float64, error)

	// SaveCycle writes the whole cycle outcome in one transaction.
	SaveCycle(ctx context.Context, out CycleOutcome) error

	// Read side, used for reporting only.
	Trades(ctx context.Context) ([]domain.TradeRecord, error)
	EquityCurve(ctx context.Context) ([]domain.EquityPoint, error)
}
