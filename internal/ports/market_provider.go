package ports

import (
	"context"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// MarketProvider fetches the current instrument snapshot from the
// upstream feed. Implementations must bound the call with a timeout;
// the engine treats any error as an empty snapshot and continues the
// cycle.
type MarketProvider interface {
	// FetchMarkets returns the snapshot plus the number of feed rows
	// dropped as malformed, so silent dropping stays observable.
	FetchMarkets(ctx context.Context) (markets []domain.Market, dropped int, err error)
}
