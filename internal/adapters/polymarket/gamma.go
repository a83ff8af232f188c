package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

const gammaMarketsPath = "/markets"

// FetchMarkets retrieves the current active markets from Gamma and
// maps them to domain instruments. Implements ports.MarketProvider.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Market, int, error) {
	url := fmt.Sprintf("%s%s?limit=%d&active=true", c.gammaBase, gammaMarketsPath, c.marketLimit)

	var resp gammaMarketsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, 0, fmt.Errorf("polymarket.FetchMarkets: %w", err)
	}

	markets, dropped := mapGammaMarkets(resp)
	if dropped > 0 {
		slog.Debug("dropped malformed feed rows", "dropped", dropped, "kept", len(markets))
	}
	return markets, dropped, nil
}
