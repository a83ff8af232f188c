package polymarket

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
)

// mapGammaMarkets converts Gamma DTOs to domain.Market, dropping rows
// that cannot be parsed into a usable instrument. Dropping is silent
// by contract but counted so callers can log it.
func mapGammaMarkets(raw []gammaMarket) (markets []domain.Market, dropped int) {
	markets = make([]domain.Market, 0, len(raw))
	for _, gm := range raw {
		m, ok := mapGammaMarket(gm)
		if !ok {
			dropped++
			continue
		}
		markets = append(markets, m)
	}
	return markets, dropped
}

// mapGammaMarket converts one row. A row is malformed when it has no
// usable ID or its outcome arrays are missing, unparseable, or of
// mismatched length.
func mapGammaMarket(gm gammaMarket) (domain.Market, bool) {
	id := gm.ConditionID
	if id == "" {
		id = gm.ID
	}
	if id == "" {
		return domain.Market{}, false
	}

	outcomes, ok := parseOutcomes(gm.Outcomes, gm.OutcomePrices)
	if !ok {
		return domain.Market{}, false
	}

	m := domain.Market{
		ID:       id,
		Question: gm.Question,
		Slug:     gm.Slug,
		Outcomes: outcomes,
		Active:   gm.Active,
		Closed:   gm.Closed,
	}

	if v, err := gm.Volume.Float64(); err == nil {
		m.Volume = v
	} else if v, err := gm.VolumeLegacy.Float64(); err == nil {
		m.Volume = v
	}
	if v, err := gm.Liquidity.Float64(); err == nil {
		m.Liquidity = v
	}

	if gm.EndDateISO != "" {
		// Gamma uses several date formats; try the common ones.
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, gm.EndDateISO); err == nil {
				m.EndDate = t.UTC()
				break
			}
		}
	}

	return m, true
}

// parseOutcomes decodes the paired JSON-encoded string arrays Gamma
// uses for outcome names and prices.
func parseOutcomes(namesJSON, pricesJSON string) (map[string]float64, bool) {
	if namesJSON == "" || pricesJSON == "" {
		return nil, false
	}

	var names, prices []string
	if err := json.Unmarshal([]byte(namesJSON), &names); err != nil {
		return nil, false
	}
	if err := json.Unmarshal([]byte(pricesJSON), &prices); err != nil {
		return nil, false
	}
	if len(names) == 0 || len(names) != len(prices) {
		return nil, false
	}

	outcomes := make(map[string]float64, len(names))
	for i, name := range names {
		p, err := strconv.ParseFloat(prices[i], 64)
		if err != nil || p < 0 || p > 1 {
			return nil, false
		}
		outcomes[name] = p
	}
	return outcomes, true
}
