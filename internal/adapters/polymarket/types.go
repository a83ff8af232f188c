package polymarket

import "encoding/json"

// Raw Gamma API DTOs, used inside this package only. Conversion to
// domain entities lives in mapping.go.

// gammaMarketsResponse is the response of GET /markets.
type gammaMarketsResponse []gammaMarket

// gammaMarket is one market row. Gamma returns several numeric fields
// as JSON strings, and the outcome arrays as JSON-encoded string
// arrays (e.g. `"[\"Yes\", \"No\"]"`), so those are decoded in a
// second pass.
type gammaMarket struct {
	ConditionID   string      `json:"conditionId"`
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	Outcomes      string      `json:"outcomes"`
	OutcomePrices string      `json:"outcomePrices"`
	Volume        json.Number `json:"volumeNum"`
	VolumeLegacy  json.Number `json:"volume"`
	Liquidity     json.Number `json:"liquidityNum"`
	EndDateISO    string      `json:"endDateIso"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
}
