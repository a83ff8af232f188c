package domain

import (
	"strings"
	"time"
)

// Market is one tradable binary prediction market as seen in a single
// feed snapshot. It is ephemeral: a fresh copy arrives every cycle and
// is never persisted verbatim.
type Market struct {
	ID        string
	Question  string
	Slug      string
	Outcomes  map[string]float64 // outcome name → price in [0,1]
	Liquidity float64
	Volume    float64
	EndDate   time.Time
	Active    bool
	Closed    bool
}

// Binary reports whether the market has exactly two outcomes.
func (m Market) Binary() bool {
	return len(m.Outcomes) == 2
}

// YesPrice returns the price of the "Yes" outcome. When the market
// uses other outcome labels, the first outcome in lexical order is
// treated as the target side so the choice is deterministic.
func (m Market) YesPrice() (float64, bool) {
	if !m.Binary() {
		return 0, false
	}
	for name, price := range m.Outcomes {
		if strings.EqualFold(name, "yes") {
			return price, true
		}
	}
	var first string
	for name := range m.Outcomes {
		if first == "" || name < first {
			first = name
		}
	}
	return m.Outcomes[first], true
}

// MatchesKeywords reports whether the market question contains at least
// one keyword from each group (case-insensitive).
func (m Market) MatchesKeywords(groups ...[]string) bool {
	q := strings.ToUpper(m.Question)
	for _, group := range groups {
		found := false
		for _, kw := range group {
			if strings.Contains(q, strings.ToUpper(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TruncateQuestion returns the question truncated to maxLen characters,
// falling back to a prefix of the market ID when the question is empty.
func TruncateQuestion(question, id string, maxLen int) string {
	q := question
	if q == "" {
		if len(id) > 20 {
			q = id[:20] + "..."
		} else {
			q = id
		}
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
