package strategy

import (
	"testing"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMarket = domain.Market{ID: "0xabc", Question: "Will BTC break $100k?"}

func TestMeanReversion_FiresBelowThresholdInCalmRegime(t *testing.T) {
	history := []float64{0.50, 0.48, 0.45, 0.43, 0.41, 0.40, 0.39, 0.42, 0.44, 0.46}
	rule := NewMeanReversion()

	sig, ok := rule.Evaluate(testMarket, history, domain.RegimeSideways, 0.39)

	require.True(t, ok)
	assert.Equal(t, NameMeanReversion, sig.Strategy)
	assert.Equal(t, "0xabc", sig.MarketID)
	assert.Equal(t, 0.39, sig.Price)
	assert.Equal(t, 0.50, sig.ProfitTarget)
	assert.Equal(t, 0.10, sig.StopLoss)
}

func TestMeanReversion_NoSignalAtOrAboveThreshold(t *testing.T) {
	rule := NewMeanReversion()
	_, ok := rule.Evaluate(testMarket, nil, domain.RegimeSideways, 0.40)
	assert.False(t, ok)
}

func TestMeanReversion_WrongRegime(t *testing.T) {
	rule := NewMeanReversion()
	for _, regime := range []domain.Regime{domain.RegimeBear, domain.RegimeVolatile} {
		_, ok := rule.Evaluate(testMarket, nil, regime, 0.30)
		assert.False(t, ok, "regime %s", regime)
	}
}

func TestReversal_FiresOnBounceInDowntrend(t *testing.T) {
	// m10 = (0.26-0.40)/0.40 = -0.35, m2 = (0.26-0.24)/0.24 ≈ +0.083
	history := []float64{0.40, 0.38, 0.36, 0.34, 0.32, 0.30, 0.27, 0.25, 0.24, 0.26}
	rule := NewReversal()

	sig, ok := rule.Evaluate(testMarket, history, domain.RegimeVolatile, 0.26)

	require.True(t, ok)
	assert.Equal(t, NameReversal, sig.Strategy)
	assert.Equal(t, 0.26, sig.Price)
	assert.Equal(t, 0.05, sig.ProfitTarget)
	assert.Equal(t, 0.08, sig.StopLoss)
}

func TestReversal_NoBounceNoSignal(t *testing.T) {
	// caída sostenida sin rebote: m2 negativo
	history := []float64{0.40, 0.38, 0.36, 0.34, 0.32, 0.30, 0.28, 0.26, 0.25, 0.24}
	rule := NewReversal()
	_, ok := rule.Evaluate(testMarket, history, domain.RegimeBear, 0.24)
	assert.False(t, ok)
}

func TestReversal_ShortHistoryNoSignal(t *testing.T) {
	history := []float64{0.30, 0.27, 0.25, 0.24, 0.26}
	rule := NewReversal()
	_, ok := rule.Evaluate(testMarket, history, domain.RegimeBear, 0.26)
	assert.False(t, ok)
}

func TestRules_FirstMatchWins(t *testing.T) {
	// historia que cumple ambas reglas sería rara; forzamos con regimes
	// compatibles con mean-reversion y precio bajo el umbral
	history := []float64{0.50, 0.48, 0.45, 0.43, 0.41, 0.40, 0.39, 0.42, 0.44, 0.39}
	rules := Rules{NewMeanReversion(), NewReversal()}

	sig, ok := rules.Evaluate(testMarket, history, domain.RegimeSideways, 0.39)

	require.True(t, ok)
	assert.Equal(t, NameMeanReversion, sig.Strategy)
}

func TestRules_UnknownRegimeNeverSignals(t *testing.T) {
	rules := Rules{NewMeanReversion(), NewReversal()}
	_, ok := rules.Evaluate(testMarket, nil, domain.RegimeUnknown, 0.10)
	assert.False(t, ok)
}
