package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	markets []domain.Market
	dropped int
	err     error
}

func (f *fakeProvider) FetchMarkets(context.Context) ([]domain.Market, int, error) {
	return f.markets, f.dropped, f.err
}

type fakeStore struct {
	pf      *domain.Portfolio
	history map[string][]float64
	saved   []ports.CycleOutcome
	saveErr error
}

func (f *fakeStore) ApplySchema(context.Context) error { return nil }

func (f *fakeStore) LoadPortfolio(_ context.Context, initialCash float64) (*domain.Portfolio, error) {
	if f.pf == nil {
		return domain.NewPortfolio(initialCash), nil
	}
	return f.pf, nil
}

func (f *fakeStore) LoadHistory(context.Context, int) (map[string][]float64, error) {
	return f.history, nil
}

func (f *fakeStore) SaveCycle(_ context.Context, out ports.CycleOutcome) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, out)
	return nil
}

func (f *fakeStore) Trades(context.Context) ([]domain.TradeRecord, error)     { return nil, nil }
func (f *fakeStore) EquityCurve(context.Context) ([]domain.EquityPoint, error) { return nil, nil }

func btcMarket(price float64) domain.Market {
	return domain.Market{
		ID:        "0xbtc",
		Question:  "Will BTC break $100k?",
		Outcomes:  map[string]float64{"Yes": price, "No": 1 - price},
		Liquidity: 500,
		Volume:    5000,
		Active:    true,
	}
}

func newTestEngine(provider ports.MarketProvider, store ports.PortfolioStorage) *Engine {
	e := New(provider, store, NewFilter(DefaultFilterConfig()), nil, DefaultConfig())
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestRunOnce_EmptyFeed(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(&fakeProvider{}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.False(t, result.FeedDegraded)
	assert.Equal(t, 0, result.Opened)
	assert.Equal(t, 0, result.ClosedTrades)
	assert.Equal(t, 100.0, result.Cash)
	assert.Equal(t, 100.0, result.Equity)

	// exactamente un punto de equity por ciclo, sin trades
	require.Len(t, store.saved, 1)
	assert.Empty(t, store.saved[0].Trades)
	assert.Equal(t, 100.0, store.saved[0].EquityPoint.Equity)
	assert.Equal(t, 0, store.saved[0].EquityPoint.OpenPositions)
}

func TestRunOnce_FeedFailureIsDegradedNotFatal(t *testing.T) {
	store := &fakeStore{}
	eng := newTestEngine(&fakeProvider{err: errors.New("gamma down")}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.True(t, result.FeedDegraded)
	assert.Len(t, store.saved, 1) // el ciclo degradado también persiste
}

func TestRunOnce_MeanReversionEntry(t *testing.T) {
	store := &fakeStore{
		// 9 puntos previos; con el precio actual la ventana queda sideways
		history: map[string][]float64{
			"0xbtc": {0.42, 0.40, 0.39, 0.41, 0.40, 0.42, 0.41, 0.40, 0.41},
		},
	}
	eng := newTestEngine(&fakeProvider{markets: []domain.Market{btcMarket(0.39)}}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Opened)
	require.Len(t, result.Trades, 1)

	entry := result.Trades[0]
	assert.Equal(t, domain.TradeEntry, entry.Type)
	assert.Equal(t, "mean_reversion", entry.Strategy)
	assert.Equal(t, 0.39, entry.Price)
	assert.InDelta(t, 10.0, entry.Notional, 1e-9) // 10% de 100

	assert.InDelta(t, 90.0, result.Cash, 1e-9)
	// equity = cash + unrealized; el PnL no realizado de la entrada es 0
	assert.InDelta(t, 90.0, result.Equity, 1e-9)

	require.Len(t, store.saved, 1)
	require.Len(t, store.saved[0].Portfolio.Positions, 1)
	pos := store.saved[0].Portfolio.Positions["0xbtc"]
	assert.Equal(t, 0.50, pos.ProfitTarget)
	assert.Equal(t, 0.10, pos.StopLoss)
	assert.NotEmpty(t, pos.ID)
}

func TestRunOnce_NoEntryWithoutEnoughHistory(t *testing.T) {
	store := &fakeStore{} // sin historia previa: régimen unknown
	eng := newTestEngine(&fakeProvider{markets: []domain.Market{btcMarket(0.39)}}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Opened)
	// el precio observado sí se persiste para ciclos futuros
	require.Len(t, store.saved, 1)
	require.Len(t, store.saved[0].Observations, 1)
	assert.Equal(t, 0.39, store.saved[0].Observations[0].Price)
}

func openPosition40(strategy string, target, stop float64) *domain.Portfolio {
	pf := domain.NewPortfolio(100)
	pf.Cash = 90
	pf.Positions["0xbtc"] = &domain.Position{
		ID: "pos-1", MarketID: "0xbtc", Question: "Will BTC break $100k?",
		Strategy: strategy, EntryPrice: 0.40, Size: 25, Notional: 10,
		ProfitTarget: target, StopLoss: stop,
	}
	return pf
}

func TestRunOnce_ProfitTargetExit(t *testing.T) {
	store := &fakeStore{pf: openPosition40("mean_reversion", 0.50, 0.10)}
	eng := newTestEngine(&fakeProvider{markets: []domain.Market{btcMarket(0.65)}}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.ClosedTrades)
	require.Len(t, result.Trades, 1)

	exit := result.Trades[0]
	assert.Equal(t, domain.TradeExit, exit.Type)
	assert.Equal(t, domain.ExitProfitTarget, exit.ExitReason)
	assert.InDelta(t, 6.25, exit.RealizedPnL, 1e-9) // 25*(0.65-0.40)

	// 90 + 25*0.65 = 106.25, sin posiciones abiertas
	assert.InDelta(t, 106.25, result.Cash, 1e-9)
	assert.InDelta(t, 106.25, result.Equity, 1e-9)
	assert.Equal(t, 0, result.ConsecutiveLosses) // cierre ganador resetea
	assert.Empty(t, store.saved[0].Portfolio.Positions)
}

func TestRunOnce_StopLossExit(t *testing.T) {
	pf := openPosition40("reversal", 0.05, 0.08)
	pf.ConsecutiveLosses = 2
	store := &fakeStore{pf: pf}
	// -9% desde la entrada: 0.40 → 0.364
	eng := newTestEngine(&fakeProvider{markets: []domain.Market{btcMarket(0.364)}}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Trades, 1)
	assert.Equal(t, domain.ExitStopLoss, result.Trades[0].ExitReason)
	assert.InDelta(t, -0.9, result.Trades[0].RealizedPnL, 1e-9)
	assert.Equal(t, 3, result.ConsecutiveLosses)
	assert.True(t, result.BreakerActive)
}

func TestRunOnce_BreakerVetoesEntries(t *testing.T) {
	pf := domain.NewPortfolio(100)
	pf.ConsecutiveLosses = 3
	store := &fakeStore{
		pf: pf,
		history: map[string][]float64{
			"0xbtc": {0.42, 0.40, 0.39, 0.41, 0.40, 0.42, 0.41, 0.40, 0.41},
		},
	}
	eng := newTestEngine(&fakeProvider{markets: []domain.Market{btcMarket(0.39)}}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Opened)
	assert.Equal(t, 1, result.Vetoed)
	assert.True(t, result.BreakerActive)
}

func TestRunOnce_OnePositionPerMarket(t *testing.T) {
	// posición abierta dentro de banda: ni sale ni se reabre
	store := &fakeStore{
		pf: openPosition40("mean_reversion", 0.50, 0.10),
		history: map[string][]float64{
			"0xbtc": {0.42, 0.40, 0.39, 0.41, 0.40, 0.42, 0.41, 0.40, 0.41},
		},
	}
	eng := newTestEngine(&fakeProvider{markets: []domain.Market{btcMarket(0.39)}}, store)

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.Opened)
	assert.Equal(t, 0, result.ClosedTrades)
	require.Len(t, store.saved[0].Portfolio.Positions, 1)
	// mark-to-market sí se refresca
	assert.Equal(t, 0.39, store.saved[0].Portfolio.Positions["0xbtc"].CurrentPrice)
}

func TestRunOnce_MissingMarketKeepsLastMark(t *testing.T) {
	pf := openPosition40("mean_reversion", 0.50, 0.10)
	pf.Positions["0xbtc"].MarkToMarket(0.42)
	store := &fakeStore{pf: pf}
	eng := newTestEngine(&fakeProvider{}, store) // snapshot vacío

	result, err := eng.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, result.ClosedTrades)
	// equity = 90 + 25*(0.42-0.40) con el último mark conocido
	assert.InDelta(t, 90.5, result.Equity, 1e-9)
}

func TestRunOnce_PersistFailureIsFatal(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	eng := newTestEngine(&fakeProvider{}, store)

	_, err := eng.RunOnce(context.Background())
	assert.Error(t, err)
}
