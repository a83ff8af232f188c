package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/polypaper/internal/adapters/storage"
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeOutcome(ts time.Time) ports.CycleOutcome {
	pf := domain.NewPortfolio(100)
	pf.Cash = 90
	pf.Equity = 100.5
	pf.HighWaterMark = 101
	pf.MaxDrawdown = 0.02
	pf.ConsecutiveLosses = 1
	pf.Positions["0xbtc"] = &domain.Position{
		ID: "pos-1", MarketID: "0xbtc", Question: "Will BTC break $100k?",
		Strategy: "mean_reversion", EntryTime: ts, EntryPrice: 0.40,
		Size: 25, Notional: 10, ProfitTarget: 0.50, StopLoss: 0.10,
		CurrentPrice: 0.42, UnrealizedPnL: 0.5, UnrealizedPct: 0.05,
	}

	return ports.CycleOutcome{
		Portfolio: pf,
		Trades: []domain.TradeRecord{{
			ID: "trade-1", Timestamp: ts, Type: domain.TradeEntry,
			MarketID: "0xbtc", Question: "Will BTC break $100k?",
			Strategy: "mean_reversion", Price: 0.40, Size: 25, Notional: 10,
		}},
		EquityPoint: domain.EquityPoint{
			Timestamp: ts, Cash: 90, Equity: 100.5, OpenPositions: 1, MaxDrawdown: 0.02,
		},
		Observations: []ports.PriceObservation{{MarketID: "0xbtc", Price: 0.42}},
	}
}

func TestLoadPortfolio_DefaultWhenEmpty(t *testing.T) {
	db := openTestDB(t)

	pf, err := db.LoadPortfolio(context.Background(), 100)

	require.NoError(t, err)
	assert.Equal(t, 100.0, pf.Cash)
	assert.Equal(t, 100.0, pf.Equity)
	assert.Equal(t, 100.0, pf.HighWaterMark)
	assert.Equal(t, 0, pf.ConsecutiveLosses)
	assert.Empty(t, pf.Positions)
}

func TestSaveCycle_Roundtrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveCycle(ctx, makeOutcome(ts)))

	pf, err := db.LoadPortfolio(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 90.0, pf.Cash)
	assert.Equal(t, 100.5, pf.Equity)
	assert.Equal(t, 101.0, pf.HighWaterMark)
	assert.Equal(t, 0.02, pf.MaxDrawdown)
	assert.Equal(t, 1, pf.ConsecutiveLosses)

	require.Len(t, pf.Positions, 1)
	pos := pf.Positions["0xbtc"]
	assert.Equal(t, "pos-1", pos.ID)
	assert.Equal(t, "mean_reversion", pos.Strategy)
	assert.Equal(t, 0.40, pos.EntryPrice)
	assert.Equal(t, 0.50, pos.ProfitTarget)
	assert.Equal(t, 0.42, pos.CurrentPrice)
	assert.Equal(t, ts, pos.EntryTime)

	trades, err := db.Trades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "trade-1", trades[0].ID)
	assert.Equal(t, domain.TradeEntry, trades[0].Type)
	assert.Equal(t, ts, trades[0].Timestamp)

	curve, err := db.EquityCurve(ctx)
	require.NoError(t, err)
	require.Len(t, curve, 1)
	assert.Equal(t, 100.5, curve[0].Equity)
	assert.Equal(t, 1, curve[0].OpenPositions)
}

func TestSaveCycle_ReplacesPositionsAppendsLogs(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveCycle(ctx, makeOutcome(ts)))

	// segundo ciclo: posición cerrada, solo el trade de salida
	pf := domain.NewPortfolio(100)
	pf.Cash = 100.5
	pf.Equity = 100.5
	second := ports.CycleOutcome{
		Portfolio: pf,
		Trades: []domain.TradeRecord{{
			ID: "trade-2", Timestamp: ts.Add(15 * time.Minute), Type: domain.TradeExit,
			MarketID: "0xbtc", Strategy: "mean_reversion", Price: 0.42,
			Size: 25, Notional: 10, RealizedPnL: 0.5, RealizedPct: 0.05,
			ExitReason: domain.ExitProfitTarget,
		}},
		EquityPoint: domain.EquityPoint{
			Timestamp: ts.Add(15 * time.Minute), Cash: 100.5, Equity: 100.5,
		},
	}
	require.NoError(t, db.SaveCycle(ctx, second))

	loaded, err := db.LoadPortfolio(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, loaded.Positions) // el set de posiciones se reemplaza

	trades, err := db.Trades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 2) // el log de trades solo crece
	assert.Equal(t, "trade-1", trades[0].ID)
	assert.Equal(t, "trade-2", trades[1].ID)
	assert.Equal(t, domain.ExitProfitTarget, trades[1].ExitReason)

	curve, err := db.EquityCurve(ctx)
	require.NoError(t, err)
	assert.Len(t, curve, 2)
}

func TestSaveCycle_IsIdempotentPerCycle(t *testing.T) {
	// reprocesar exactamente el mismo outcome no duplica el documento
	// y el segundo intento falla en el trade duplicado sin dejar
	// escrituras parciales visibles
	db := openTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := makeOutcome(ts)

	require.NoError(t, db.SaveCycle(ctx, out))
	assert.Error(t, db.SaveCycle(ctx, out)) // PK del trade ya existe

	trades, err := db.Trades(ctx)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	curve, err := db.EquityCurve(ctx)
	require.NoError(t, err)
	assert.Len(t, curve, 1) // la transacción abortada no dejó el punto extra
}

func TestLoadHistory_BoundedWindowOldestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		out := ports.CycleOutcome{
			Portfolio:   domain.NewPortfolio(100),
			EquityPoint: domain.EquityPoint{Timestamp: ts.Add(time.Duration(i) * time.Minute), Cash: 100, Equity: 100},
			Observations: []ports.PriceObservation{
				{MarketID: "0xbtc", Price: 0.40 + float64(i)*0.01},
			},
		}
		require.NoError(t, db.SaveCycle(ctx, out))
	}

	history, err := db.LoadHistory(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.42, 0.43, 0.44}, history["0xbtc"])
}
