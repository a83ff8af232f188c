package storage

// sqlite.go — persistencia del documento de portfolio.
//
// Estrategia:
//   - `portfolio`: UNA fila (id=1) con el documento vivo (cash, equity,
//     high-water mark, drawdown, racha de pérdidas).
//   - `positions`: una fila por posición abierta, PK = market_id. Se
//     reemplaza el set completo en cada ciclo.
//   - `trades` y `equity_curve`: append-only, nunca se mutan.
//   - `price_history`: log append-only de precios observados; se poda
//     al arrancar para mantener la DB ligera.
//   - SaveCycle escribe TODO el resultado del ciclo en una única
//     transacción: un ciclo interrumpido antes del commit es invisible
//     para el siguiente load, que es la estrategia de crash-recovery.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS portfolio (
    id                 INTEGER PRIMARY KEY CHECK (id = 1),
    cash               REAL NOT NULL,
    equity             REAL NOT NULL,
    high_water_mark    REAL NOT NULL,
    max_drawdown       REAL NOT NULL DEFAULT 0,
    consecutive_losses INTEGER NOT NULL DEFAULT 0,
    updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
    market_id      TEXT PRIMARY KEY,
    id             TEXT NOT NULL,
    question       TEXT,
    strategy       TEXT NOT NULL,
    entry_time     DATETIME NOT NULL,
    entry_price    REAL NOT NULL,
    size           REAL NOT NULL,
    notional       REAL NOT NULL,
    profit_target  REAL NOT NULL,
    stop_loss      REAL NOT NULL,
    current_price  REAL NOT NULL DEFAULT 0,
    unrealized_pnl REAL NOT NULL DEFAULT 0,
    unrealized_pct REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    id           TEXT PRIMARY KEY,
    ts           DATETIME NOT NULL,
    type         TEXT NOT NULL,
    market_id    TEXT NOT NULL,
    question     TEXT,
    strategy     TEXT NOT NULL,
    price        REAL NOT NULL,
    size         REAL NOT NULL,
    notional     REAL NOT NULL,
    realized_pnl REAL NOT NULL DEFAULT 0,
    realized_pct REAL NOT NULL DEFAULT 0,
    exit_reason  TEXT
);

CREATE TABLE IF NOT EXISTS equity_curve (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    ts             DATETIME NOT NULL,
    cash           REAL NOT NULL,
    equity         REAL NOT NULL,
    open_positions INTEGER NOT NULL,
    max_drawdown   REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS price_history (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    market_id TEXT NOT NULL,
    ts        DATETIME NOT NULL,
    price     REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_ts       ON trades(ts);
CREATE INDEX IF NOT EXISTS idx_trades_market   ON trades(market_id);
CREATE INDEX IF NOT EXISTS idx_equity_ts       ON equity_curve(ts);
CREATE INDEX IF NOT EXISTS idx_prices_market   ON price_history(market_id, id);
`

// retentionPrices: los precios solo alimentan la ventana de régimen,
// no hace falta conservarlos más de una semana.
const retentionPrices = 7 * 24 * time.Hour

// SQLiteStorage implementa ports.PortfolioStorage usando SQLite
// (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada,
// aplica el schema y poda el log de precios antiguo.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{db: db}
	if err := s.ApplySchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	s.pruneOld(context.Background())
	return s, nil
}

// ApplySchema crea las tablas si no existen.
func (s *SQLiteStorage) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("storage.ApplySchema: %w", err)
	}
	return nil
}

// LoadPortfolio devuelve el último estado persistido, o el documento
// por defecto (cash inicial, sin posiciones, drawdown cero) si nunca
// se ha guardado nada.
func (s *SQLiteStorage) LoadPortfolio(ctx context.Context, initialCash float64) (*domain.Portfolio, error) {
	pf := domain.NewPortfolio(initialCash)

	err := s.db.QueryRowContext(ctx, `
		SELECT cash, equity, high_water_mark, max_drawdown, consecutive_losses
		FROM portfolio WHERE id = 1`).
		Scan(&pf.Cash, &pf.Equity, &pf.HighWaterMark, &pf.MaxDrawdown, &pf.ConsecutiveLosses)
	if err == sql.ErrNoRows {
		return pf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.LoadPortfolio: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, id, question, strategy, entry_time, entry_price,
		       size, notional, profit_target, stop_loss,
		       current_price, unrealized_pnl, unrealized_pct
		FROM positions`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadPortfolio: positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pos domain.Position
		var question sql.NullString
		var entryTime string
		if err := rows.Scan(
			&pos.MarketID, &pos.ID, &question, &pos.Strategy, &entryTime,
			&pos.EntryPrice, &pos.Size, &pos.Notional,
			&pos.ProfitTarget, &pos.StopLoss,
			&pos.CurrentPrice, &pos.UnrealizedPnL, &pos.UnrealizedPct,
		); err != nil {
			return nil, fmt.Errorf("storage.LoadPortfolio: scan position: %w", err)
		}
		if question.Valid {
			pos.Question = question.String
		}
		pos.EntryTime, _ = time.Parse(time.RFC3339, entryTime)
		p := pos
		pf.Positions[pos.MarketID] = &p
	}
	return pf, rows.Err()
}

// LoadHistory devuelve hasta `window` precios por mercado, los más
// recientes, ordenados del más antiguo al más nuevo.
func (s *SQLiteStorage) LoadHistory(ctx context.Context, window int) (map[string][]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT market_id, price FROM price_history ORDER BY market_id, id`)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]float64)
	for rows.Next() {
		var id string
		var price float64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("storage.LoadHistory: scan: %w", err)
		}
		series := append(result[id], price)
		if len(series) > window {
			series = series[len(series)-window:]
		}
		result[id] = series
	}
	return result, rows.Err()
}

// SaveCycle persiste el resultado completo del ciclo en una única
// transacción: documento de portfolio, set de posiciones abiertas,
// trades del ciclo, un punto de equity y los precios observados.
func (s *SQLiteStorage) SaveCycle(ctx context.Context, out ports.CycleOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveCycle: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := out.EquityPoint.Timestamp.UTC().Format(time.RFC3339)
	pf := out.Portfolio

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO portfolio (id, cash, equity, high_water_mark, max_drawdown, consecutive_losses, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    cash               = excluded.cash,
		    equity             = excluded.equity,
		    high_water_mark    = excluded.high_water_mark,
		    max_drawdown       = excluded.max_drawdown,
		    consecutive_losses = excluded.consecutive_losses,
		    updated_at         = excluded.updated_at`,
		pf.Cash, pf.Equity, pf.HighWaterMark, pf.MaxDrawdown, pf.ConsecutiveLosses, now,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: portfolio: %w", err)
	}

	// Reemplazar el set completo de posiciones abiertas.
	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("storage.SaveCycle: clear positions: %w", err)
	}
	for _, pos := range pf.Positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions (market_id, id, question, strategy, entry_time,
			                       entry_price, size, notional, profit_target, stop_loss,
			                       current_price, unrealized_pnl, unrealized_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pos.MarketID, pos.ID, pos.Question, pos.Strategy,
			pos.EntryTime.UTC().Format(time.RFC3339),
			pos.EntryPrice, pos.Size, pos.Notional, pos.ProfitTarget, pos.StopLoss,
			pos.CurrentPrice, pos.UnrealizedPnL, pos.UnrealizedPct,
		); err != nil {
			return fmt.Errorf("storage.SaveCycle: position %s: %w", pos.MarketID, err)
		}
	}

	for _, t := range out.Trades {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trades (id, ts, type, market_id, question, strategy,
			                    price, size, notional, realized_pnl, realized_pct, exit_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Timestamp.UTC().Format(time.RFC3339), string(t.Type),
			t.MarketID, t.Question, t.Strategy,
			t.Price, t.Size, t.Notional, t.RealizedPnL, t.RealizedPct, t.ExitReason,
		); err != nil {
			return fmt.Errorf("storage.SaveCycle: trade %s: %w", t.ID, err)
		}
	}

	ep := out.EquityPoint
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO equity_curve (ts, cash, equity, open_positions, max_drawdown)
		VALUES (?, ?, ?, ?, ?)`,
		now, ep.Cash, ep.Equity, ep.OpenPositions, ep.MaxDrawdown,
	); err != nil {
		return fmt.Errorf("storage.SaveCycle: equity point: %w", err)
	}

	for _, obs := range out.Observations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO price_history (market_id, ts, price) VALUES (?, ?, ?)`,
			obs.MarketID, now, obs.Price,
		); err != nil {
			return fmt.Errorf("storage.SaveCycle: price %s: %w", obs.MarketID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveCycle: commit: %w", err)
	}
	return nil
}

// Trades devuelve el log completo de trades en orden de inserción.
func (s *SQLiteStorage) Trades(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, type, market_id, question, strategy,
		       price, size, notional, realized_pnl, realized_pct, exit_reason
		FROM trades ORDER BY ts, id`)
	if err != nil {
		return nil, fmt.Errorf("storage.Trades: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var ts, typ string
		var question, reason sql.NullString
		if err := rows.Scan(
			&t.ID, &ts, &typ, &t.MarketID, &question, &t.Strategy,
			&t.Price, &t.Size, &t.Notional, &t.RealizedPnL, &t.RealizedPct, &reason,
		); err != nil {
			return nil, fmt.Errorf("storage.Trades: scan: %w", err)
		}
		t.Type = domain.TradeType(typ)
		t.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if question.Valid {
			t.Question = question.String
		}
		if reason.Valid {
			t.ExitReason = reason.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// EquityCurve devuelve la curva de equity en orden cronológico.
func (s *SQLiteStorage) EquityCurve(ctx context.Context) ([]domain.EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, cash, equity, open_positions, max_drawdown
		FROM equity_curve ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage.EquityCurve: %w", err)
	}
	defer rows.Close()

	var out []domain.EquityPoint
	for rows.Next() {
		var ep domain.EquityPoint
		var ts string
		if err := rows.Scan(&ts, &ep.Cash, &ep.Equity, &ep.OpenPositions, &ep.MaxDrawdown); err != nil {
			return nil, fmt.Errorf("storage.EquityCurve: scan: %w", err)
		}
		ep.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, ep)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina precios antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionPrices).Format(time.RFC3339)
	s.db.ExecContext(ctx, `DELETE FROM price_history WHERE ts < ?`, cutoff)
}
