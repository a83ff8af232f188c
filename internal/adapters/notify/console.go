package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console escribe el estado de cada ciclo y los informes a stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// StatusInput bundles everything PrintStatus needs for one cycle.
type StatusInput struct {
	FeedDegraded    bool
	MarketsSeen     int
	MarketsEligible int
	Opened          int
	Closed          int
	Vetoed          int
	Trades          []domain.TradeRecord
	Positions       []domain.Position
	Cash            float64
	Equity          float64
	MaxDrawdown     float64
	BreakerActive   bool
}

// PrintStatus prints a compact status line for the current cycle.
func (c *Console) PrintStatus(in StatusInput) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts (%d eligible) | +%d open | -%d close | veto:%d | pos:%d | cash $%.2f | eq $%.2f | dd %.1f%%",
		now, in.MarketsSeen, in.MarketsEligible, in.Opened, in.Closed, in.Vetoed,
		len(in.Positions), in.Cash, in.Equity, in.MaxDrawdown*100)

	if in.BreakerActive {
		sb.WriteString(" | BREAKER")
	}
	if in.FeedDegraded {
		sb.WriteString(" | FEED DEGRADED")
	}

	for _, t := range in.Trades {
		switch t.Type {
		case domain.TradeEntry:
			fmt.Fprintf(&sb, "\n  >> BUY  %s @ %.3f $%.2f [%s]",
				compactName(t.Question, 32), t.Price, t.Notional, t.Strategy)
		case domain.TradeExit:
			fmt.Fprintf(&sb, "\n  << SELL %s @ %.3f pnl $%+.2f (%+.1f%%) [%s]",
				compactName(t.Question, 32), t.Price, t.RealizedPnL, t.RealizedPct*100, t.ExitReason)
		}
	}

	fmt.Fprintln(c.out, sb.String())

	if c.table && len(in.Positions) > 0 {
		c.printPositions(in.Positions)
	}
}

// printPositions imprime la tabla de posiciones abiertas.
func (c *Console) printPositions(positions []domain.Position) {
	sorted := make([]domain.Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EntryTime.Before(sorted[j].EntryTime)
	})

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Market", "Strat", "Entry", "Now", "Size", "PnL$", "PnL%", "Tgt", "Stop")

	for _, pos := range sorted {
		tbl.Append(
			compactName(pos.Question, 28),
			pos.Strategy,
			fmt.Sprintf("%.3f", pos.EntryPrice),
			fmt.Sprintf("%.3f", pos.CurrentPrice),
			fmt.Sprintf("%.1f", pos.Size),
			fmt.Sprintf("%+.2f", pos.UnrealizedPnL),
			fmt.Sprintf("%+.1f%%", pos.UnrealizedPct*100),
			fmt.Sprintf("+%.0f%%", pos.ProfitTarget*100),
			fmt.Sprintf("-%.0f%%", pos.StopLoss*100),
		)
	}
	tbl.Render()
}

// ReportInput bundles the aggregated performance figures for PrintReport.
type ReportInput struct {
	InitialCash   float64
	FinalCash     float64
	FinalEquity   float64
	CyclesRun     int
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	TotalPnL      float64
	AvgWin        float64
	AvgLoss       float64
	ProfitFactor  float64
	SharpeRatio   float64
	MaxDrawdown   float64
	PerStrategy   map[string]StrategyLine
	OpenPositions []domain.Position
}

// StrategyLine is the per-strategy breakdown inside a report.
type StrategyLine struct {
	Trades  int
	Wins    int
	NetPnL  float64
	WinRate float64
}

// PrintReport prints a comprehensive performance report.
func (c *Console) PrintReport(r ReportInput) {
	if r.CyclesRun == 0 {
		fmt.Fprintln(c.out, "\n  No trading data yet. Run the engine first for a few cycles.")
		return
	}

	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  PAPER TRADING REPORT\n")
	fmt.Fprintf(c.out, "  %d cycles | %d closed trades\n", r.CyclesRun, r.TotalTrades)
	fmt.Fprintf(c.out, "========================================================\n\n")

	fmt.Fprintf(c.out, "  --- CAPITAL ---\n")
	fmt.Fprintf(c.out, "  Initial cash:          $%.2f\n", r.InitialCash)
	fmt.Fprintf(c.out, "  Final cash:            $%.2f\n", r.FinalCash)
	fmt.Fprintf(c.out, "  Final equity:          $%.2f\n", r.FinalEquity)
	if r.InitialCash > 0 {
		growth := (r.FinalEquity/r.InitialCash - 1) * 100
		fmt.Fprintf(c.out, "  Total return:          %+.2f%%\n", growth)
	}
	fmt.Fprintf(c.out, "  Max drawdown:          %.2f%%\n", r.MaxDrawdown*100)

	fmt.Fprintf(c.out, "\n  --- TRADES ---\n")
	fmt.Fprintf(c.out, "  Closed trades:         %d\n", r.TotalTrades)
	fmt.Fprintf(c.out, "  Winners / losers:      %d / %d\n", r.WinningTrades, r.LosingTrades)
	fmt.Fprintf(c.out, "  Win rate:              %.1f%%\n", r.WinRate*100)
	fmt.Fprintf(c.out, "  Net PnL:               $%+.2f\n", r.TotalPnL)
	fmt.Fprintf(c.out, "  Avg win / avg loss:    $%.2f / $%.2f\n", r.AvgWin, r.AvgLoss)
	if r.ProfitFactor > 0 {
		fmt.Fprintf(c.out, "  Profit factor:         %.2f\n", r.ProfitFactor)
	}
	fmt.Fprintf(c.out, "  Sharpe (annualized):   %.2f\n", r.SharpeRatio)

	if len(r.PerStrategy) > 0 {
		fmt.Fprintf(c.out, "\n  --- PER STRATEGY ---\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Strategy", "Trades", "Wins", "WinRate", "NetPnL")

		names := make([]string, 0, len(r.PerStrategy))
		for name := range r.PerStrategy {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			line := r.PerStrategy[name]
			tbl.Append(
				name,
				fmt.Sprintf("%d", line.Trades),
				fmt.Sprintf("%d", line.Wins),
				fmt.Sprintf("%.1f%%", line.WinRate*100),
				fmt.Sprintf("$%+.2f", line.NetPnL),
			)
		}
		tbl.Render()
	}

	if len(r.OpenPositions) > 0 {
		fmt.Fprintf(c.out, "\n  --- OPEN POSITIONS ---\n")
		c.printPositions(r.OpenPositions)
	}

	fmt.Fprintf(c.out, "\n  --- VERDICT ---\n")
	switch {
	case r.TotalTrades < 10:
		fmt.Fprintf(c.out, "  Need at least 10 closed trades. Currently %d.\n", r.TotalTrades)
		fmt.Fprintf(c.out, "  Keep the engine running and check back later.\n")
	case r.TotalPnL > 0 && r.WinRate >= 0.5:
		fmt.Fprintf(c.out, "  POSITIVE: strategy set is net profitable.\n")
	case r.TotalPnL > 0:
		fmt.Fprintf(c.out, "  MIXED: profitable but win rate below 50%%. Watch the tails.\n")
	default:
		fmt.Fprintf(c.out, "  NEGATIVE: strategy set is not profitable. Review thresholds.\n")
	}

	fmt.Fprintln(c.out)
}

// compactName recorta la pregunta del mercado para el output compacto.
func compactName(question string, max int) string {
	q := strings.TrimSpace(question)
	if len(q) <= max {
		return q
	}
	return q[:max-1] + "…"
}
