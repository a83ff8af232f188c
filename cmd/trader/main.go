package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polypaper/config"
	"github.com/alejandrodnm/polypaper/internal/adapters/notify"
	"github.com/alejandrodnm/polypaper/internal/adapters/polymarket"
	"github.com/alejandrodnm/polypaper/internal/adapters/storage"
	"github.com/alejandrodnm/polypaper/internal/application/engine"
	"github.com/alejandrodnm/polypaper/internal/domain"
	"github.com/alejandrodnm/polypaper/internal/domain/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one trading cycle and exit")
	report := flag.Bool("report", false, "print performance report and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print open positions table every cycle (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polypaper starting",
		"config", *configPath,
		"interval", cfg.CycleInterval(),
		"once", *once,
		"report", *report,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table || *report)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report {
		runReport(ctx, store, notifier, cfg.Engine.InitialCash)
		return
	}

	client := polymarket.NewClient(cfg.API.GammaBase, cfg.API.MarketLimit)

	engCfg := engine.DefaultConfig()
	engCfg.InitialCash = cfg.Engine.InitialCash
	engCfg.PositionFraction = cfg.Engine.PositionFraction
	engCfg.MinLiquidity = cfg.Engine.MinLiquidity
	engCfg.MinVolume = cfg.Engine.MinVolume
	engCfg.MaxOpenPositions = cfg.Engine.MaxOpenPositions
	engCfg.BreakerLosses = cfg.Engine.BreakerLosses
	engCfg.HistoryWindow = cfg.Engine.HistoryWindow
	engCfg.Regime = domain.RegimeParams{
		VolatilityThreshold: cfg.Regime.VolatilityThreshold,
		BullThreshold:       cfg.Regime.BullThreshold,
		BearThreshold:       cfg.Regime.BearThreshold,
	}

	filter := engine.NewFilter(engine.FilterConfig{
		MinLiquidity:      cfg.Engine.MinLiquidity,
		MinVolume:         cfg.Engine.MinVolume,
		TopicKeywords:     cfg.Engine.TopicKeywords,
		DirectionKeywords: cfg.Engine.DirectionKeywords,
	})

	rules := strategy.Rules{
		&strategy.MeanReversion{
			BuyThreshold: cfg.Strategy.MeanReversion.BuyThreshold,
			ProfitTarget: cfg.Strategy.MeanReversion.ProfitTarget,
			StopLoss:     cfg.Strategy.MeanReversion.StopLoss,
		},
		&strategy.Reversal{
			MinShortMomentum: cfg.Strategy.Reversal.MinShortMomentum,
			MaxLongMomentum:  cfg.Strategy.Reversal.MaxLongMomentum,
			ProfitTarget:     cfg.Strategy.Reversal.ProfitTarget,
			StopLoss:         cfg.Strategy.Reversal.StopLoss,
		},
	}

	eng := engine.New(client, store, filter, rules, engCfg)

	if *once {
		runCycle(ctx, eng, notifier)
		return
	}

	runLoop(ctx, eng, store, notifier, cfg)
	slog.Info("polypaper stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
