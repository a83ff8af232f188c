package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del engine de paper trading.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Strategy StrategyConfig `yaml:"strategy"`
	Regime   RegimeConfig   `yaml:"regime"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// EngineConfig controla el ciclo de trading y los límites de riesgo.
type EngineConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	InitialCash     float64 `yaml:"initial_cash"`
	// PositionFraction es la fracción del cash disponible que se arriesga por entrada.
	PositionFraction float64 `yaml:"position_fraction"`
	MinLiquidity     float64 `yaml:"min_liquidity"`
	MinVolume        float64 `yaml:"min_volume"`
	MaxOpenPositions int     `yaml:"max_open_positions"`
	// BreakerLosses es el número de cierres perdedores consecutivos que activa
	// el circuit breaker (bloquea entradas nuevas hasta un cierre ganador).
	BreakerLosses int `yaml:"breaker_losses"`
	HistoryWindow int `yaml:"history_window"`
	// Keywords de tema y dirección que debe contener la pregunta del mercado.
	TopicKeywords     []string `yaml:"topic_keywords"`
	DirectionKeywords []string `yaml:"direction_keywords"`
}

// StrategyConfig contiene los parámetros de las reglas de entrada.
type StrategyConfig struct {
	MeanReversion MeanReversionConfig `yaml:"mean_reversion"`
	Reversal      ReversalConfig      `yaml:"reversal"`
}

// MeanReversionConfig parametriza la regla de reversión a la media.
type MeanReversionConfig struct {
	BuyThreshold float64 `yaml:"buy_threshold"`
	ProfitTarget float64 `yaml:"profit_target"`
	StopLoss     float64 `yaml:"stop_loss"`
}

// ReversalConfig parametriza la regla de rebote dentro de una tendencia bajista.
type ReversalConfig struct {
	MinShortMomentum float64 `yaml:"min_short_momentum"`
	MaxLongMomentum  float64 `yaml:"max_long_momentum"`
	ProfitTarget     float64 `yaml:"profit_target"`
	StopLoss         float64 `yaml:"stop_loss"`
}

// RegimeConfig parametriza el clasificador de régimen de mercado.
type RegimeConfig struct {
	VolatilityThreshold float64 `yaml:"volatility_threshold"`
	BullThreshold       float64 `yaml:"bull_threshold"`
	BearThreshold       float64 `yaml:"bear_threshold"`
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	GammaBase   string `yaml:"gamma_base"`
	MarketLimit int    `yaml:"market_limit"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Si el archivo YAML no existe, devuelve los defaults sin error — el engine
// es utilizable sin configuración explícita.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// sin archivo de config: solo defaults
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// CycleInterval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYPAPER_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// Los thresholds de estrategia vienen de la calibración del backtest
// híbrido: mean reversion 0.40 de entrada con target/stop anchos,
// reversal con target/stop cortos (5%/8%).
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 900 // cadencia cron de 15 min
	}
	if cfg.Engine.InitialCash <= 0 {
		cfg.Engine.InitialCash = 100
	}
	if cfg.Engine.PositionFraction <= 0 {
		cfg.Engine.PositionFraction = 0.10
	}
	if cfg.Engine.MinLiquidity <= 0 {
		cfg.Engine.MinLiquidity = 100
	}
	if cfg.Engine.MinVolume <= 0 {
		cfg.Engine.MinVolume = 1000
	}
	if cfg.Engine.MaxOpenPositions <= 0 {
		cfg.Engine.MaxOpenPositions = 5
	}
	if cfg.Engine.BreakerLosses <= 0 {
		cfg.Engine.BreakerLosses = 3
	}
	if cfg.Engine.HistoryWindow <= 0 {
		cfg.Engine.HistoryWindow = 20
	}
	if len(cfg.Engine.TopicKeywords) == 0 {
		cfg.Engine.TopicKeywords = []string{
			"BTC", "BITCOIN", "ETH", "ETHEREUM", "SOL", "SOLANA", "CRYPTO",
		}
	}
	if len(cfg.Engine.DirectionKeywords) == 0 {
		cfg.Engine.DirectionKeywords = []string{
			"UP", "ABOVE", "BREAK", "HIGHER", "RISE", "INCREASE", "SURGE",
		}
	}

	if cfg.Strategy.MeanReversion.BuyThreshold <= 0 {
		cfg.Strategy.MeanReversion.BuyThreshold = 0.40
	}
	if cfg.Strategy.MeanReversion.ProfitTarget <= 0 {
		cfg.Strategy.MeanReversion.ProfitTarget = 0.50
	}
	if cfg.Strategy.MeanReversion.StopLoss <= 0 {
		cfg.Strategy.MeanReversion.StopLoss = 0.10
	}
	if cfg.Strategy.Reversal.MinShortMomentum <= 0 {
		cfg.Strategy.Reversal.MinShortMomentum = 0.01
	}
	if cfg.Strategy.Reversal.MaxLongMomentum >= 0 {
		cfg.Strategy.Reversal.MaxLongMomentum = -0.02
	}
	if cfg.Strategy.Reversal.ProfitTarget <= 0 {
		cfg.Strategy.Reversal.ProfitTarget = 0.05
	}
	if cfg.Strategy.Reversal.StopLoss <= 0 {
		cfg.Strategy.Reversal.StopLoss = 0.08
	}

	if cfg.Regime.VolatilityThreshold <= 0 {
		cfg.Regime.VolatilityThreshold = 0.05
	}
	if cfg.Regime.BullThreshold <= 0 {
		cfg.Regime.BullThreshold = 0.10
	}
	if cfg.Regime.BearThreshold >= 0 {
		cfg.Regime.BearThreshold = -0.10
	}

	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.MarketLimit <= 0 {
		cfg.API.MarketLimit = 1000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polypaper.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
