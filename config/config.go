package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trailbot/internal/adapters/logger" // Import the logger package for LogLevel
	"trailbot/internal/domain"
	"trailbot/internal/pkg/symbol"
	"trailbot/internal/ports"
	"trailbot/internal/risk"
	"trailbot/internal/strategy/indicators"
	"trailbot/internal/strategy/strategies"
)

// maxCandleLimit is the largest kline page the exchange serves.
const maxCandleLimit = 1000

// Config holds all application configuration. It is immutable for one run.
type Config struct {
	// Exchange
	Mode      domain.Mode
	APIKey    string
	SecretKey string

	// Trading Parameters
	Symbol        string  // Internal form, e.g. "BTC/USDT"
	Timeframe     string  // Kline interval, e.g. "1m"
	USDAmount     float64 // Quote amount spent per entry
	StopLossPct   float64 // Drawdown from peak in percent (e.g., 1.5)
	TakeProfitPct float64 // Profit that activates the trailing stop, in percent (e.g., 3.0)

	// Strategy Parameters
	Strategy          string // "trend" or "crossover"
	EMAFastSpan       int
	EMASlowSpan       int
	RSIPeriod         int
	VolumeWindow      int
	RSIEntryStandard  float64 // <= 0 disables the standard rule
	RSIEntrySensitive float64

	// Loop
	CandleLimit     int
	PollInterval    time.Duration
	BackoffInterval time.Duration
	RequestTimeout  time.Duration

	// Storage
	DBPath        string
	FavoritesPath string

	// Paper trading
	PaperBalance float64 // Starting quote balance
	PaperLotStep float64 // Quantity step for simulated fills

	// Observability
	LogLevel    logger.LogLevel // Use the LogLevel type from the logger adapter
	MetricsAddr string          // Empty disables the /metrics endpoint
}

// LoadConfig loads configuration from environment variables (.env file).
// Every problem found is reported in a single error wrapping ports.ErrConfigurationError.
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Exchange
	modeStr := strings.ToLower(getEnv("MODE", string(domain.ModeTestnet)))
	mode, ok := domain.ParseMode(modeStr)
	if !ok {
		errs = append(errs, fmt.Sprintf("MODE must be one of real, testnet, paper (got %q)", modeStr))
	}
	cfg.Mode = mode

	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	if cfg.Mode != domain.ModePaper {
		if cfg.APIKey == "" {
			errs = append(errs, "BINANCE_API_KEY must be set")
		}
		if cfg.SecretKey == "" {
			errs = append(errs, "BINANCE_API_SECRET must be set")
		}
	}

	// Trading Parameters
	rawSymbol := getEnv("SYMBOL", "BTC/USDT")
	cfg.Symbol = symbol.Normalize(rawSymbol)
	if cfg.Symbol == "" {
		errs = append(errs, fmt.Sprintf("SYMBOL %q is not a BASE/QUOTE pair", rawSymbol))
	}

	cfg.Timeframe = getEnv("TIMEFRAME", "1m")

	cfg.USDAmount, err = getEnvAsFloatRequired("USD_AMOUNT", 11)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid USD_AMOUNT: %v", err))
	} else if cfg.USDAmount <= 0 {
		errs = append(errs, "USD_AMOUNT must be positive")
	}

	cfg.StopLossPct, err = getEnvAsFloatRequired("STOP_LOSS_PCT", 1.5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STOP_LOSS_PCT: %v", err))
	} else if cfg.StopLossPct <= 0 || cfg.StopLossPct >= 100 {
		errs = append(errs, "STOP_LOSS_PCT must be between 0 and 100 (exclusive)")
	}

	cfg.TakeProfitPct, err = getEnvAsFloatRequired("TAKE_PROFIT_PCT", 3.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TAKE_PROFIT_PCT: %v", err))
	} else if cfg.TakeProfitPct <= 0 {
		errs = append(errs, "TAKE_PROFIT_PCT must be positive")
	}

	// Strategy Parameters
	cfg.Strategy = strings.ToLower(getEnv("STRATEGY", strategies.NameTrend))
	defaultFast := 9
	if cfg.Strategy == strategies.NameCrossover {
		defaultFast = 50
	}

	intKeys := []struct {
		key    string
		def    int
		target *int
	}{
		{"EMA_FAST_SPAN", defaultFast, &cfg.EMAFastSpan},
		{"EMA_SLOW_SPAN", 200, &cfg.EMASlowSpan},
		{"RSI_PERIOD", 14, &cfg.RSIPeriod},
		{"VOLUME_WINDOW", 20, &cfg.VolumeWindow},
	}
	numericOK := true
	for _, k := range intKeys {
		if *k.target, err = getEnvAsIntRequired(k.key, k.def); err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", k.key, err))
			numericOK = false
		}
	}

	// The standard rule buys on RSI alone; it is off unless configured.
	cfg.RSIEntryStandard, err = getEnvAsFloatRequired("RSI_ENTRY_STANDARD", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RSI_ENTRY_STANDARD: %v", err))
		numericOK = false
	}
	cfg.RSIEntrySensitive, err = getEnvAsFloatRequired("RSI_ENTRY_SENSITIVE", 40)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RSI_ENTRY_SENSITIVE: %v", err))
		numericOK = false
	}

	var strat ports.Strategy
	if numericOK {
		if err := cfg.IndicatorSettings().Validate(); err != nil {
			errs = append(errs, err.Error())
		} else if strat, err = strategies.New(cfg.Strategy, cfg.StrategyConfig()); err != nil {
			errs = append(errs, err.Error())
		}
	}

	// Loop
	cfg.CandleLimit, err = getEnvAsIntRequired("CANDLE_LIMIT", 250)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CANDLE_LIMIT: %v", err))
	} else if cfg.CandleLimit < cfg.EMASlowSpan || cfg.CandleLimit > maxCandleLimit {
		errs = append(errs, fmt.Sprintf("CANDLE_LIMIT must be between EMA_SLOW_SPAN (%d) and %d", cfg.EMASlowSpan, maxCandleLimit))
	} else if strat != nil && cfg.CandleLimit < strat.RequiredDataPoints() {
		errs = append(errs, fmt.Sprintf("CANDLE_LIMIT %d is below the %d candles strategy %s needs", cfg.CandleLimit, strat.RequiredDataPoints(), strat.Name()))
	}

	cfg.PollInterval, err = getEnvAsDurationRequired("POLL_INTERVAL", time.Second)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid POLL_INTERVAL: %v", err))
	} else if cfg.PollInterval <= 0 {
		errs = append(errs, "POLL_INTERVAL must be positive")
	}

	cfg.BackoffInterval, err = getEnvAsDurationRequired("BACKOFF_INTERVAL", 5*time.Second)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BACKOFF_INTERVAL: %v", err))
	} else if cfg.BackoffInterval <= 0 {
		errs = append(errs, "BACKOFF_INTERVAL must be positive")
	}

	cfg.RequestTimeout, err = getEnvAsDurationRequired("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REQUEST_TIMEOUT: %v", err))
	} else if cfg.RequestTimeout <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT must be positive")
	}

	// Storage
	cfg.DBPath = getEnv("DB_PATH", "./data/trailbot.db")
	cfg.FavoritesPath = getEnv("FAVORITES_PATH", "./data/favorites.json")

	// Paper trading
	cfg.PaperBalance, err = getEnvAsFloatRequired("PAPER_BALANCE", 1000)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PAPER_BALANCE: %v", err))
	} else if cfg.PaperBalance < 0 {
		errs = append(errs, "PAPER_BALANCE cannot be negative")
	}

	cfg.PaperLotStep, err = getEnvAsFloatRequired("PAPER_LOT_STEP", 0.00001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PAPER_LOT_STEP: %v", err))
	} else if cfg.PaperLotStep <= 0 {
		errs = append(errs, "PAPER_LOT_STEP must be positive")
	}

	// Observability
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ports.ErrConfigurationError, strings.Join(errs, "; "))
	}

	return cfg, nil
}

// IndicatorSettings returns the periods used by the indicator engine.
func (c *Config) IndicatorSettings() indicators.Settings {
	return indicators.Settings{
		FastEMASpan:  c.EMAFastSpan,
		SlowEMASpan:  c.EMASlowSpan,
		RSIPeriod:    c.RSIPeriod,
		VolumeWindow: c.VolumeWindow,
	}
}

// StrategyConfig returns the thresholds for strategies.New.
func (c *Config) StrategyConfig() strategies.Config {
	cfg := strategies.DefaultConfig()
	cfg.Indicators = c.IndicatorSettings()
	cfg.StandardRSI = c.RSIEntryStandard
	cfg.SensitiveRSI = c.RSIEntrySensitive
	return cfg
}

// TrackerConfig returns the exit thresholds for the position tracker.
func (c *Config) TrackerConfig() risk.TrackerConfig {
	return risk.TrackerConfig{
		StopLossPct:   c.StopLossPct,
		TakeProfitPct: c.TakeProfitPct,
	}
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

// getEnvAsDurationRequired accepts Go durations ("1s", "500ms") or plain seconds ("5").
func getEnvAsDurationRequired(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
