package strategies

import (
	"fmt"
	"strings"

	"trailbot/internal/ports"
	"trailbot/internal/strategy/indicators"
)

// Strategy names accepted by New.
const (
	NameTrend     = "trend"
	NameCrossover = "crossover"
)

// Config holds the thresholds shared by the strategy variants.
type Config struct {
	Indicators   indicators.Settings
	StandardRSI  float64 // e.g., 30.0; <= 0 disables the standard entry rule
	SensitiveRSI float64 // e.g., 40.0; requires price above the fast EMA
	CrossLevel   float64 // e.g., 50.0; RSI midline for the crossover variant
}

// DefaultConfig returns the thresholds used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Indicators:   indicators.DefaultSettings(),
		StandardRSI:  30,
		SensitiveRSI: 40,
		CrossLevel:   50,
	}
}

// New returns the strategy registered under name.
func New(name string, cfg Config) (ports.Strategy, error) {
	if err := cfg.Indicators.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrConfigurationError, err)
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameTrend:
		if cfg.SensitiveRSI <= 0 || cfg.SensitiveRSI > 100 || cfg.StandardRSI > 100 {
			return nil, fmt.Errorf("%w: RSI entry thresholds must be within (0, 100] (standard=%.2f sensitive=%.2f)",
				ports.ErrConfigurationError, cfg.StandardRSI, cfg.SensitiveRSI)
		}
		return NewTrendConfirmation(cfg), nil
	case NameCrossover:
		if cfg.CrossLevel <= 0 || cfg.CrossLevel >= 100 {
			return nil, fmt.Errorf("%w: RSI cross level must be within (0, 100), got %.2f",
				ports.ErrConfigurationError, cfg.CrossLevel)
		}
		return NewCrossover(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ports.ErrConfigurationError, name)
	}
}
