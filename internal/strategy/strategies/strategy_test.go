package strategies

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbot/internal/domain"
	"trailbot/internal/ports"
	"trailbot/internal/strategy/indicators"
)

func snap(rsi, emaFast float64) *indicators.Snapshot {
	return &indicators.Snapshot{RSI: rsi, EMAFast: emaFast, EMASlow: math.NaN(), VolumeAvg: math.NaN()}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		strategy    string
		mutate      func(*Config)
		expectName  string
		expectError bool
	}{
		{name: "Trend", strategy: "trend", expectName: NameTrend},
		{name: "Crossover case insensitive", strategy: " Crossover ", expectName: NameCrossover},
		{name: "Unknown", strategy: "martingale", expectError: true},
		{
			name:        "Invalid periods",
			strategy:    "trend",
			mutate:      func(c *Config) { c.Indicators.RSIPeriod = 0 },
			expectError: true,
		},
		{
			name:        "Invalid sensitive threshold",
			strategy:    "trend",
			mutate:      func(c *Config) { c.SensitiveRSI = 0 },
			expectError: true,
		},
		{
			name:        "Invalid cross level",
			strategy:    "crossover",
			mutate:      func(c *Config) { c.CrossLevel = 100 },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			s, err := New(tt.strategy, cfg)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ports.ErrConfigurationError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectName, s.Name())
		})
	}
}

func TestTrendConfirmation_Evaluate(t *testing.T) {
	cfg := DefaultConfig()
	s := NewTrendConfirmation(cfg)

	tests := []struct {
		name     string
		current  *indicators.Snapshot
		price    float64
		expected domain.Signal
	}{
		{name: "Standard rule ignores price", current: snap(28, 105), price: 100, expected: domain.SignalBuy},
		{name: "Standard rule boundary", current: snap(30, 105), price: 100, expected: domain.SignalBuy},
		{name: "Sensitive rule with price above EMA", current: snap(38, 99), price: 100, expected: domain.SignalBuy},
		{name: "Sensitive rule rejected below EMA", current: snap(38, 101), price: 100, expected: domain.SignalNeutral},
		{name: "Sensitive rule rejected at EMA", current: snap(38, 100), price: 100, expected: domain.SignalNeutral},
		{name: "RSI too high", current: snap(55, 90), price: 100, expected: domain.SignalNeutral},
		{name: "Undefined RSI", current: snap(math.NaN(), 90), price: 100, expected: domain.SignalNeutral},
		{name: "Nil snapshot", current: nil, price: 100, expected: domain.SignalNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Evaluate(tt.current, nil, tt.price))
		})
	}
}

func TestTrendConfirmation_StandardDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StandardRSI = 0
	s := NewTrendConfirmation(cfg)

	// Without the standard rule a deeply oversold RSI still needs price confirmation.
	assert.Equal(t, domain.SignalNeutral, s.Evaluate(snap(10, 105), nil, 100))
	assert.Equal(t, domain.SignalBuy, s.Evaluate(snap(10, 95), nil, 100))
}

func TestTrendConfirmation_NeverSells(t *testing.T) {
	s := NewTrendConfirmation(DefaultConfig())
	for rsi := 0.0; rsi <= 100; rsi += 5 {
		for _, price := range []float64{50, 100, 150} {
			assert.NotEqual(t, domain.SignalSell, s.Evaluate(snap(rsi, 100), snap(rsi, 100), price))
		}
	}
}

func TestCrossover_Evaluate(t *testing.T) {
	s := NewCrossover(DefaultConfig())

	tests := []struct {
		name     string
		previous *indicators.Snapshot
		current  *indicators.Snapshot
		price    float64
		expected domain.Signal
	}{
		{name: "Upward cross above EMA", previous: snap(48, 99), current: snap(52, 99), price: 100, expected: domain.SignalBuy},
		{name: "Upward cross landing on level", previous: snap(49.9, 99), current: snap(50, 99), price: 100, expected: domain.SignalBuy},
		{name: "Upward cross below EMA sells", previous: snap(48, 101), current: snap(52, 101), price: 100, expected: domain.SignalSell},
		{name: "No cross above EMA", previous: snap(55, 99), current: snap(60, 99), price: 100, expected: domain.SignalNeutral},
		{name: "Previous at level is not a cross", previous: snap(50, 99), current: snap(55, 99), price: 100, expected: domain.SignalNeutral},
		{name: "Downward cross", previous: snap(53, 99), current: snap(47, 99), price: 100, expected: domain.SignalSell},
		{name: "Downward cross landing on level", previous: snap(53, 99), current: snap(50, 99), price: 100, expected: domain.SignalSell},
		{name: "Price below EMA", previous: snap(40, 101), current: snap(42, 101), price: 100, expected: domain.SignalSell},
		{name: "Missing previous", previous: nil, current: snap(52, 99), price: 100, expected: domain.SignalNeutral},
		{name: "Missing previous below EMA", previous: nil, current: snap(52, 101), price: 100, expected: domain.SignalSell},
		{name: "Previous not ready", previous: snap(math.NaN(), 99), current: snap(52, 99), price: 100, expected: domain.SignalNeutral},
		{name: "Current not ready", previous: snap(48, 99), current: snap(math.NaN(), 99), price: 100, expected: domain.SignalNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Evaluate(tt.current, tt.previous, tt.price))
		})
	}
}

func TestEvaluate_IsPure(t *testing.T) {
	strategies := []ports.Strategy{NewTrendConfirmation(DefaultConfig()), NewCrossover(DefaultConfig())}
	previous := snap(48, 99)
	current := snap(52, 99)

	for _, s := range strategies {
		first := s.Evaluate(current, previous, 100)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, s.Evaluate(current, previous, 100), s.Name())
		}
		assert.Equal(t, snap(48, 99).RSI, previous.RSI)
		assert.Equal(t, snap(52, 99).RSI, current.RSI)
	}
}

func TestRequiredDataPoints(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 14, NewTrendConfirmation(cfg).RequiredDataPoints())
	assert.Equal(t, 15, NewCrossover(cfg).RequiredDataPoints())
}
