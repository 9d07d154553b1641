package strategies

import (
	"trailbot/internal/domain"
	"trailbot/internal/strategy/indicators"
)

// Crossover trades RSI crossings of the midline, filtered by the fast EMA.
//
//	BUY:  previous RSI < level <= current RSI, and price > EMA
//	SELL: price < EMA, or previous RSI > level >= current RSI
type Crossover struct {
	cfg Config
}

// NewCrossover creates the RSI crossover strategy.
func NewCrossover(cfg Config) *Crossover {
	return &Crossover{cfg: cfg}
}

// Name returns the name of the strategy.
func (s *Crossover) Name() string {
	return NameCrossover
}

// RequiredDataPoints returns the number of candles needed for two consecutive
// ready snapshots.
func (s *Crossover) RequiredDataPoints() int {
	return s.cfg.Indicators.WarmUp() + 1
}

// Evaluate compares the current snapshot against the previous one.
func (s *Crossover) Evaluate(current, previous *indicators.Snapshot, price float64) domain.Signal {
	if !current.Ready() {
		return domain.SignalNeutral
	}

	level := s.cfg.CrossLevel
	crossable := previous.Ready()

	if crossable && previous.RSI < level && current.RSI >= level && price > current.EMAFast {
		return domain.SignalBuy
	}
	if price < current.EMAFast {
		return domain.SignalSell
	}
	if crossable && previous.RSI > level && current.RSI <= level {
		return domain.SignalSell
	}
	return domain.SignalNeutral
}
