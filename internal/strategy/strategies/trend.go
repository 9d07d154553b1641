package strategies

import (
	"trailbot/internal/domain"
	"trailbot/internal/strategy/indicators"
)

// TrendConfirmation buys oversold dips. The standard rule fires on RSI alone;
// the sensitive rule accepts a looser RSI bound when price confirms the uptrend
// by trading above the fast EMA. It never emits SELL: exits belong to the
// position tracker.
type TrendConfirmation struct {
	cfg Config
}

// NewTrendConfirmation creates the trend-confirmation strategy.
func NewTrendConfirmation(cfg Config) *TrendConfirmation {
	return &TrendConfirmation{cfg: cfg}
}

// Name returns the name of the strategy.
func (s *TrendConfirmation) Name() string {
	return NameTrend
}

// RequiredDataPoints returns the number of candles needed for a ready snapshot.
func (s *TrendConfirmation) RequiredDataPoints() int {
	return s.cfg.Indicators.WarmUp()
}

// Evaluate returns BUY when either entry rule matches, NEUTRAL otherwise.
func (s *TrendConfirmation) Evaluate(current, _ *indicators.Snapshot, price float64) domain.Signal {
	if !current.Ready() {
		return domain.SignalNeutral
	}

	// Standard first, sensitive second.
	if s.cfg.StandardRSI > 0 && current.RSI <= s.cfg.StandardRSI {
		return domain.SignalBuy
	}
	if current.RSI <= s.cfg.SensitiveRSI && price > current.EMAFast {
		return domain.SignalBuy
	}
	return domain.SignalNeutral
}
