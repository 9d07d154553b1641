package indicators

import (
	"fmt"
	"time"

	"trailbot/internal/domain"
)

// Settings holds the periods used to build snapshots.
type Settings struct {
	FastEMASpan  int // e.g., 9 or 50
	SlowEMASpan  int // e.g., 200
	RSIPeriod    int // e.g., 14
	VolumeWindow int // e.g., 20
}

// DefaultSettings returns the periods the bot trades with out of the box.
func DefaultSettings() Settings {
	return Settings{
		FastEMASpan:  9,
		SlowEMASpan:  200,
		RSIPeriod:    14,
		VolumeWindow: 20,
	}
}

// Validate checks that every period is positive.
func (s Settings) Validate() error {
	if s.FastEMASpan <= 0 || s.SlowEMASpan <= 0 || s.RSIPeriod <= 0 || s.VolumeWindow <= 0 {
		return fmt.Errorf("indicator periods must be positive (fast=%d slow=%d rsi=%d volume=%d)",
			s.FastEMASpan, s.SlowEMASpan, s.RSIPeriod, s.VolumeWindow)
	}
	return nil
}

// WarmUp returns the number of candles needed before the values consulted for
// signals (RSI and the fast EMA) are defined.
func (s Settings) WarmUp() int {
	return max(s.FastEMASpan, s.RSIPeriod)
}

// Snapshot holds the indicator values aligned with one candle.
type Snapshot struct {
	OpenTime  time.Time
	Close     float64
	EMAFast   float64
	EMASlow   float64
	RSI       float64
	VolumeAvg float64
}

// Ready reports whether the snapshot carries every value a strategy may consult.
// EMASlow and VolumeAvg are informational and may still be warming up.
func (s *Snapshot) Ready() bool {
	return s != nil && IsDefined(s.RSI) && IsDefined(s.EMAFast)
}

// Compute derives one snapshot per kline. The result always has len(klines) entries.
func Compute(klines []*domain.Kline, s Settings) []Snapshot {
	closes := domain.Closes(klines)
	emaFast := EMA(closes, s.FastEMASpan)
	emaSlow := EMA(closes, s.SlowEMASpan)
	rsi := WilderRSI(closes, s.RSIPeriod)
	volAvg := RollingMean(domain.Volumes(klines), s.VolumeWindow)

	snaps := make([]Snapshot, len(klines))
	for i, k := range klines {
		snaps[i] = Snapshot{
			OpenTime:  k.OpenTime,
			Close:     k.Close,
			EMAFast:   emaFast[i],
			EMASlow:   emaSlow[i],
			RSI:       rsi[i],
			VolumeAvg: volAvg[i],
		}
	}
	return snaps
}

// Latest returns the last snapshot and the one before it. Either may be nil.
func Latest(snaps []Snapshot) (current, previous *Snapshot) {
	switch n := len(snaps); {
	case n == 0:
		return nil, nil
	case n == 1:
		return &snaps[0], nil
	default:
		return &snaps[n-1], &snaps[n-2]
	}
}
