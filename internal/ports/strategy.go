package ports

import (
	"trailbot/internal/domain"
	"trailbot/internal/strategy/indicators"
)

// Strategy defines the interface for signal evaluators.
// Implementations must be pure: identical inputs always yield the same signal.
type Strategy interface {
	// Name returns the configured strategy name.
	Name() string

	// RequiredDataPoints returns the minimum number of klines needed before signals are meaningful.
	RequiredDataPoints() int

	// Evaluate maps the latest snapshot (and the one before it, which may be nil) to a signal.
	Evaluate(current, previous *indicators.Snapshot, price float64) domain.Signal
}
