package ports

import (
	"context"

	"trailbot/internal/domain"
)

// PositionStore keeps the currently open position so a restarted bot keeps managing it.
// Closed positions are removed; no trade history is kept.
type PositionStore interface {
	// SaveOpen inserts or updates the open position for its symbol and returns its ID.
	SaveOpen(ctx context.Context, pos *domain.Position) (int64, error)
	// FindOpenBySymbol retrieves the open position for a symbol.
	// Returns nil, nil if no open position is stored.
	FindOpenBySymbol(ctx context.Context, symbol string) (*domain.Position, error)
	// DeleteBySymbol removes the stored position for a symbol.
	DeleteBySymbol(ctx context.Context, symbol string) error
}
