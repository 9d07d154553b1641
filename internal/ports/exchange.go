package ports

import (
	"context"
	"time"

	"trailbot/internal/domain"
)

// OrderRequest describes a market order in the bot's own terms.
// Buys are sized by QuoteAmount (USD notional). Sells use Quantity when it is
// positive and fall back to QuoteAmount converted at the current price.
type OrderRequest struct {
	Symbol      string
	Side        domain.OrderSide
	QuoteAmount float64 // USD notional
	Quantity    float64 // Base asset quantity
}

// OrderResponse represents the essential details returned after placing an order.
type OrderResponse struct {
	OrderID       int64     // Exchange's order ID
	Symbol        string    // Symbol for the order
	ClientOrderID string    // User-defined order ID
	AvgPrice      float64   // Average filled price
	OrigQuantity  float64   // Original quantity requested
	ExecutedQty   float64   // Quantity filled
	QuoteQty      float64   // Quote asset spent or received
	Status        string    // Order status (e.g., NEW, FILLED)
	Side          string    // Order side (BUY, SELL)
	Timestamp     time.Time // Time the order response was generated
}

// MarketData is the read-only half of the gateway.
type MarketData interface {
	// FetchCandles returns the most recent limit candles, oldest first.
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]*domain.Kline, error)

	// GetTickerPrice retrieves the last traded price for a symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)
}

// Gateway is the Market Data & Execution Gateway used by the trading loop.
// Implementations wrap failures with ErrNetwork or ErrExchange (and more specific sentinels).
type Gateway interface {
	MarketData

	// FetchFreeBalance retrieves the free (unlocked) balance of an asset.
	FetchFreeBalance(ctx context.Context, asset string) (float64, error)

	// PlaceMarketOrder converts the request to a lot-size aligned quantity and places a market order.
	PlaceMarketOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error)
}
