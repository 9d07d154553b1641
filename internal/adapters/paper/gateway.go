package paper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"trailbot/internal/domain"
	"trailbot/internal/pkg/symbol"
	"trailbot/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway fills market orders locally at the live ticker price.
// Candles and prices come from the wrapped MarketData; balances never touch the exchange.
type Gateway struct {
	market ports.MarketData
	logger ports.Logger
	step   decimal.Decimal
	now    func() time.Time

	mu       sync.Mutex
	balances map[string]decimal.Decimal
	nextID   int64
}

var _ ports.Gateway = (*Gateway)(nil)

// Config holds the paper account setup.
type Config struct {
	Market       ports.MarketData
	Logger       ports.Logger
	QuoteAsset   string
	QuoteBalance float64
	LotStep      float64
}

// New creates a paper gateway funded with QuoteBalance of QuoteAsset.
func New(cfg Config) (*Gateway, error) {
	if cfg.Market == nil {
		return nil, fmt.Errorf("market data source is required for paper gateway")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for paper gateway")
	}
	if cfg.QuoteAsset == "" {
		return nil, fmt.Errorf("%w: paper quote asset is empty", ports.ErrConfigurationError)
	}
	if cfg.QuoteBalance < 0 {
		return nil, fmt.Errorf("%w: paper balance must be non-negative", ports.ErrConfigurationError)
	}
	if cfg.LotStep <= 0 {
		return nil, fmt.Errorf("%w: paper lot step must be positive", ports.ErrConfigurationError)
	}

	return &Gateway{
		market: cfg.Market,
		logger: cfg.Logger,
		step:   decimal.NewFromFloat(cfg.LotStep),
		now:    time.Now,
		balances: map[string]decimal.Decimal{
			strings.ToUpper(cfg.QuoteAsset): decimal.NewFromFloat(cfg.QuoteBalance),
		},
	}, nil
}

// FetchCandles delegates to the live market data source.
func (g *Gateway) FetchCandles(ctx context.Context, sym, timeframe string, limit int) ([]*domain.Kline, error) {
	return g.market.FetchCandles(ctx, sym, timeframe, limit)
}

// GetTickerPrice delegates to the live market data source.
func (g *Gateway) GetTickerPrice(ctx context.Context, sym string) (float64, error) {
	return g.market.GetTickerPrice(ctx, sym)
}

// FetchFreeBalance returns the simulated balance of an asset.
func (g *Gateway) FetchFreeBalance(ctx context.Context, asset string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[strings.ToUpper(asset)].InexactFloat64(), nil
}

// PlaceMarketOrder fills the whole request at the current ticker price.
func (g *Gateway) PlaceMarketOrder(ctx context.Context, req ports.OrderRequest) (*ports.OrderResponse, error) {
	op := "PlaceMarketOrder"
	pair := symbol.Parse(req.Symbol)
	if pair.Base == "" || pair.Quote == "" {
		return nil, fmt.Errorf("%s failed: %w: %w: unparseable symbol %q", op, ports.ErrExchange, ports.ErrInvalidRequest, req.Symbol)
	}

	tickerPrice, err := g.market.GetTickerPrice(ctx, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	price := decimal.NewFromFloat(tickerPrice)
	if !price.IsPositive() {
		return nil, fmt.Errorf("%s failed: %w: %w: non-positive price %v", op, ports.ErrExchange, ports.ErrInvalidRequest, tickerPrice)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	base, quote := pair.Base, pair.Quote
	var qty decimal.Decimal
	switch req.Side {
	case domain.Buy:
		if req.QuoteAmount <= 0 {
			return nil, fmt.Errorf("%s failed: %w: %w: buy requires a positive quote amount", op, ports.ErrExchange, ports.ErrInvalidRequest)
		}
		qty = g.floor(decimal.NewFromFloat(req.QuoteAmount).Div(price))
		cost := qty.Mul(price)
		if cost.GreaterThan(g.balances[quote]) {
			return nil, fmt.Errorf("%s failed: %w: %w: need %s %s, have %s", op, ports.ErrExchange, ports.ErrInsufficientFunds, cost.StringFixed(2), quote, g.balances[quote].StringFixed(2))
		}
	case domain.Sell:
		switch {
		case req.Quantity > 0:
			qty = decimal.NewFromFloat(req.Quantity)
		case req.QuoteAmount > 0:
			qty = decimal.NewFromFloat(req.QuoteAmount).Div(price)
		default:
			return nil, fmt.Errorf("%s failed: %w: %w: sell requires a quantity or quote amount", op, ports.ErrExchange, ports.ErrInvalidRequest)
		}
		if held := g.balances[base]; qty.GreaterThan(held) {
			qty = held
		}
		qty = g.floor(qty)
	default:
		return nil, fmt.Errorf("%s failed: %w: %w: unknown order side %q", op, ports.ErrExchange, ports.ErrInvalidRequest, req.Side)
	}
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%s failed: %w: %w: quantity rounds to zero at step %s", op, ports.ErrExchange, ports.ErrBelowLotSize, g.step.String())
	}

	notional := qty.Mul(price)
	if req.Side == domain.Buy {
		g.balances[quote] = g.balances[quote].Sub(notional)
		g.balances[base] = g.balances[base].Add(qty)
	} else {
		g.balances[base] = g.balances[base].Sub(qty)
		g.balances[quote] = g.balances[quote].Add(notional)
	}
	g.nextID++

	resp := &ports.OrderResponse{
		OrderID:       g.nextID,
		Symbol:        pair.Binance(),
		ClientOrderID: uuid.NewString(),
		AvgPrice:      tickerPrice,
		OrigQuantity:  qty.InexactFloat64(),
		ExecutedQty:   qty.InexactFloat64(),
		QuoteQty:      notional.InexactFloat64(),
		Status:        "FILLED",
		Side:          string(req.Side),
		Timestamp:     g.now(),
	}
	g.logger.Info(ctx, op+": Paper order filled", map[string]interface{}{
		"symbol":       resp.Symbol,
		"side":         resp.Side,
		"quantity":     qty.String(),
		"price":        tickerPrice,
		"quoteBalance": g.balances[quote].StringFixed(2),
		"baseBalance":  g.balances[base].String(),
	})
	return resp, nil
}

func (g *Gateway) floor(qty decimal.Decimal) decimal.Decimal {
	return qty.Div(g.step).Floor().Mul(g.step)
}
