package paper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbot/internal/domain"
	"trailbot/internal/ports"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockMarket struct {
	price   float64
	err     error
	candles []*domain.Kline
}

func (m *mockMarket) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]*domain.Kline, error) {
	return m.candles, m.err
}

func (m *mockMarket) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	return m.price, m.err
}

func newGateway(t *testing.T, market *mockMarket, balance float64) *Gateway {
	t.Helper()
	g, err := New(Config{
		Market:       market,
		Logger:       mockLogger{},
		QuoteAsset:   "USDT",
		QuoteBalance: balance,
		LotStep:      0.00001,
	})
	require.NoError(t, err)
	return g
}

func TestNew_Validation(t *testing.T) {
	market := &mockMarket{}
	_, err := New(Config{Logger: mockLogger{}, QuoteAsset: "USDT", LotStep: 1})
	assert.Error(t, err)
	_, err = New(Config{Market: market, QuoteAsset: "USDT", LotStep: 1})
	assert.Error(t, err)
	_, err = New(Config{Market: market, Logger: mockLogger{}, LotStep: 1})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
	_, err = New(Config{Market: market, Logger: mockLogger{}, QuoteAsset: "USDT"})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
	_, err = New(Config{Market: market, Logger: mockLogger{}, QuoteAsset: "USDT", LotStep: 1, QuoteBalance: -1})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestGateway_RoundTrip(t *testing.T) {
	ctx := context.Background()
	market := &mockMarket{price: 50000}
	g := newGateway(t, market, 1000)

	usdt, err := g.FetchFreeBalance(ctx, "usdt")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, usdt)

	buy, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "BTC/USDT", Side: domain.Buy, QuoteAmount: 11})
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", buy.Symbol)
	assert.Equal(t, "FILLED", buy.Status)
	assert.Equal(t, 50000.0, buy.AvgPrice)
	assert.InDelta(t, 0.00022, buy.ExecutedQty, 1e-12)
	assert.NotEmpty(t, buy.ClientOrderID)

	usdt, _ = g.FetchFreeBalance(ctx, "USDT")
	btc, _ := g.FetchFreeBalance(ctx, "BTC")
	assert.InDelta(t, 989.0, usdt, 1e-9)
	assert.InDelta(t, 0.00022, btc, 1e-12)

	market.price = 55000
	sell, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "BTC/USDT", Side: domain.Sell, Quantity: buy.ExecutedQty})
	require.NoError(t, err)
	assert.Greater(t, sell.OrderID, buy.OrderID)
	assert.InDelta(t, 12.1, sell.QuoteQty, 1e-9)

	usdt, _ = g.FetchFreeBalance(ctx, "USDT")
	btc, _ = g.FetchFreeBalance(ctx, "BTC")
	assert.InDelta(t, 1001.1, usdt, 1e-9)
	assert.Zero(t, btc)
}

func TestGateway_SellCappedAtHolding(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, &mockMarket{price: 100}, 1000)

	_, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "ETHUSDT", Side: domain.Buy, QuoteAmount: 50})
	require.NoError(t, err)

	sell, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "ETHUSDT", Side: domain.Sell, Quantity: 3})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, sell.ExecutedQty, 1e-12)
}

func TestGateway_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient funds", func(t *testing.T) {
		g := newGateway(t, &mockMarket{price: 100}, 10)
		_, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "BTC/USDT", Side: domain.Buy, QuoteAmount: 11})
		assert.ErrorIs(t, err, ports.ErrInsufficientFunds)
		assert.ErrorIs(t, err, ports.ErrExchange)
	})

	t.Run("nothing to sell", func(t *testing.T) {
		g := newGateway(t, &mockMarket{price: 100}, 10)
		_, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "BTC/USDT", Side: domain.Sell, Quantity: 1})
		assert.ErrorIs(t, err, ports.ErrBelowLotSize)
	})

	t.Run("ticker failure", func(t *testing.T) {
		netErr := errors.New("boom")
		g := newGateway(t, &mockMarket{err: netErr}, 10)
		_, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "BTC/USDT", Side: domain.Buy, QuoteAmount: 1})
		assert.ErrorIs(t, err, netErr)
	})

	t.Run("bad symbol", func(t *testing.T) {
		g := newGateway(t, &mockMarket{price: 100}, 10)
		_, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "???", Side: domain.Buy, QuoteAmount: 1})
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	})

	t.Run("unknown side", func(t *testing.T) {
		g := newGateway(t, &mockMarket{price: 100}, 10)
		_, err := g.PlaceMarketOrder(ctx, ports.OrderRequest{Symbol: "BTC/USDT", Side: "HOLD", QuoteAmount: 1})
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
	})
}

func TestGateway_DelegatesMarketData(t *testing.T) {
	candles := []*domain.Kline{{Close: 1}, {Close: 2}}
	g := newGateway(t, &mockMarket{price: 3, candles: candles}, 0)

	got, err := g.FetchCandles(context.Background(), "BTC/USDT", "1m", 2)
	require.NoError(t, err)
	assert.Equal(t, candles, got)

	price, err := g.GetTickerPrice(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 3.0, price)
}
