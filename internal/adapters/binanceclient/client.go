package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"trailbot/internal/domain"
	"trailbot/internal/pkg/symbol"
	"trailbot/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	// maxKlinesPerRequest is the spot klines endpoint limit.
	maxKlinesPerRequest = 1000
)

// Client implements ports.Gateway against the Binance spot API.
type Client struct {
	spot   *binance.Client
	logger ports.Logger

	mu   sync.Mutex
	lots map[string]lotSize // keyed by exchange symbol
}

var _ ports.Gateway = (*Client)(nil)

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance spot client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		// Public endpoints still work; private ones fail with ErrAuthenticationFailed.
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{
		spot:   client,
		logger: cfg.Logger,
		lots:   make(map[string]lotSize),
	}, nil
}

// classifyAPIError maps a Binance error code to a specific sentinel.
// Unmapped codes return nil and are reported as plain ErrExchange.
func classifyAPIError(code int64) error {
	switch code {
	case -1003: // Too many requests
		return ports.ErrRateLimited
	case -1021: // Timestamp for this request is outside of the recvWindow
		return ports.ErrTimeout
	case -1022: // Signature for this request is not valid
		return ports.ErrAuthenticationFailed
	case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1112, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130, -1013:
		return ports.ErrInvalidRequest
	case -2014, -2015: // API-key format invalid; invalid key, IP, or permissions
		return ports.ErrInvalidAPIKeys
	case -2010: // New order rejected, mostly insufficient balance on spot
		return ports.ErrInsufficientFunds
	case -3005, -3041:
		return ports.ErrInsufficientFunds
	default:
		return nil
	}
}

// handleError translates Binance API and transport errors into ports errors.
// API rejections wrap ErrExchange, everything else wraps ErrNetwork, so the
// caller can always tell the two gateway fault classes apart.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var finalErr error
		if mapped := classifyAPIError(apiErr.Code); mapped != nil {
			finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrExchange, mapped, err)
		} else {
			finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrExchange, err)
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	var finalErr error
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrNetwork, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w: %w", operation, ports.ErrNetwork, ports.ErrContextCanceled, err)
	case errors.As(err, &netErr),
		strings.Contains(err.Error(), "use of closed network connection"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrNetwork, err)
	case errors.Is(err, ports.ErrBelowLotSize), errors.Is(err, ports.ErrInvalidRequest), errors.Is(err, ports.ErrInsufficientFunds):
		// Adapter-side validation: the exchange would reject the order anyway.
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrExchange, err)
	default:
		// Malformed payloads and other transport-level surprises.
		finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrNetwork, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// SetServerTime synchronizes the client's time offset with the server.
func (c *Client) SetServerTime(ctx context.Context) error {
	op := "SetServerTime"
	if _, err := c.spot.NewSetServerTimeService().Do(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.spot.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// FetchCandles returns the most recent limit candles, oldest first.
func (c *Client) FetchCandles(ctx context.Context, sym, timeframe string, limit int) ([]*domain.Kline, error) {
	op := "FetchCandles"
	exchangeSymbol, err := exchangeSymbol(sym)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	if limit <= 0 || limit > maxKlinesPerRequest {
		limit = maxKlinesPerRequest
	}

	raw, err := c.spot.NewKlinesService().
		Symbol(exchangeSymbol).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	klines, err := translateKlines(raw, symbol.Normalize(sym), timeframe, time.Now())
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	return klines, nil
}

// FetchCandlesRange fetches all candles between start and end, paging forward.
func (c *Client) FetchCandlesRange(ctx context.Context, sym, timeframe string, start, end time.Time) ([]*domain.Kline, error) {
	op := "FetchCandlesRange"
	exchangeSymbol, err := exchangeSymbol(sym)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	var all []*domain.Kline
	from := start
	for from.Before(end) {
		raw, err := c.spot.NewKlinesService().
			Symbol(exchangeSymbol).
			Interval(timeframe).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxKlinesPerRequest).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(raw) == 0 {
			break
		}

		page, err := translateKlines(raw, symbol.Normalize(sym), timeframe, time.Now())
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		all = append(all, page...)

		from = time.UnixMilli(raw[len(raw)-1].CloseTime + 1)
		if len(raw) < maxKlinesPerRequest {
			break
		}
	}

	c.logger.Debug(ctx, op+" completed", map[string]interface{}{"symbol": exchangeSymbol, "interval": timeframe, "count": len(all)})
	return all, nil
}

// GetTickerPrice retrieves the last traded price for a symbol.
func (c *Client) GetTickerPrice(ctx context.Context, sym string) (float64, error) {
	op := "GetTickerPrice"
	exchangeSymbol, err := exchangeSymbol(sym)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}

	prices, err := c.spot.NewListPricesService().Symbol(exchangeSymbol).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	for _, p := range prices {
		if p.Symbol != exchangeSymbol {
			continue
		}
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return 0, c.handleError(ctx, fmt.Errorf("could not parse price '%s': %w", p.Price, err), op)
		}
		return price, nil
	}
	return 0, c.handleError(ctx, fmt.Errorf("no ticker data returned for symbol %s", exchangeSymbol), op)
}

// FetchFreeBalance retrieves the free (unlocked) balance of an asset.
// An asset missing from the account is a zero balance.
func (c *Client) FetchFreeBalance(ctx context.Context, asset string) (float64, error) {
	op := "FetchFreeBalance"
	account, err := c.spot.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}

	asset = strings.ToUpper(asset)
	for _, bal := range account.Balances {
		if bal.Asset != asset {
			continue
		}
		free, err := strconv.ParseFloat(bal.Free, 64)
		if err != nil {
			return 0, c.handleError(ctx, fmt.Errorf("could not parse balance '%s' for asset %s: %w", bal.Free, asset, err), op)
		}
		return free, nil
	}
	return 0, nil
}

// PlaceMarketOrder sizes the request at the current ticker price, floors the
// quantity to the symbol's lot step and places a market order.
func (c *Client) PlaceMarketOrder(ctx context.Context, req ports.OrderRequest) (*ports.OrderResponse, error) {
	op := "PlaceMarketOrder"
	pair := symbol.Parse(req.Symbol)
	exchangeSymbol := pair.Binance()
	if exchangeSymbol == "" {
		return nil, c.handleError(ctx, fmt.Errorf("%w: unparseable symbol %q", ports.ErrInvalidRequest, req.Symbol), op)
	}

	lot, err := c.lotSize(ctx, exchangeSymbol)
	if err != nil {
		return nil, err
	}
	price, err := c.GetTickerPrice(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	var available *decimal.Decimal
	if req.Side == domain.Sell {
		free, err := c.FetchFreeBalance(ctx, pair.Base)
		if err != nil {
			return nil, err
		}
		d := decimal.NewFromFloat(free)
		available = &d
	}

	qty, err := orderQuantity(req, decimal.NewFromFloat(price), lot, available)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	clientOrderID := newClientOrderID()
	quantity := lot.format(qty)
	c.logger.Info(ctx, op+": Placing market order", map[string]interface{}{
		"symbol":        exchangeSymbol,
		"side":          req.Side,
		"quantity":      quantity,
		"quoteAmount":   req.QuoteAmount,
		"tickerPrice":   price,
		"clientOrderID": clientOrderID,
	})

	order, err := c.spot.NewCreateOrderService().
		Symbol(exchangeSymbol).
		Side(binance.SideType(req.Side)).
		Type(binance.OrderTypeMarket).
		Quantity(quantity).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp := translateOrderResponse(order, price)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol":   exchangeSymbol,
		"side":     req.Side,
		"quantity": quantity,
		"orderID":  resp.OrderID,
		"avgPrice": resp.AvgPrice,
		"status":   resp.Status,
	})
	return resp, nil
}

// lotSize returns the cached LOT_SIZE filter of a symbol, loading it on first use.
func (c *Client) lotSize(ctx context.Context, exchangeSymbol string) (lotSize, error) {
	op := "lotSize"
	c.mu.Lock()
	lot, ok := c.lots[exchangeSymbol]
	c.mu.Unlock()
	if ok {
		return lot, nil
	}

	info, err := c.spot.NewExchangeInfoService().Symbol(exchangeSymbol).Do(ctx)
	if err != nil {
		return lotSize{}, c.handleError(ctx, err, op)
	}
	for _, s := range info.Symbols {
		if s.Symbol != exchangeSymbol {
			continue
		}
		filter := s.LotSizeFilter()
		if filter == nil {
			return lotSize{}, c.handleError(ctx, fmt.Errorf("%w: symbol %s has no LOT_SIZE filter", ports.ErrInvalidRequest, exchangeSymbol), op)
		}
		lot, err = parseLotSize(filter.StepSize, filter.MinQuantity, filter.MaxQuantity)
		if err != nil {
			return lotSize{}, c.handleError(ctx, err, op)
		}
		c.mu.Lock()
		c.lots[exchangeSymbol] = lot
		c.mu.Unlock()
		c.logger.Debug(ctx, op+": Loaded lot size", map[string]interface{}{"symbol": exchangeSymbol, "step": lot.Step.String(), "min": lot.Min.String()})
		return lot, nil
	}
	return lotSize{}, c.handleError(ctx, fmt.Errorf("%w: symbol %s not listed", ports.ErrInvalidRequest, exchangeSymbol), op)
}

func exchangeSymbol(s string) (string, error) {
	out := symbol.ToBinance(s)
	if out == "" {
		return "", fmt.Errorf("%w: unparseable symbol %q", ports.ErrInvalidRequest, s)
	}
	return out, nil
}

func newClientOrderID() string {
	// Binance caps client order IDs at 36 characters.
	return "tb" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
