package binanceclient

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"trailbot/internal/domain"
	"trailbot/internal/ports"

	"github.com/adshao/go-binance/v2"
)

func translateKlines(raw []*binance.Kline, symbol, interval string, now time.Time) ([]*domain.Kline, error) {
	out := make([]*domain.Kline, 0, len(raw))
	for _, bk := range raw {
		k, err := translateKline(bk, symbol, interval, now)
		if err != nil {
			return nil, fmt.Errorf("failed to translate kline: %w", err)
		}
		out = append(out, k)
	}
	return out, nil
}

func translateKline(bk *binance.Kline, symbol, interval string, now time.Time) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	closeTime := time.UnixMilli(bk.CloseTime)
	return &domain.Kline{
		OpenTime:  time.UnixMilli(bk.OpenTime),
		CloseTime: closeTime,
		Symbol:    symbol, // not part of the REST payload
		Interval:  interval,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		IsFinal:   closeTime.Before(now),
	}, nil
}

// translateOrderResponse converts a spot order ack. The average price is derived
// from the quote quantity, falling back to the fills and then the ticker price.
func translateOrderResponse(order *binance.CreateOrderResponse, tickerPrice float64) *ports.OrderResponse {
	if order == nil {
		return nil
	}
	origQty, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	execQty, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	quoteQty, _ := strconv.ParseFloat(order.CummulativeQuoteQuantity, 64)

	avgPrice := 0.0
	if execQty > 0 && quoteQty > 0 {
		avgPrice = quoteQty / execQty
	} else if len(order.Fills) > 0 {
		var notional, filled float64
		for _, f := range order.Fills {
			p, _ := strconv.ParseFloat(f.Price, 64)
			q, _ := strconv.ParseFloat(f.Quantity, 64)
			notional += p * q
			filled += q
		}
		if filled > 0 {
			avgPrice = notional / filled
		}
	}
	if avgPrice <= 0 {
		avgPrice = tickerPrice
	}

	return &ports.OrderResponse{
		OrderID:       order.OrderID,
		Symbol:        order.Symbol,
		ClientOrderID: order.ClientOrderID,
		AvgPrice:      avgPrice,
		OrigQuantity:  origQty,
		ExecutedQty:   execQty,
		QuoteQty:      quoteQty,
		Status:        string(order.Status),
		Side:          string(order.Side),
		Timestamp:     time.UnixMilli(order.TransactTime),
	}
}
