package binanceclient

import (
	"fmt"
	"strings"

	"trailbot/internal/domain"
	"trailbot/internal/ports"

	"github.com/shopspring/decimal"
)

// lotSize is the LOT_SIZE filter of a spot symbol.
type lotSize struct {
	Step      decimal.Decimal
	Min       decimal.Decimal
	Max       decimal.Decimal // zero means unbounded
	Precision int32           // decimal places implied by Step
}

func parseLotSize(step, minQty, maxQty string) (lotSize, error) {
	stepDec, err := decimal.NewFromString(step)
	if err != nil {
		return lotSize{}, fmt.Errorf("%w: invalid step size %q: %w", ports.ErrInvalidRequest, step, err)
	}
	if !stepDec.IsPositive() {
		return lotSize{}, fmt.Errorf("%w: step size must be positive, got %q", ports.ErrInvalidRequest, step)
	}
	minDec, err := decimal.NewFromString(minQty)
	if err != nil {
		return lotSize{}, fmt.Errorf("%w: invalid min quantity %q: %w", ports.ErrInvalidRequest, minQty, err)
	}
	maxDec := decimal.Zero
	if maxQty != "" {
		if maxDec, err = decimal.NewFromString(maxQty); err != nil {
			return lotSize{}, fmt.Errorf("%w: invalid max quantity %q: %w", ports.ErrInvalidRequest, maxQty, err)
		}
	}
	return lotSize{
		Step:      stepDec,
		Min:       minDec,
		Max:       maxDec,
		Precision: stepPrecision(step),
	}, nil
}

// stepPrecision counts the significant decimal places of a step such as "0.00100000".
func stepPrecision(step string) int32 {
	idx := strings.IndexByte(step, '.')
	if idx < 0 {
		return 0
	}
	frac := strings.TrimRight(step[idx+1:], "0")
	return int32(len(frac))
}

// floor rounds qty down to a whole number of steps.
func (l lotSize) floor(qty decimal.Decimal) decimal.Decimal {
	return qty.Div(l.Step).Floor().Mul(l.Step)
}

// format renders qty with exactly the step's precision.
func (l lotSize) format(qty decimal.Decimal) string {
	return qty.StringFixed(l.Precision)
}

// orderQuantity turns an order request into a lot-aligned base quantity.
// Sells use req.Quantity when positive and are capped at the available base
// balance when one is given.
func orderQuantity(req ports.OrderRequest, price decimal.Decimal, lot lotSize, available *decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price %s", ports.ErrInvalidRequest, price)
	}

	var qty decimal.Decimal
	switch req.Side {
	case domain.Buy:
		if req.QuoteAmount <= 0 {
			return decimal.Zero, fmt.Errorf("%w: buy requires a positive quote amount", ports.ErrInvalidRequest)
		}
		qty = decimal.NewFromFloat(req.QuoteAmount).Div(price)
	case domain.Sell:
		switch {
		case req.Quantity > 0:
			qty = decimal.NewFromFloat(req.Quantity)
		case req.QuoteAmount > 0:
			qty = decimal.NewFromFloat(req.QuoteAmount).Div(price)
		default:
			return decimal.Zero, fmt.Errorf("%w: sell requires a quantity or quote amount", ports.ErrInvalidRequest)
		}
		if available != nil && qty.GreaterThan(*available) {
			qty = *available
		}
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown order side %q", ports.ErrInvalidRequest, req.Side)
	}

	qty = lot.floor(qty)
	if lot.Max.IsPositive() && qty.GreaterThan(lot.Max) {
		qty = lot.floor(lot.Max)
	}
	if !qty.IsPositive() || qty.LessThan(lot.Min) {
		return decimal.Zero, fmt.Errorf("%w: quantity %s below minimum %s", ports.ErrBelowLotSize, qty.String(), lot.Min.String())
	}
	return qty, nil
}
