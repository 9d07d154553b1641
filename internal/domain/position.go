package domain

import "time"

// Position represents the single spot position held by the bot.
type Position struct {
	ID                int64          // Store identifier (0 until persisted)
	Symbol            string         // Trading symbol (e.g., "BTC/USDT")
	EntryPrice        float64        // Price at which the position was entered
	PeakPrice         float64        // Highest price observed since entry
	Quantity          float64        // Base asset quantity bought
	TrailingActivated bool           // One-way latch set once take profit was reached
	EntryTime         time.Time      // Timestamp when the position was entered
	Status            PositionStatus // Current status (open, closed)

	ExitPrice   float64     // Price at which the position was exited (0 if open)
	ExitTime    time.Time   // Zero value while open
	CloseReason CloseReason // Why the position was closed
}

// IsOpen checks if the position status is open.
func (p *Position) IsOpen() bool {
	return p != nil && p.Status == StatusOpen
}

// ProfitPct returns the percentage change of price relative to the entry price.
func (p *Position) ProfitPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// DrawdownPct returns the percentage decline of price from the peak price.
func (p *Position) DrawdownPct(price float64) float64 {
	if p.PeakPrice == 0 {
		return 0
	}
	return (p.PeakPrice - price) / p.PeakPrice * 100
}

// PNL returns the quote-asset profit of selling the whole quantity at exitPrice.
func (p *Position) PNL(exitPrice float64) float64 {
	return (exitPrice - p.EntryPrice) * p.Quantity
}
