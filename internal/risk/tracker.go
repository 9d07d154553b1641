package risk

import (
	"fmt"
	"sync"
	"time"

	"trailbot/internal/domain"
	"trailbot/internal/ports"
)

// TrackerConfig holds the exit thresholds, in percent.
type TrackerConfig struct {
	StopLossPct   float64 // Drawdown from peak that closes the position (e.g., 1.5)
	TakeProfitPct float64 // Profit from entry that activates the trailing stop (e.g., 3.0)
}

// Validate checks the thresholds are usable.
func (c TrackerConfig) Validate() error {
	if c.StopLossPct <= 0 || c.StopLossPct >= 100 {
		return fmt.Errorf("stop loss percent must be within (0, 100), got %.4f", c.StopLossPct)
	}
	if c.TakeProfitPct <= 0 {
		return fmt.Errorf("take profit percent must be positive, got %.4f", c.TakeProfitPct)
	}
	return nil
}

// Evaluation is the outcome of feeding one price to an open position.
type Evaluation struct {
	Price             float64
	EntryPrice        float64
	PeakPrice         float64
	ProfitPct         float64 // Relative to entry
	DrawdownPct       float64 // Relative to peak
	TrailingActivated bool
	Activated         bool // Latch flipped on this update
	PeakChanged       bool
	ShouldExit        bool
	Reason            domain.CloseReason
}

// Tracker owns the single open position and decides when it must be exited.
// The stop is always measured as drawdown from the peak price: before the
// trailing latch it acts as a stop loss, after it as a trailing stop.
type Tracker struct {
	cfg TrackerConfig

	mu  sync.RWMutex
	pos *domain.Position
}

// NewTracker creates a flat tracker.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrConfigurationError, err)
	}
	return &Tracker{cfg: cfg}, nil
}

// Config returns the thresholds the tracker was built with.
func (t *Tracker) Config() TrackerConfig {
	return t.cfg
}

// IsOpen reports whether a position is being tracked.
func (t *Tracker) IsOpen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pos.IsOpen()
}

// Position returns a copy of the open position, or nil when flat.
func (t *Tracker) Position() *domain.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.pos == nil {
		return nil
	}
	cp := *t.pos
	return &cp
}

// Open starts tracking a new position entered at price.
func (t *Tracker) Open(symbol string, price, quantity float64, at time.Time) (*domain.Position, error) {
	if price <= 0 || quantity <= 0 {
		return nil, fmt.Errorf("%w: entry price and quantity must be positive (price=%f qty=%f)",
			ports.ErrInvalidRequest, price, quantity)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pos.IsOpen() {
		return nil, fmt.Errorf("%w: %s entered at %f", ports.ErrPositionOpen, t.pos.Symbol, t.pos.EntryPrice)
	}

	t.pos = &domain.Position{
		Symbol:     symbol,
		EntryPrice: price,
		PeakPrice:  price,
		Quantity:   quantity,
		EntryTime:  at,
		Status:     domain.StatusOpen,
	}
	cp := *t.pos
	return &cp, nil
}

// Restore resumes tracking a position recovered from storage.
func (t *Tracker) Restore(pos *domain.Position) error {
	if !pos.IsOpen() {
		return fmt.Errorf("%w: cannot restore a position that is not open", ports.ErrInvalidRequest)
	}
	if pos.EntryPrice <= 0 || pos.Quantity <= 0 {
		return fmt.Errorf("%w: restored position has entry price %f and quantity %f",
			ports.ErrInvalidRequest, pos.EntryPrice, pos.Quantity)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pos.IsOpen() {
		return fmt.Errorf("%w: %s entered at %f", ports.ErrPositionOpen, t.pos.Symbol, t.pos.EntryPrice)
	}

	cp := *pos
	if cp.PeakPrice < cp.EntryPrice {
		cp.PeakPrice = cp.EntryPrice
	}
	t.pos = &cp
	return nil
}

// Update feeds the current price to the open position: it raises the peak,
// latches the trailing stop once take profit is reached, and reports whether
// the drawdown from peak has hit the stop.
func (t *Tracker) Update(price float64) (Evaluation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pos.IsOpen() {
		return Evaluation{}, ports.ErrNoOpenPosition
	}
	if price <= 0 {
		return Evaluation{}, fmt.Errorf("%w: price must be positive, got %f", ports.ErrInvalidRequest, price)
	}

	ev := Evaluation{Price: price, EntryPrice: t.pos.EntryPrice}

	if price > t.pos.PeakPrice {
		t.pos.PeakPrice = price
		ev.PeakChanged = true
	}

	cur := decFromFloat(price)
	profit := pctChange(decFromFloat(t.pos.EntryPrice), cur)
	drawdown := pctDrop(decFromFloat(t.pos.PeakPrice), cur)

	if !t.pos.TrailingActivated && profit.GreaterThanOrEqual(decFromFloat(t.cfg.TakeProfitPct)) {
		t.pos.TrailingActivated = true
		ev.Activated = true
	}

	ev.PeakPrice = t.pos.PeakPrice
	ev.ProfitPct = decToFloat(profit)
	ev.DrawdownPct = decToFloat(drawdown)
	ev.TrailingActivated = t.pos.TrailingActivated

	if drawdown.GreaterThanOrEqual(decFromFloat(t.cfg.StopLossPct)) {
		ev.ShouldExit = true
		ev.Reason = domain.CloseReasonStopLoss
		if t.pos.TrailingActivated {
			ev.Reason = domain.CloseReasonTrailingStop
		}
	}
	return ev, nil
}

// Close ends the open position and returns it with its exit details filled in.
func (t *Tracker) Close(price float64, reason domain.CloseReason, at time.Time) (*domain.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.pos.IsOpen() {
		return nil, ports.ErrNoOpenPosition
	}

	closed := *t.pos
	closed.Status = domain.StatusClosed
	closed.ExitPrice = price
	closed.ExitTime = at
	closed.CloseReason = reason
	t.pos = nil
	return &closed, nil
}
