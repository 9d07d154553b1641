package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// PositionStatus represents the status of a trading position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// CloseReason indicates why a position was closed.
// The stop reasons share one numeric trigger; the name only reflects whether
// the trailing latch had fired.
type CloseReason string

const (
	CloseReasonStopLoss     CloseReason = "STOP LOSS"
	CloseReasonTrailingStop CloseReason = "TRAILING STOP"
	CloseReasonSignal       CloseReason = "SIGNAL EXIT" // Strategy emitted SELL while in position
	CloseReasonUnknown      CloseReason = "UNKNOWN"
)

// Mode selects where orders are executed.
type Mode string

const (
	ModeReal    Mode = "real"    // Binance production account
	ModeTestnet Mode = "testnet" // Binance spot sandbox
	ModePaper   Mode = "paper"   // Local simulated fills on live prices
)

// ParseMode converts a string into a Mode. The second return value is false for unknown modes.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeReal, ModeTestnet, ModePaper:
		return Mode(s), true
	case "sandbox":
		return ModeTestnet, true
	default:
		return "", false
	}
}
