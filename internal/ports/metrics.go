package ports

// Metrics receives counters and gauges from the trading loop.
type Metrics interface {
	TickCompleted()
	Fault(kind string)
	Order(side string, ok bool)
	PositionOpen(open bool)
	Indicators(price, rsi float64)
}
