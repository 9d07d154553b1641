package console

import "trailbot/internal/ports"

// Tee forwards every line to all sinks in order.
type Tee []ports.LogSink

func (t Tee) AppendLine(text string) {
	for _, s := range t {
		s.AppendLine(text)
	}
}

func (t Tee) UpdateLastLine(text string) {
	for _, s := range t {
		s.UpdateLastLine(text)
	}
}
