package ports

// LogSink is the operator-facing log stream.
// The console decides how an in-place update is rendered.
type LogSink interface {
	// AppendLine adds a new line (state transitions, faults, banners).
	AppendLine(text string)
	// UpdateLastLine replaces the most recent status line (routine per-tick status).
	UpdateLastLine(text string)
}
