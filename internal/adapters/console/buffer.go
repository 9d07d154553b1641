package console

import (
	"strings"
	"sync"
)

// DefaultMaxLines bounds the history kept by a Buffer.
const DefaultMaxLines = 1000

// Buffer keeps the operator log stream in memory for consumers that render
// it themselves. The last line is replaced by UpdateLastLine only when it is
// a status line; otherwise a new status line is appended.
type Buffer struct {
	mu         sync.RWMutex
	lines      []string
	statusLast bool
	maxLines   int
}

// NewBuffer creates a buffer holding at most maxLines lines (DefaultMaxLines if <= 0).
func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Buffer{maxLines: maxLines}
}

// AppendLine adds text as a new line.
func (b *Buffer) AppendLine(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.push(text)
	b.statusLast = false
}

// UpdateLastLine replaces the current status line with text.
func (b *Buffer) UpdateLastLine(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.statusLast && len(b.lines) > 0 {
		b.lines[len(b.lines)-1] = text
		return
	}
	b.push(text)
	b.statusLast = true
}

func (b *Buffer) push(text string) {
	b.lines = append(b.lines, text)
	if over := len(b.lines) - b.maxLines; over > 0 {
		b.lines = append(b.lines[:0:0], b.lines[over:]...)
	}
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Text returns the buffered lines joined by newlines.
func (b *Buffer) Text() string {
	return strings.Join(b.Lines(), "\n")
}
