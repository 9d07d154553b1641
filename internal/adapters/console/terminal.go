package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal writes the operator log stream to a terminal. Status updates
// rewrite the current line with a carriage return; appended lines start
// on a fresh line.
type Terminal struct {
	mu         sync.Mutex
	out        io.Writer
	statusOpen bool // The cursor sits at the end of an in-place status line
	lastWidth  int
}

// NewTerminal creates a terminal sink writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// AppendLine writes text on its own line.
func (t *Terminal) AppendLine(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusOpen {
		fmt.Fprint(t.out, "\n")
		t.statusOpen = false
		t.lastWidth = 0
	}
	fmt.Fprintln(t.out, text)
}

// UpdateLastLine overwrites the current status line with text.
func (t *Terminal) UpdateLastLine(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pad := ""
	if n := t.lastWidth - len(text); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprint(t.out, "\r"+text+pad)
	t.statusOpen = true
	t.lastWidth = len(text)
}

// Close terminates a pending status line.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusOpen {
		t.statusOpen = false
		_, err := fmt.Fprint(t.out, "\n")
		return err
	}
	return nil
}
