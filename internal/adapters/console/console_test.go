package console

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbot/internal/ports"
)

var (
	_ ports.LogSink = (*Terminal)(nil)
	_ ports.LogSink = (*Buffer)(nil)
)

func TestTerminal(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)

	term.AppendLine("banner")
	term.UpdateLastLine("status one")
	term.UpdateLastLine("two")
	term.AppendLine("ENTERED")
	require.NoError(t, term.Close())

	assert.Equal(t, "banner\n\rstatus one\rtwo       \nENTERED\n", out.String())
}

func TestTerminal_CloseAfterStatus(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out)

	term.UpdateLastLine("waiting")
	require.NoError(t, term.Close())
	assert.Equal(t, "\rwaiting\n", out.String())
}

func TestBuffer_StatusReplacesOnlyStatus(t *testing.T) {
	buf := NewBuffer(0)

	buf.AppendLine("banner")
	buf.UpdateLastLine("tick 1")
	buf.UpdateLastLine("tick 2")
	buf.AppendLine("ENTERED")
	buf.UpdateLastLine("tick 3")

	assert.Equal(t, []string{"banner", "tick 2", "ENTERED", "tick 3"}, buf.Lines())
	assert.Equal(t, "banner\ntick 2\nENTERED\ntick 3", buf.Text())
}

func TestBuffer_MaxLines(t *testing.T) {
	buf := NewBuffer(3)
	for i := 0; i < 5; i++ {
		buf.AppendLine(fmt.Sprintf("line %d", i))
	}
	assert.Equal(t, []string{"line 2", "line 3", "line 4"}, buf.Lines())
}

func TestTee(t *testing.T) {
	var out bytes.Buffer
	buf := NewBuffer(10)
	sink := Tee{NewTerminal(&out), buf}

	sink.AppendLine("started")
	sink.UpdateLastLine("tick 1")
	sink.UpdateLastLine("tick 2")

	assert.Equal(t, []string{"started", "tick 2"}, buf.Lines())
	assert.Contains(t, out.String(), "started\n")
	assert.Contains(t, out.String(), "\rtick 2")
}
