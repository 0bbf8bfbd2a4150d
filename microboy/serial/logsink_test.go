package serial

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-microboy/microboy/addr"
)

func send(s *LogSink, b uint8) {
	s.Write(addr.SB, b)
	s.Write(addr.SC, 0x81)
}

func TestTransferTiming(t *testing.T) {
	irqs := 0
	s := NewLogSink(func() { irqs++ })

	send(s, 'A')
	assert.Equal(t, uint8(0xFF), s.Read(addr.SC), "in progress")

	s.Tick(transferCycles - 4)
	assert.Equal(t, 0, irqs)
	assert.Equal(t, uint8('A'), s.Read(addr.SB))

	s.Tick(4)
	assert.Equal(t, 1, irqs)
	assert.Equal(t, uint8(0xFF), s.Read(addr.SB))
	assert.Equal(t, uint8(0x7F), s.Read(addr.SC), "start bit cleared")
}

func TestTransferNeedsInternalClock(t *testing.T) {
	irqs := 0
	s := NewLogSink(func() { irqs++ }, WithImmediate())

	s.Write(addr.SB, 'x')
	s.Write(addr.SC, 0x80)
	s.Tick(transferCycles * 2)

	assert.Equal(t, 0, irqs)
	assert.Equal(t, uint8('x'), s.Read(addr.SB))
}

func TestLinesAreLogged(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := NewLogSink(nil, WithImmediate(), WithLogger(logger), WithWriter(&out))

	for _, b := range []byte("Passed\nrest") {
		send(s, b)
	}

	assert.Contains(t, logs.String(), "line=Passed")
	assert.NotContains(t, logs.String(), "rest")
	assert.Equal(t, "Passed\nrest", out.String())

	s.Flush()
	assert.Contains(t, logs.String(), "line=rest")
}
