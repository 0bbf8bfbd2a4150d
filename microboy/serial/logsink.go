package serial

import (
	"io"
	"log/slog"

	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/bit"
)

// transferCycles is the time to shift out one byte with the internal clock
// (8 bits at 8192 Hz), in T-cycles.
const transferCycles = 4096

// LogSink is a serial device with no peer attached. Outgoing bytes are
// buffered into lines and logged, which is how most test ROMs report results.
type LogSink struct {
	irqHandler     func()
	sb, sc         uint8
	transferActive bool
	countdown      int
	logger         *slog.Logger
	out            io.Writer

	immediate bool
	// returned on SB once a transfer completes, nothing drives the line
	defaultRX uint8

	line []byte
}

type LogSinkOption func(*LogSink)

// WithImmediate completes transfers as soon as they start.
func WithImmediate() LogSinkOption { return func(s *LogSink) { s.immediate = true } }

// WithWriter copies every outgoing byte to w.
func WithWriter(w io.Writer) LogSinkOption { return func(s *LogSink) { s.out = w } }

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) LogSinkOption { return func(s *LogSink) { s.logger = l } }

// NewLogSink creates a new logging serial device.
// irq is called when a transfer completes and should request the Serial
// interrupt.
func NewLogSink(irq func(), opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		irqHandler: irq,
		defaultRX:  0xFF,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

func (s *LogSink) Write(address uint16, value uint8) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value
		s.maybeStartTransfer()
	default:
		panic("serial.LogSink: invalid write address")
	}
}

func (s *LogSink) Read(address uint16) uint8 {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		// bits 1-6 are unused
		return s.sc | 0x7E
	default:
		panic("serial.LogSink: invalid read address")
	}
}

// Tick advances a pending transfer by the given number of T-cycles.
func (s *LogSink) Tick(cycles int) {
	if !s.transferActive {
		return
	}
	s.countdown -= cycles
	if s.countdown <= 0 {
		s.completeTransfer()
		s.countdown = 0
	}
}

func (s *LogSink) Reset() {
	s.sb = 0x00
	s.sc = 0x00
	s.transferActive = false
	s.countdown = 0
	s.line = s.line[:0]
}

// Flush logs any partial line.
func (s *LogSink) Flush() {
	if len(s.line) > 0 {
		s.logger.Info("serial", "line", string(s.line))
		s.line = s.line[:0]
	}
}

func (s *LogSink) maybeStartTransfer() {
	if s.transferActive {
		return
	}
	// start (bit 7) with the internal clock (bit 0); an external clock never
	// ticks since there is no peer
	if !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	b := s.sb
	if s.out != nil {
		_, _ = s.out.Write([]byte{b})
	}
	if b == 0 || b == '\n' || b == '\r' {
		s.Flush()
	} else {
		s.line = append(s.line, b)
	}

	if s.immediate {
		s.completeTransfer()
		return
	}

	s.transferActive = true
	s.countdown = transferCycles
}

func (s *LogSink) completeTransfer() {
	s.sb = s.defaultRX
	s.sc = bit.Reset(7, s.sc)
	s.transferActive = false
	if s.irqHandler != nil {
		s.irqHandler()
	}
}
