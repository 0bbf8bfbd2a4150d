package memory

import (
	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/bit"
	"github.com/valerio/go-microboy/microboy/interrupt"
)

// tacLookup maps the TAC clock select (bits 1-0) to the bit of the internal
// counter whose falling edge increments TIMA.
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint8{9, 3, 5, 7}

// sequencerBit is the counter bit whose falling edge clocks the APU frame
// sequencer (512 Hz).
const sequencerBit = 12

// overflowDelay is the number of T-cycles TIMA reads 0 before TMA is loaded.
const overflowDelay = 4

// Timer implements DIV/TIMA/TMA/TAC on top of a 16 bit counter that is
// incremented once per T-cycle. DIV is the upper byte of the counter.
type Timer struct {
	counter   uint16
	lastInput bool
	overflow  int

	tima uint8
	tma  uint8
	tac  uint8

	irq       *interrupt.Controller
	sequencer func()
}

// NewTimer creates a timer that raises its interrupt on irq. The sequencer
// callback, if not nil, is called on every falling edge of counter bit 12.
func NewTimer(irq *interrupt.Controller, sequencer func()) *Timer {
	return &Timer{irq: irq, sequencer: sequencer}
}

// SetSeed sets the internal counter, as left by the boot ROM.
func (t *Timer) SetSeed(seed uint16) {
	t.counter = seed
	t.lastInput = t.input()
	t.overflow = 0
}

// Counter returns the full internal counter.
func (t *Timer) Counter() uint16 {
	return t.counter
}

// Tick advances the timer by one T-cycle.
func (t *Timer) Tick() {
	if t.overflow > 0 {
		t.overflow--
		if t.overflow == 0 {
			t.tima = t.tma
			t.irq.Request(addr.TimerInterrupt)
		}
	}

	old := t.counter
	t.counter++
	t.edges(old)
}

// edges checks both falling edges after the counter moved away from old.
func (t *Timer) edges(old uint16) {
	if bit.IsSet16(sequencerBit, old) && !bit.IsSet16(sequencerBit, t.counter) && t.sequencer != nil {
		t.sequencer()
	}
	t.updateInput()
}

func (t *Timer) input() bool {
	return bit.IsSet(2, t.tac) && bit.IsSet16(tacLookup[t.tac&0x03], t.counter)
}

func (t *Timer) updateInput() {
	current := t.input()
	if t.lastInput && !current {
		t.increment()
	}
	t.lastInput = current
}

func (t *Timer) increment() {
	if t.tima == 0xFF {
		t.overflow = overflowDelay
	}
	t.tima++
}

func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case addr.DIV:
		return bit.High(t.counter)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case addr.DIV:
		old := t.counter
		t.counter = 0
		t.edges(old)
	case addr.TIMA:
		// a write during the overflow window cancels the reload
		t.tima = value
		t.overflow = 0
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value & 0x07
		t.updateInput()
	}
}
