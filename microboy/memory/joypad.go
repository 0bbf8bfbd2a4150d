package memory

import (
	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/bit"
	"github.com/valerio/go-microboy/microboy/interrupt"
)

// Button is one of the eight Game Boy inputs.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

var buttonNames = [...]string{"Right", "Left", "Up", "Down", "A", "B", "Select", "Start"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "Unknown"
}

// line returns the P1 bit for the button, and whether it belongs to the
// action group (A, B, Select, Start) rather than the d-pad.
func (b Button) line() (uint8, bool) {
	if b >= ButtonA {
		return uint8(b - ButtonA), true
	}
	return uint8(b), false
}

// Joypad holds the button matrix behind P1. Button state is active-low: a
// cleared bit means pressed.
type Joypad struct {
	buttons uint8
	dpad    uint8
	selects uint8
	irq     *interrupt.Controller
}

// NewJoypad returns a joypad with every button released and no group selected.
func NewJoypad(irq *interrupt.Controller) *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		selects: 0x30,
		irq:     irq,
	}
}

// Read returns P1.
//
// Bits 4-5 select the groups (0 = selected): bit 4 maps the d-pad to bits
// 0-3, bit 5 maps A, B, Select, Start. With both selected the groups are
// ANDed, with none selected the low nibble reads 0x0F. Bits 6-7 read 1.
func (j *Joypad) Read() uint8 {
	result := uint8(0xC0) | j.selects
	low := uint8(0x0F)
	if !bit.IsSet(4, j.selects) {
		low &= j.dpad
	}
	if !bit.IsSet(5, j.selects) {
		low &= j.buttons
	}
	return result | low
}

// Write stores the selection bits. Everything else is read-only.
func (j *Joypad) Write(value uint8) {
	j.selects = value & 0x30
}

// Press marks the button as held. The Joypad interrupt is requested on a
// released to pressed transition, and the transition is reported.
func (j *Joypad) Press(b Button) bool {
	index, action := b.line()
	group := &j.dpad
	if action {
		group = &j.buttons
	}
	if !bit.IsSet(index, *group) {
		return false
	}
	*group = bit.Reset(index, *group)
	j.irq.Request(addr.JoypadInterrupt)
	return true
}

// Release marks the button as not held.
func (j *Joypad) Release(b Button) {
	index, action := b.line()
	if action {
		j.buttons = bit.Set(index, j.buttons)
		return
	}
	j.dpad = bit.Set(index, j.dpad)
}

// Pressed reports whether the button is currently held.
func (j *Joypad) Pressed(b Button) bool {
	index, action := b.line()
	if action {
		return !bit.IsSet(index, j.buttons)
	}
	return !bit.IsSet(index, j.dpad)
}
