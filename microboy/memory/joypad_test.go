package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-microboy/microboy/interrupt"
)

func TestJoypadRead(t *testing.T) {
	testCases := []struct {
		desc     string
		selects  uint8
		pressed  []Button
		expected uint8
	}{
		{desc: "nothing selected", selects: 0x30, pressed: []Button{ButtonA, ButtonUp}, expected: 0xFF},
		{desc: "dpad idle", selects: 0x20, expected: 0xEF},
		{desc: "dpad right", selects: 0x20, pressed: []Button{ButtonRight}, expected: 0xEE},
		{desc: "buttons ignore dpad", selects: 0x10, pressed: []Button{ButtonLeft}, expected: 0xDF},
		{desc: "start", selects: 0x10, pressed: []Button{ButtonStart}, expected: 0xD7},
		{desc: "both groups are ANDed", selects: 0x00, pressed: []Button{ButtonB, ButtonUp}, expected: 0xC9},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			j := NewJoypad(interrupt.New())
			j.Write(tc.selects | 0xCF)
			for _, b := range tc.pressed {
				j.Press(b)
			}
			assert.Equal(t, tc.expected, j.Read())
		})
	}
}

func TestJoypadInterruptOnPress(t *testing.T) {
	irq := interrupt.New()
	j := NewJoypad(irq)

	assert.True(t, j.Press(ButtonA))
	assert.Equal(t, uint8(0xF0), irq.Flags())
	assert.True(t, j.Pressed(ButtonA))

	irq.SetFlags(0)
	assert.False(t, j.Press(ButtonA), "already held")
	j.Release(ButtonA)
	assert.Equal(t, uint8(0xE0), irq.Flags(), "release never interrupts")
	assert.False(t, j.Pressed(ButtonA))
}

func TestButtonString(t *testing.T) {
	assert.Equal(t, "Select", ButtonSelect.String())
	assert.Equal(t, "Unknown", Button(42).String())
}
