// Package interrupt holds the IF/IE registers shared by the CPU and the
// devices that raise interrupts.
package interrupt

import "github.com/valerio/go-microboy/microboy/addr"

const sourceMask = 0x1F

// Controller stores the pending (IF) and enabled (IE) masks.
type Controller struct {
	flags  uint8
	enable uint8
}

// New returns a controller with no pending or enabled interrupts.
func New() *Controller {
	return &Controller{}
}

// Request latches the interrupt in IF.
func (c *Controller) Request(i addr.Interrupt) {
	c.flags |= uint8(i)
}

// Clear drops the interrupt from IF.
func (c *Controller) Clear(i addr.Interrupt) {
	c.flags &^= uint8(i)
}

// Pending reports whether any enabled interrupt is requested, regardless of IME.
func (c *Controller) Pending() bool {
	return c.flags&c.enable&sourceMask != 0
}

// Highest returns the highest priority interrupt that is both requested and
// enabled.
func (c *Controller) Highest() (addr.Interrupt, bool) {
	active := c.flags & c.enable & sourceMask
	for _, i := range addr.Interrupts {
		if active&uint8(i) != 0 {
			return i, true
		}
	}
	return 0, false
}

// Acknowledge clears and returns the highest priority active interrupt.
func (c *Controller) Acknowledge() (addr.Interrupt, bool) {
	i, ok := c.Highest()
	if ok {
		c.Clear(i)
	}
	return i, ok
}

// Flags reads IF. The upper three bits are unused and read as 1.
func (c *Controller) Flags() uint8 {
	return c.flags | 0xE0
}

// SetFlags writes IF.
func (c *Controller) SetFlags(v uint8) {
	c.flags = v & sourceMask
}

// Enabled reads IE.
func (c *Controller) Enabled() uint8 {
	return c.enable
}

// SetEnabled writes IE. All eight bits are stored.
func (c *Controller) SetEnabled(v uint8) {
	c.enable = v
}

// Reset clears both registers.
func (c *Controller) Reset() {
	c.flags = 0
	c.enable = 0
}
