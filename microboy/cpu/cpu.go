// Package cpu implements the LR35902 as a machine cycle stepped engine.
// Every Step performs one machine cycle: either an opcode fetch (plus any
// work that fits in it) or one queued micro-step of the current instruction.
package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/bit"
	"github.com/valerio/go-microboy/microboy/interrupt"
)

// Bus is the memory the CPU reads from and writes to.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Tracer is called at every instruction boundary before the fetch.
type Tracer func(regs Registers, bus Bus)

// CPU holds the register file and the instruction in flight.
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	ime       bool
	eiPending bool // IME is set at the next boundary that does not dispatch
	halted    bool
	stopped   bool
	haltBug   bool // the next fetch does not increment PC

	inst   instruction
	cycles uint64

	irq    *interrupt.Controller
	tracer Tracer
}

// New returns a CPU with every register cleared, ready to run a boot ROM
// from 0x0000.
func New(irq *interrupt.Controller) *CPU {
	return &CPU{irq: irq}
}

// SetRegisters loads r into the register file. Any instruction in flight is
// dropped.
func (c *CPU) SetRegisters(r Registers) {
	c.a, c.b, c.c, c.d, c.e, c.h, c.l = r.A, r.B, r.C, r.D, r.E, r.H, r.L
	c.f = r.F & 0xF0
	c.sp, c.pc = r.SP, r.PC
	c.ime = r.IME
	c.halted = r.Halted
	c.eiPending = false
	c.stopped = false
	c.haltBug = false
	c.inst = instruction{}
}

// SetTracer installs fn as the per instruction hook. Nil disables tracing.
func (c *CPU) SetTracer(fn Tracer) {
	c.tracer = fn
}

// Step runs one machine cycle. It returns a *Fault when the fetched opcode
// is undefined; stepping again continues after it.
func (c *CPU) Step(bus Bus) error {
	c.cycles++

	if !c.inst.queue.empty() {
		c.inst.queue.pop()(c, bus)
		return nil
	}
	return c.boundary(bus)
}

// boundary handles an instruction boundary: wake up, interrupt dispatch or
// the fetch and decode of the next opcode.
func (c *CPU) boundary(bus Bus) error {
	if c.stopped {
		if c.irq.Flags()&uint8(addr.JoypadInterrupt) == 0 {
			return nil
		}
		c.stopped = false
	}

	if c.halted {
		if !c.irq.Pending() {
			return nil
		}
		c.halted = false
	}

	if c.ime {
		if i, ok := c.irq.Acknowledge(); ok {
			c.dispatch(i)
			return nil
		}
	}

	if c.eiPending {
		c.eiPending = false
		c.ime = true
	}

	return c.fetch(bus)
}

// dispatch starts the interrupt service sequence. This cycle is the first of
// two internal cycles, then PC is pushed high byte first and the vector
// loaded.
func (c *CPU) dispatch(i addr.Interrupt) {
	c.ime = false
	vector := i.Vector()
	c.inst.reset(0, &interruptTemplate)
	c.inst.lo, c.inst.hi = bit.Low(vector), bit.High(vector)
	slog.Debug("Interrupt dispatched", "source", i.String(), "pc", fmt.Sprintf("0x%04X", c.pc))
}

func (c *CPU) fetch(bus Bus) error {
	if c.tracer != nil {
		c.tracer(c.Snapshot(), bus)
	}

	at := c.pc
	opcode := bus.Read(at)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
	}

	t := &baseTable[opcode]
	c.inst.reset(uint16(opcode), t)
	if t.undefined {
		return &Fault{Address: at, Opcode: opcode, Registers: c.Snapshot()}
	}
	if t.exec != nil {
		t.exec(c, bus)
	}
	return nil
}

// Snapshot copies the register file.
func (c *CPU) Snapshot() Registers {
	return Registers{
		A: c.a, F: c.f, B: c.b, C: c.c, D: c.d, E: c.e, H: c.h, L: c.l,
		SP: c.sp, PC: c.pc,
		IME:    c.ime,
		Halted: c.halted,
	}
}

// Debug getters.
func (c *CPU) GetA() uint8       { return c.a }
func (c *CPU) GetF() uint8       { return c.f }
func (c *CPU) GetB() uint8       { return c.b }
func (c *CPU) GetC() uint8       { return c.c }
func (c *CPU) GetD() uint8       { return c.d }
func (c *CPU) GetE() uint8       { return c.e }
func (c *CPU) GetH() uint8       { return c.h }
func (c *CPU) GetL() uint8       { return c.l }
func (c *CPU) GetSP() uint16     { return c.sp }
func (c *CPU) GetPC() uint16     { return c.pc }
func (c *CPU) GetCycles() uint64 { return c.cycles }

// Interrupt and power state getters.
func (c *CPU) GetIME() bool    { return c.ime }
func (c *CPU) IsHalted() bool  { return c.halted }
func (c *CPU) IsStopped() bool { return c.stopped }

// AtBoundary reports whether the next Step starts a new instruction.
func (c *CPU) AtBoundary() bool {
	return c.inst.queue.empty()
}

// CurrentOpcode returns the opcode of the instruction in flight, 0xCBxx for
// prefixed ones.
func (c *CPU) CurrentOpcode() uint16 {
	return c.inst.opcode
}
