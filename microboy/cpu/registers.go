package cpu

import (
	"fmt"

	"github.com/valerio/go-microboy/microboy/bit"
)

// Flag is one of the 4 flags held in the high nibble of F.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// Registers is a copy of the register file plus the interrupt and halt state.
type Registers struct {
	A, F, B, C, D, E, H, L uint8
	SP, PC                 uint16
	IME                    bool
	Halted                 bool
}

// PostBoot is the register state the DMG boot ROM leaves behind.
var PostBoot = Registers{
	A: 0x01, F: 0xB0,
	B: 0x00, C: 0x13,
	D: 0x00, E: 0xD8,
	H: 0x01, L: 0x4D,
	SP: 0xFFFE,
	PC: 0x0100,
}

func (r Registers) AF() uint16 { return bit.Combine(r.A, r.F) }
func (r Registers) BC() uint16 { return bit.Combine(r.B, r.C) }
func (r Registers) DE() uint16 { return bit.Combine(r.D, r.E) }
func (r Registers) HL() uint16 { return bit.Combine(r.H, r.L) }

// Flags renders F as ZNHC, with '-' for cleared flags.
func (r Registers) Flags() string {
	out := []byte("----")
	for i, f := range []Flag{zeroFlag, subFlag, halfCarryFlag, carryFlag} {
		if r.F&uint8(f) != 0 {
			out[i] = "ZNHC"[i]
		}
	}
	return string(out)
}

func (r Registers) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X %s ime=%t",
		r.AF(), r.BC(), r.DE(), r.HL(), r.SP, r.PC, r.Flags(), r.IME)
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c *CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit returns 1 if the flag is set, 0 otherwise.
func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
		return
	}
	c.resetFlag(flag)
}

// setFlags overwrites all four flags.
func (c *CPU) setFlags(z, n, h, cy bool) {
	c.f = 0
	c.setFlagToCondition(zeroFlag, z)
	c.setFlagToCondition(subFlag, n)
	c.setFlagToCondition(halfCarryFlag, h)
	c.setFlagToCondition(carryFlag, cy)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c *CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c *CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c *CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// the low nibble of F does not exist in hardware
	c.f = bit.Low(value) & 0xF0
}

func (c *CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// r8 returns the 8 bit register named by o. (HL) is not a register and is
// handled by dedicated micro-steps.
func (c *CPU) r8(o operand) *uint8 {
	switch o {
	case regA:
		return &c.a
	case regB:
		return &c.b
	case regC:
		return &c.c
	case regD:
		return &c.d
	case regE:
		return &c.e
	case regH:
		return &c.h
	case regL:
		return &c.l
	}
	panic(fmt.Sprintf("cpu: %s is not an 8 bit register", o))
}

func (c *CPU) r16(o operand) uint16 {
	switch o {
	case regBC:
		return c.getBC()
	case regDE:
		return c.getDE()
	case regHL:
		return c.getHL()
	case regSP:
		return c.sp
	case regAF:
		return c.getAF()
	}
	panic(fmt.Sprintf("cpu: %s is not a 16 bit register", o))
}

func (c *CPU) setR16(o operand, value uint16) {
	switch o {
	case regBC:
		c.setBC(value)
	case regDE:
		c.setDE(value)
	case regHL:
		c.setHL(value)
	case regSP:
		c.sp = value
	case regAF:
		c.setAF(value)
	default:
		panic(fmt.Sprintf("cpu: %s is not a 16 bit register", o))
	}
}
