package cpu

import "github.com/valerio/go-microboy/microboy/bit"

type aluOp uint8

const (
	aluADD aluOp = iota
	aluADC
	aluSUB
	aluSBC
	aluAND
	aluXOR
	aluOR
	aluCP
)

var aluNames = [8]string{"ADD A,", "ADC A,", "SUB", "SBC A,", "AND", "XOR", "OR", "CP"}

// rotOp is the y field of the first CB quadrant.
type rotOp uint8

const (
	rotRLC rotOp = iota
	rotRRC
	rotRL
	rotRR
	rotSLA
	rotSRA
	rotSWAP
	rotSRL
)

var rotNames = [8]string{"RLC", "RRC", "RL", "RR", "SLA", "SRA", "SWAP", "SRL"}

func (c *CPU) alu(op aluOp, value uint8) {
	switch op {
	case aluADD:
		c.a = c.add(value, 0)
	case aluADC:
		c.a = c.add(value, c.flagToBit(carryFlag))
	case aluSUB:
		c.a = c.sub(value, 0)
	case aluSBC:
		c.a = c.sub(value, c.flagToBit(carryFlag))
	case aluAND:
		c.a &= value
		c.setFlags(c.a == 0, false, true, false)
	case aluXOR:
		c.a ^= value
		c.setFlags(c.a == 0, false, false, false)
	case aluOR:
		c.a |= value
		c.setFlags(c.a == 0, false, false, false)
	case aluCP:
		c.sub(value, 0)
	}
}

func (c *CPU) add(value, carry uint8) uint8 {
	full := uint16(c.a) + uint16(value) + uint16(carry)
	result := uint8(full)
	half := (c.a&0x0F)+(value&0x0F)+carry > 0x0F
	c.setFlags(result == 0, false, half, full > 0xFF)
	return result
}

func (c *CPU) sub(value, carry uint8) uint8 {
	full := int(c.a) - int(value) - int(carry)
	result := uint8(full)
	half := int(c.a&0x0F)-int(value&0x0F)-int(carry) < 0
	c.setFlags(result == 0, true, half, full < 0)
	return result
}

func (c *CPU) inc8(value uint8) uint8 {
	result := value + 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0x0F)
	return result
}

func (c *CPU) dec8(value uint8) uint8 {
	result := value - 1
	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, value&0x0F == 0)
	return result
}

// addHL adds value to HL. Z is left alone.
func (c *CPU) addHL(value uint16) {
	hl := c.getHL()
	full := uint32(hl) + uint32(value)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, (hl&0x0FFF)+(value&0x0FFF) > 0x0FFF)
	c.setFlagToCondition(carryFlag, full > 0xFFFF)
	c.setHL(uint16(full))
}

// addSPe returns SP plus the signed offset. H and C come from the unsigned
// add of the low bytes, Z and N are cleared.
func (c *CPU) addSPe(offset uint8) uint16 {
	e := uint16(int16(int8(offset)))
	half := (c.sp&0x0F)+(e&0x0F) > 0x0F
	carry := (c.sp&0xFF)+(e&0xFF) > 0xFF
	c.setFlags(false, false, half, carry)
	return c.sp + e
}

func (c *CPU) daa() {
	a := c.a
	carry := c.isSetFlag(carryFlag)
	if !c.isSetFlag(subFlag) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if c.isSetFlag(halfCarryFlag) || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if c.isSetFlag(halfCarryFlag) {
			a -= 0x06
		}
	}
	c.a = a
	c.setFlagToCondition(zeroFlag, a == 0)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, carry)
}

// rotate applies a shift or rotation and sets Z from the result.
func (c *CPU) rotate(op rotOp, value uint8) uint8 {
	var result uint8
	var carry bool
	switch op {
	case rotRLC:
		result = value<<1 | value>>7
		carry = value&0x80 != 0
	case rotRRC:
		result = value>>1 | value<<7
		carry = value&0x01 != 0
	case rotRL:
		result = value<<1 | c.flagToBit(carryFlag)
		carry = value&0x80 != 0
	case rotRR:
		result = value>>1 | c.flagToBit(carryFlag)<<7
		carry = value&0x01 != 0
	case rotSLA:
		result = value << 1
		carry = value&0x80 != 0
	case rotSRA:
		result = value>>1 | value&0x80
		carry = value&0x01 != 0
	case rotSWAP:
		result = value<<4 | value>>4
	case rotSRL:
		result = value >> 1
		carry = value&0x01 != 0
	}
	c.setFlags(result == 0, false, false, carry)
	return result
}

// bitTest sets Z to the complement of the bit. C is left alone.
func (c *CPU) bitTest(index, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) cpl() {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

func (c *CPU) scf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlag(carryFlag)
}

func (c *CPU) ccf() {
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
}
