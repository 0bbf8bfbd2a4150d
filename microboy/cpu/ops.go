package cpu

import "github.com/valerio/go-microboy/microboy/bit"

// readPC reads the byte at PC and moves past it.
func (c *CPU) readPC(bus Bus) uint8 {
	v := bus.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) condition(o operand) bool {
	switch o {
	case condNZ:
		return !c.isSetFlag(zeroFlag)
	case condZ:
		return c.isSetFlag(zeroFlag)
	case condNC:
		return !c.isSetFlag(carryFlag)
	case condC:
		return c.isSetFlag(carryFlag)
	}
	return true
}

// skipUnlessTaken drops the rest of the instruction when its condition fails.
func (c *CPU) skipUnlessTaken() {
	if !c.condition(c.inst.tmpl.cond) {
		c.inst.queue.clear()
	}
}

// indirect resolves (BC), (DE), (HL+) and (HL-), applying the HL post
// increment or decrement.
func (c *CPU) indirect(o operand) uint16 {
	switch o {
	case indBC:
		return c.getBC()
	case indDE:
		return c.getDE()
	case indHLInc:
		hl := c.getHL()
		c.setHL(hl + 1)
		return hl
	case indHLDec:
		hl := c.getHL()
		c.setHL(hl - 1)
		return hl
	}
	return c.getHL()
}

// immediates and temporaries

func internal(*CPU, Bus) {}

func readLo(c *CPU, bus Bus) { c.inst.lo = c.readPC(bus) }

func readHi(c *CPU, bus Bus) { c.inst.hi = c.readPC(bus) }

func readLoCheck(c *CPU, bus Bus) {
	c.inst.lo = c.readPC(bus)
	c.skipUnlessTaken()
}

func readHiCheck(c *CPU, bus Bus) {
	c.inst.hi = c.readPC(bus)
	c.skipUnlessTaken()
}

func checkCond(c *CPU, _ Bus) { c.skipUnlessTaken() }

// loads

func ldRR(c *CPU, _ Bus) { *c.r8(c.inst.tmpl.dst) = *c.r8(c.inst.tmpl.src) }

func ldRFromHL(c *CPU, bus Bus) { *c.r8(c.inst.tmpl.dst) = bus.Read(c.getHL()) }

func ldHLFromR(c *CPU, bus Bus) { bus.Write(c.getHL(), *c.r8(c.inst.tmpl.src)) }

func ldRImm(c *CPU, bus Bus) { *c.r8(c.inst.tmpl.dst) = c.readPC(bus) }

func writeHLLo(c *CPU, bus Bus) { bus.Write(c.getHL(), c.inst.lo) }

func ldRRImm(c *CPU, bus Bus) {
	c.inst.hi = c.readPC(bus)
	c.setR16(c.inst.tmpl.dst, c.inst.word())
}

func storeA(c *CPU, bus Bus) { bus.Write(c.indirect(c.inst.tmpl.dst), c.a) }

func loadA(c *CPU, bus Bus) { c.a = bus.Read(c.indirect(c.inst.tmpl.src)) }

func writeSPLo(c *CPU, bus Bus) { bus.Write(c.inst.word(), bit.Low(c.sp)) }

func writeSPHi(c *CPU, bus Bus) { bus.Write(c.inst.word()+1, bit.High(c.sp)) }

func writeAAbs(c *CPU, bus Bus) { bus.Write(c.inst.word(), c.a) }

func readAAbs(c *CPU, bus Bus) { c.a = bus.Read(c.inst.word()) }

func writeAHigh(c *CPU, bus Bus) { bus.Write(0xFF00|uint16(c.inst.lo), c.a) }

func readAHigh(c *CPU, bus Bus) { c.a = bus.Read(0xFF00 | uint16(c.inst.lo)) }

func writeAHighC(c *CPU, bus Bus) { bus.Write(0xFF00|uint16(c.c), c.a) }

func readAHighC(c *CPU, bus Bus) { c.a = bus.Read(0xFF00 | uint16(c.c)) }

func ldSPHL(c *CPU, _ Bus) { c.sp = c.getHL() }

func ldHLSPe(c *CPU, _ Bus) { c.setHL(c.addSPe(c.inst.lo)) }

func addSPe(c *CPU, _ Bus) { c.sp = c.addSPe(c.inst.lo) }

// arithmetic

func incR(c *CPU, _ Bus) {
	r := c.r8(c.inst.tmpl.dst)
	*r = c.inc8(*r)
}

func decR(c *CPU, _ Bus) {
	r := c.r8(c.inst.tmpl.dst)
	*r = c.dec8(*r)
}

func readHL(c *CPU, bus Bus) { c.inst.lo = bus.Read(c.getHL()) }

func incWriteHL(c *CPU, bus Bus) { bus.Write(c.getHL(), c.inc8(c.inst.lo)) }

func decWriteHL(c *CPU, bus Bus) { bus.Write(c.getHL(), c.dec8(c.inst.lo)) }

func incRR(c *CPU, _ Bus) { c.setR16(c.inst.tmpl.dst, c.r16(c.inst.tmpl.dst)+1) }

func decRR(c *CPU, _ Bus) { c.setR16(c.inst.tmpl.dst, c.r16(c.inst.tmpl.dst)-1) }

func addHL(c *CPU, _ Bus) { c.addHL(c.r16(c.inst.tmpl.src)) }

func aluR(c *CPU, _ Bus) { c.alu(c.inst.tmpl.alu, *c.r8(c.inst.tmpl.src)) }

func aluHL(c *CPU, bus Bus) { c.alu(c.inst.tmpl.alu, bus.Read(c.getHL())) }

func aluImm(c *CPU, bus Bus) { c.alu(c.inst.tmpl.alu, c.readPC(bus)) }

// rotateA implements RLCA, RRCA, RLA and RRA, which always clear Z.
func rotateA(c *CPU, _ Bus) {
	c.a = c.rotate(c.inst.tmpl.rot, c.a)
	c.resetFlag(zeroFlag)
}

func daa(c *CPU, _ Bus) { c.daa() }

func cpl(c *CPU, _ Bus) { c.cpl() }

func scf(c *CPU, _ Bus) { c.scf() }

func ccf(c *CPU, _ Bus) { c.ccf() }

// control flow

func jumpTemp(c *CPU, _ Bus) { c.pc = c.inst.word() }

func jumpRel(c *CPU, _ Bus) { c.pc += uint16(int16(int8(c.inst.lo))) }

func jpHL(c *CPU, _ Bus) { c.pc = c.getHL() }

func decSP(c *CPU, _ Bus) { c.sp-- }

func pushPCHi(c *CPU, bus Bus) {
	bus.Write(c.sp, bit.High(c.pc))
	c.sp--
}

func pushPCLo(c *CPU, bus Bus) { bus.Write(c.sp, bit.Low(c.pc)) }

func pushPCLoJump(c *CPU, bus Bus) {
	pushPCLo(c, bus)
	c.pc = c.inst.word()
}

func pushPCLoRST(c *CPU, bus Bus) {
	pushPCLo(c, bus)
	c.pc = uint16(c.inst.tmpl.lit)
}

func pushHi(c *CPU, bus Bus) {
	bus.Write(c.sp, bit.High(c.r16(c.inst.tmpl.src)))
	c.sp--
}

func pushLo(c *CPU, bus Bus) { bus.Write(c.sp, bit.Low(c.r16(c.inst.tmpl.src))) }

func popLo(c *CPU, bus Bus) {
	c.inst.lo = bus.Read(c.sp)
	c.sp++
}

func popHi(c *CPU, bus Bus) {
	c.inst.hi = bus.Read(c.sp)
	c.sp++
}

// popStore finishes POP rr. POP AF goes through setAF, which masks F.
func popStore(c *CPU, bus Bus) {
	popHi(c, bus)
	c.setR16(c.inst.tmpl.dst, c.inst.word())
}

func retiJump(c *CPU, bus Bus) {
	jumpTemp(c, bus)
	c.ime = true
	c.eiPending = false
}

// interrupt and power control

func di(c *CPU, _ Bus) {
	c.ime = false
	c.eiPending = false
}

func ei(c *CPU, _ Bus) { c.eiPending = true }

// halt stops fetching until an interrupt is pending. With IME clear and an
// interrupt already pending the CPU does not halt, and the next opcode byte
// is read twice.
func halt(c *CPU, _ Bus) {
	if !c.ime && c.irq.Pending() {
		c.haltBug = true
		return
	}
	c.halted = true
}

// stop skips its padding byte and sleeps until a joypad line goes low.
func stop(c *CPU, _ Bus) {
	c.pc++
	c.stopped = true
}

// CB prefix

// fetchCB reads the second opcode byte and replaces the in-flight
// instruction with the prefixed one. Register forms complete in this cycle.
func fetchCB(c *CPU, bus Bus) {
	op := c.readPC(bus)
	t := &cbTable[op]
	c.inst.reset(0xCB00|uint16(op), t)
	if t.exec != nil {
		t.exec(c, bus)
	}
}

func (c *CPU) cbApply(value uint8) uint8 {
	t := c.inst.tmpl
	switch t.cb {
	case cbRotate:
		return c.rotate(t.rot, value)
	case cbBit:
		c.bitTest(t.lit, value)
		return value
	case cbRes:
		return bit.Reset(t.lit, value)
	default:
		return bit.Set(t.lit, value)
	}
}

func cbReg(c *CPU, _ Bus) {
	r := c.r8(c.inst.tmpl.dst)
	*r = c.cbApply(*r)
}

func bitHL(c *CPU, bus Bus) { c.cbApply(bus.Read(c.getHL())) }

func cbWriteHL(c *CPU, bus Bus) { bus.Write(c.getHL(), c.cbApply(c.inst.lo)) }
