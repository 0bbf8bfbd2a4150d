package cpu

import (
	"fmt"
	"strings"
)

// operand describes what an instruction reads or writes.
type operand uint8

const (
	none operand = iota
	// r table order: the 3 bit register fields index these directly
	regB
	regC
	regD
	regE
	regH
	regL
	indHL
	regA

	regBC
	regDE
	regHL
	regSP
	regAF

	indBC
	indDE
	indHLInc
	indHLDec

	imm8
	simm8
	imm16
	indImm16
	highImm
	highC
	spPlusE

	condNZ
	condZ
	condNC
	condC
)

var operandNames = map[operand]string{
	regB: "B", regC: "C", regD: "D", regE: "E", regH: "H", regL: "L", indHL: "(HL)", regA: "A",
	regBC: "BC", regDE: "DE", regHL: "HL", regSP: "SP", regAF: "AF",
	indBC: "(BC)", indDE: "(DE)", indHLInc: "(HL+)", indHLDec: "(HL-)",
	imm8: "d8", simm8: "r8", imm16: "d16", indImm16: "(a16)",
	highImm: "($FF00+a8)", highC: "($FF00+C)", spPlusE: "SP+r8",
	condNZ: "NZ", condZ: "Z", condNC: "NC", condC: "C",
}

func (o operand) String() string {
	return operandNames[o]
}

// size is the number of instruction bytes the operand occupies.
func (o operand) size() int {
	switch o {
	case imm8, simm8, highImm, spPlusE:
		return 1
	case imm16, indImm16:
		return 2
	}
	return 0
}

var (
	r8Table  = [8]operand{regB, regC, regD, regE, regH, regL, indHL, regA}
	rpTable  = [4]operand{regBC, regDE, regHL, regSP}
	rp2Table = [4]operand{regBC, regDE, regHL, regAF}
	ccTable  = [4]operand{condNZ, condZ, condNC, condC}
)

type cbKind uint8

const (
	cbRotate cbKind = iota
	cbBit
	cbRes
	cbSet
)

// template is the static description of an opcode: its operands, the work
// done in the fetch cycle and the micro-steps that follow.
type template struct {
	name   string
	length int

	dst, src operand
	cond     operand
	lit      uint8 // RST vector or bit index
	alu      aluOp
	rot      rotOp
	cb       cbKind

	// exec runs in the same cycle as the opcode fetch
	exec  microOp
	steps []microOp

	undefined bool
}

// cycles is the machine cycle count when every condition holds.
func (t *template) cycles() int {
	return 1 + len(t.steps)
}

var (
	baseTable [256]template
	cbTable   [256]template
)

var interruptTemplate = template{
	name:  "INT",
	steps: []microOp{decSP, pushPCHi, pushPCLo, jumpTemp},
}

func init() {
	for i := range 256 {
		opcode := uint8(i)
		baseTable[i] = decodeBase(opcode)
		cbTable[i] = decodeCB(opcode)
		for _, t := range []*template{&baseTable[i], &cbTable[i]} {
			if len(t.steps) > queueCapacity {
				panic(fmt.Sprintf("cpu: %s needs %d steps", t.name, len(t.steps)))
			}
		}
	}
}

func fields(opcode uint8) (x, y, z, p, q uint8) {
	x = opcode >> 6
	y = (opcode >> 3) & 0x07
	z = opcode & 0x07
	p = y >> 1
	q = y & 0x01
	return
}

// name joins a mnemonic with its operands, "LD B, d8".
func name(mnemonic string, ops ...operand) string {
	parts := make([]string, 0, len(ops))
	for _, o := range ops {
		if o != none {
			parts = append(parts, o.String())
		}
	}
	if len(parts) == 0 {
		return mnemonic
	}
	return mnemonic + " " + strings.Join(parts, ", ")
}

// finish fills the derived fields of t.
func finish(t template) template {
	if t.length == 0 {
		t.length = 1 + t.dst.size() + t.src.size()
	}
	return t
}

func op(mnemonic string, dst, src operand, exec microOp, steps ...microOp) template {
	return finish(template{name: name(mnemonic, dst, src), dst: dst, src: src, exec: exec, steps: steps})
}

func branch(mnemonic string, cond, target operand, steps ...microOp) template {
	return finish(template{name: name(mnemonic, cond, target), src: target, cond: cond, steps: steps})
}

func decodeBase(opcode uint8) template {
	x, y, z, p, q := fields(opcode)
	switch x {
	case 0:
		return decodeX0(y, z, p, q)
	case 1:
		if y == 6 && z == 6 {
			return op("HALT", none, none, halt)
		}
		return decodeLoad(r8Table[y], r8Table[z])
	case 2:
		return decodeALU(aluOp(y), r8Table[z])
	}
	return decodeX3(opcode, y, z, p, q)
}

func decodeX0(y, z, p, q uint8) template {
	switch z {
	case 0:
		switch y {
		case 0:
			return op("NOP", none, none, nil)
		case 1:
			return op("LD", indImm16, regSP, nil, readLo, readHi, writeSPLo, writeSPHi)
		case 2:
			t := op("STOP", none, none, stop)
			t.length = 2
			return t
		case 3:
			return branch("JR", none, simm8, readLo, jumpRel)
		default:
			return branch("JR", ccTable[y-4], simm8, readLoCheck, jumpRel)
		}
	case 1:
		if q == 0 {
			return op("LD", rpTable[p], imm16, nil, readLo, ldRRImm)
		}
		return op("ADD", regHL, rpTable[p], nil, addHL)
	case 2:
		ind := [4]operand{indBC, indDE, indHLInc, indHLDec}[p]
		if q == 0 {
			return op("LD", ind, regA, nil, storeA)
		}
		return op("LD", regA, ind, nil, loadA)
	case 3:
		if q == 0 {
			return op("INC", rpTable[p], none, nil, incRR)
		}
		return op("DEC", rpTable[p], none, nil, decRR)
	case 4:
		if r8Table[y] == indHL {
			return op("INC", indHL, none, nil, readHL, incWriteHL)
		}
		return op("INC", r8Table[y], none, incR)
	case 5:
		if r8Table[y] == indHL {
			return op("DEC", indHL, none, nil, readHL, decWriteHL)
		}
		return op("DEC", r8Table[y], none, decR)
	case 6:
		if r8Table[y] == indHL {
			return op("LD", indHL, imm8, nil, readLo, writeHLLo)
		}
		return op("LD", r8Table[y], imm8, nil, ldRImm)
	}

	switch y {
	case 0, 1, 2, 3:
		t := op([4]string{"RLCA", "RRCA", "RLA", "RRA"}[y], none, none, rotateA)
		t.rot = rotOp(y)
		return t
	case 4:
		return op("DAA", none, none, daa)
	case 5:
		return op("CPL", none, none, cpl)
	case 6:
		return op("SCF", none, none, scf)
	}
	return op("CCF", none, none, ccf)
}

func decodeLoad(dst, src operand) template {
	switch {
	case src == indHL:
		return op("LD", dst, src, nil, ldRFromHL)
	case dst == indHL:
		return op("LD", dst, src, nil, ldHLFromR)
	}
	return op("LD", dst, src, ldRR)
}

func decodeALU(a aluOp, src operand) template {
	var t template
	switch src {
	case indHL:
		t = op(aluNames[a], src, none, nil, aluHL)
	case imm8:
		t = op(aluNames[a], src, none, nil, aluImm)
	default:
		t = op(aluNames[a], src, none, aluR)
	}
	// the operand is printed as the destination but it is read as the source
	t.src, t.dst = src, none
	t.alu = a
	return t
}

func decodeX3(opcode, y, z, p, q uint8) template {
	switch z {
	case 0:
		switch y {
		case 4:
			return op("LDH", highImm, regA, nil, readLo, writeAHigh)
		case 5:
			return op("ADD", regSP, simm8, nil, readLo, internal, addSPe)
		case 6:
			return op("LDH", regA, highImm, nil, readLo, readAHigh)
		case 7:
			return op("LD", regHL, spPlusE, nil, readLo, ldHLSPe)
		}
		return branch("RET", ccTable[y], none, checkCond, popLo, popHi, jumpTemp)
	case 1:
		if q == 0 {
			return op("POP", rp2Table[p], none, nil, popLo, popStore)
		}
		switch p {
		case 0:
			return op("RET", none, none, nil, popLo, popHi, jumpTemp)
		case 1:
			return op("RETI", none, none, nil, popLo, popHi, retiJump)
		case 2:
			return op("JP", regHL, none, jpHL)
		}
		return op("LD", regSP, regHL, nil, ldSPHL)
	case 2:
		switch y {
		case 4:
			return op("LD", highC, regA, nil, writeAHighC)
		case 5:
			return op("LD", indImm16, regA, nil, readLo, readHi, writeAAbs)
		case 6:
			return op("LD", regA, highC, nil, readAHighC)
		case 7:
			return op("LD", regA, indImm16, nil, readLo, readHi, readAAbs)
		}
		return branch("JP", ccTable[y], imm16, readLo, readHiCheck, jumpTemp)
	case 3:
		switch y {
		case 0:
			return branch("JP", none, imm16, readLo, readHi, jumpTemp)
		case 1:
			t := op("PREFIX CB", none, none, nil, fetchCB)
			t.length = 2
			return t
		case 6:
			return op("DI", none, none, di)
		case 7:
			return op("EI", none, none, ei)
		}
		return undefined(opcode)
	case 4:
		if y < 4 {
			return branch("CALL", ccTable[y], imm16, readLo, readHiCheck, decSP, pushPCHi, pushPCLoJump)
		}
		return undefined(opcode)
	case 5:
		if q == 0 {
			return op("PUSH", none, rp2Table[p], nil, decSP, pushHi, pushLo)
		}
		if p == 0 {
			return branch("CALL", none, imm16, readLo, readHi, decSP, pushPCHi, pushPCLoJump)
		}
		return undefined(opcode)
	case 6:
		return decodeALU(aluOp(y), imm8)
	}

	t := op(fmt.Sprintf("RST $%02X", y*8), none, none, nil, decSP, pushPCHi, pushPCLoRST)
	t.lit = y * 8
	return t
}

func undefined(opcode uint8) template {
	return template{name: fmt.Sprintf("DB $%02X", opcode), length: 1, undefined: true}
}

func decodeCB(opcode uint8) template {
	x, y, z, _, _ := fields(opcode)
	target := r8Table[z]

	t := template{dst: target, length: 2, lit: y}
	switch x {
	case 0:
		t.cb = cbRotate
		t.rot = rotOp(y)
		t.name = name(rotNames[y], target)
	case 1:
		t.cb = cbBit
		t.name = fmt.Sprintf("BIT %d, %s", y, target)
	case 2:
		t.cb = cbRes
		t.name = fmt.Sprintf("RES %d, %s", y, target)
	default:
		t.cb = cbSet
		t.name = fmt.Sprintf("SET %d, %s", y, target)
	}

	switch {
	case target != indHL:
		t.exec = cbReg
	case t.cb == cbBit:
		t.steps = []microOp{bitHL}
	default:
		t.steps = []microOp{readHL, cbWriteHL}
	}
	return t
}
