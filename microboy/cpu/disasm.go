package cpu

import (
	"fmt"
	"strings"
)

// Disassemble renders the instruction at address and returns its length in
// bytes. Reads go through bus, so it should not have side effects there.
func Disassemble(bus Bus, address uint16) (string, int) {
	opcode := bus.Read(address)
	t := &baseTable[opcode]
	if opcode == 0xCB {
		t = &cbTable[bus.Read(address+1)]
		return t.name, t.length
	}

	text := t.name
	switch {
	case strings.Contains(text, "d16"), strings.Contains(text, "a16"):
		nn := uint16(bus.Read(address+2))<<8 | uint16(bus.Read(address+1))
		word := fmt.Sprintf("$%04X", nn)
		text = strings.NewReplacer("d16", word, "a16", word).Replace(text)
	case strings.Contains(text, "r8"):
		e := int8(bus.Read(address + 1))
		switch {
		case strings.HasPrefix(text, "JR"):
			target := address + 2 + uint16(int16(e))
			text = strings.Replace(text, "r8", fmt.Sprintf("$%04X", target), 1)
		case strings.Contains(text, "+r8"):
			text = strings.Replace(text, "+r8", fmt.Sprintf("%+d", e), 1)
		default:
			text = strings.Replace(text, "r8", fmt.Sprintf("%+d", e), 1)
		}
	case strings.Contains(text, "d8"), strings.Contains(text, "a8"):
		n := fmt.Sprintf("$%02X", bus.Read(address+1))
		text = strings.NewReplacer("d8", n, "a8", n).Replace(text)
	}
	return text, t.length
}

// Mnemonic returns the template name of an opcode, 0xCBxx for prefixed ones.
func Mnemonic(opcode uint16) string {
	if opcode&0xFF00 == 0xCB00 {
		return cbTable[opcode&0xFF].name
	}
	return baseTable[opcode&0xFF].name
}

// Cycles returns the machine cycles an opcode takes when its branch is taken.
// Prefixed opcodes (0xCBxx) include the prefix fetch.
func Cycles(opcode uint16) int {
	if opcode&0xFF00 == 0xCB00 {
		t := &cbTable[opcode&0xFF]
		return 2 + len(t.steps)
	}
	return baseTable[opcode&0xFF].cycles()
}
