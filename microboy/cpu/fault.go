package cpu

import (
	"errors"
	"fmt"
)

// ErrUndefinedOpcode is wrapped by every Fault.
var ErrUndefinedOpcode = errors.New("undefined opcode")

// Fault is returned by Step when the CPU decodes an opcode that does not
// exist on the LR35902. The CPU can keep stepping afterwards: the opcode is
// consumed as a one cycle no-op.
type Fault struct {
	Address   uint16
	Opcode    uint8
	Registers Registers
}

func (f *Fault) Error() string {
	return fmt.Sprintf("undefined opcode 0x%02X at 0x%04X (%s)", f.Opcode, f.Address, f.Registers)
}

func (f *Fault) Unwrap() error {
	return ErrUndefinedOpcode
}
