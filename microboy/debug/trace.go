package debug

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/valerio/go-microboy/microboy/cpu"
)

// LogTracer returns a cpu.Tracer logging every instruction at Debug level.
func LogTracer(logger *slog.Logger) cpu.Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return func(regs cpu.Registers, bus cpu.Bus) {
		text, _ := cpu.Disassemble(bus, regs.PC)
		logger.Debug("exec",
			"pc", fmt.Sprintf("0x%04X", regs.PC),
			"op", text,
			"regs", regs.String(),
		)
	}
}

// DoctorLine formats the CPU state in the line format used by
// gameboy-doctor, e.g.
//
//	A:01 F:B0 B:00 C:13 D:00 E:D8 H:01 L:4D SP:FFFE PC:0100 PCMEM:00,C3,13,02
func DoctorLine(regs cpu.Registers, bus cpu.Bus) string {
	pc := regs.PC
	return fmt.Sprintf("A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X PCMEM:%02X,%02X,%02X,%02X",
		regs.A, regs.F, regs.B, regs.C, regs.D, regs.E, regs.H, regs.L, regs.SP, pc,
		bus.Read(pc), bus.Read(pc+1), bus.Read(pc+2), bus.Read(pc+3))
}

// TraceWriter writes one DoctorLine per executed instruction.
type TraceWriter struct {
	w     *bufio.Writer
	lines int
	err   error
}

func NewTraceWriter(w io.Writer) *TraceWriter {
	return &TraceWriter{w: bufio.NewWriter(w)}
}

// Trace matches cpu.Tracer. The first write error is kept and returned by
// Flush, later lines are dropped.
func (t *TraceWriter) Trace(regs cpu.Registers, bus cpu.Bus) {
	if t.err != nil {
		return
	}
	if _, err := t.w.WriteString(DoctorLine(regs, bus) + "\n"); err != nil {
		t.err = err
		return
	}
	t.lines++
}

// Lines returns how many lines were written.
func (t *TraceWriter) Lines() int { return t.lines }

func (t *TraceWriter) Flush() error {
	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}
