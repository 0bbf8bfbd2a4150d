package microboy

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/cpu"
	"github.com/valerio/go-microboy/microboy/memory"
	"github.com/valerio/go-microboy/microboy/save"
	"github.com/valerio/go-microboy/microboy/timing"
)

const (
	testTitle      = "MICROBOY"
	kindROMOnly    = 0x00
	kindMBC1RAMBat = 0x03
	ramCode8K      = 0x02
)

// jrSelf loops forever on the same instruction.
var jrSelf = []uint8{0x18, 0xFE}

// testROM builds a 32 KiB image with program placed at the entry point.
func testROM(kind, ramCode uint8, program ...uint8) []byte {
	data := make([]byte, 0x8000)
	copy(data[0x134:], testTitle)
	data[0x147] = kind
	data[0x148] = 0x00
	data[0x149] = ramCode
	copy(data[0x100:], program)
	return data
}

func program(parts ...[]uint8) []uint8 {
	var out []uint8
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func newTestEmulator(t *testing.T, cfg Config) *Emulator {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestEmulator_PostBootState(t *testing.T) {
	e := newTestEmulator(t, Config{ROM: testROM(kindROMOnly, 0, jrSelf...)})

	regs := e.Registers()
	assert.Equal(t, cpu.PostBoot.PC, regs.PC)
	assert.Equal(t, cpu.PostBoot.SP, regs.SP)
	assert.Equal(t, uint16(0x01B0), regs.AF())
	assert.Equal(t, uint16(0x014D), regs.HL())

	assert.Equal(t, uint8(0x91), e.Read(addr.LCDC))
	assert.Equal(t, uint8(0xFC), e.Read(addr.BGP))
	assert.Equal(t, uint8(0xAB), e.Read(addr.DIV))
	assert.Equal(t, testTitle, e.Header().Title)
}

func TestEmulator_BootROM(t *testing.T) {
	t.Run("starts at zero with the overlay mapped", func(t *testing.T) {
		boot := make([]byte, memory.BootROMSize)
		copy(boot, jrSelf)
		e := newTestEmulator(t, Config{ROM: testROM(kindROMOnly, 0), BootROM: boot})

		assert.Equal(t, uint16(0x0000), e.Registers().PC)
		assert.Equal(t, uint8(0x18), e.Read(0x0000))
		require.NoError(t, e.RunUntilFrame())
		assert.LessOrEqual(t, e.Registers().PC, uint16(0x0002), "still spinning inside the boot ROM")
	})

	t.Run("wrong size", func(t *testing.T) {
		_, err := New(Config{ROM: testROM(kindROMOnly, 0), BootROM: make([]byte, 100)})
		assert.ErrorIs(t, err, memory.ErrBootROMSize)
	})
}

func TestEmulator_NoROM(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoROM)
}

func TestEmulator_RunUntilFrame(t *testing.T) {
	e := newTestEmulator(t, Config{ROM: testROM(kindROMOnly, 0, jrSelf...)})

	require.NoError(t, e.RunUntilFrame())
	first := e.Cycles()
	assert.Greater(t, first, uint64(0))
	assert.Less(t, first, uint64(timing.CyclesPerFrame))

	// every later frame is exactly one frame period apart
	require.NoError(t, e.RunUntilFrame())
	assert.Equal(t, uint64(timing.CyclesPerFrame), e.Cycles()-first)

	frame := e.Frame()
	require.NotNil(t, frame)
	for _, shade := range frame.Pix {
		assert.Equal(t, uint8(0), shade, "tile 0 is blank, BGP maps colour 0 to shade 0")
	}
}

func TestEmulator_LCDOffRunsOneFramePeriod(t *testing.T) {
	rom := testROM(kindROMOnly, 0, program(
		[]uint8{0x3E, 0x00}, // LD A,0
		[]uint8{0xE0, 0x40}, // LDH (LCDC),A
		jrSelf,
	)...)
	e := newTestEmulator(t, Config{ROM: rom})

	require.NoError(t, e.RunUntilFrame())
	assert.Equal(t, uint64(timing.CyclesPerFrame), e.Cycles())
}

func TestEmulator_Fault(t *testing.T) {
	rom := testROM(kindROMOnly, 0, program([]uint8{0xD3}, jrSelf)...)
	e := newTestEmulator(t, Config{ROM: rom})

	err := e.RunUntilFrame()
	var fault *cpu.Fault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, uint16(0x0100), fault.Address)
	assert.Equal(t, uint8(0xD3), fault.Opcode)
	assert.ErrorIs(t, err, cpu.ErrUndefinedOpcode)
	assert.Same(t, fault, e.Fault())

	cycles := e.Cycles()
	err = e.RunUntilFrame()
	assert.ErrorIs(t, err, ErrFaulted)
	assert.Equal(t, cycles, e.Cycles(), "no progress while faulted")

	e.Resume()
	assert.Nil(t, e.Fault())
	require.NoError(t, e.RunUntilFrame())
	assert.GreaterOrEqual(t, e.Registers().PC, uint16(0x0101), "continues after the faulting opcode")
}

func TestEmulator_SerialOutput(t *testing.T) {
	rom := testROM(kindROMOnly, 0, program(
		[]uint8{0x3E, 'O'},  // LD A,'O'
		[]uint8{0xE0, 0x01}, // LDH (SB),A
		[]uint8{0x3E, 0x81}, // LD A,0x81
		[]uint8{0xE0, 0x02}, // LDH (SC),A
		jrSelf,
	)...)
	var out bytes.Buffer
	e := newTestEmulator(t, Config{ROM: rom, SerialOut: &out})

	require.NoError(t, e.RunUntilFrame())
	assert.Equal(t, "O", out.String())
	assert.NotZero(t, e.Read(addr.IF)&uint8(addr.SerialInterrupt))
	require.NoError(t, e.Close())
}

func TestEmulator_Joypad(t *testing.T) {
	e := newTestEmulator(t, Config{ROM: testROM(kindROMOnly, 0, jrSelf...)})
	e.irqClear()

	e.Press(memory.ButtonA)
	assert.NotZero(t, e.Read(addr.IF)&uint8(addr.JoypadInterrupt))

	e.irqClear()
	e.Press(memory.ButtonA)
	assert.Zero(t, e.Read(addr.IF)&uint8(addr.JoypadInterrupt), "held button does not re-raise")

	e.Release(memory.ButtonA)
	assert.False(t, e.mmu.Joypad().Pressed(memory.ButtonA))
}

func TestEmulator_BatterySave(t *testing.T) {
	dir := t.TempDir()
	rom := testROM(kindMBC1RAMBat, ramCode8K, program(
		[]uint8{0x3E, 0x0A},       // LD A,0x0A
		[]uint8{0xEA, 0x00, 0x00}, // LD (0x0000),A  enable RAM
		[]uint8{0x3E, 0x42},       // LD A,0x42
		[]uint8{0xEA, 0x00, 0xA0}, // LD (0xA000),A
		jrSelf,
	)...)

	e := newTestEmulator(t, Config{ROM: rom, SaveDir: dir})
	require.NoError(t, e.RunUntilFrame())
	require.NoError(t, e.Close())

	saver, err := save.NewDir(dir)
	require.NoError(t, err)
	data, ok, err := saver.Load(testTitle)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint8(0x42), data[0])

	// a fresh session sees the saved byte
	e = newTestEmulator(t, Config{ROM: rom, SaveDir: dir})
	e.mmu.Write(0x0000, 0x0A)
	assert.Equal(t, uint8(0x42), e.Read(0xA000))
}

func TestEmulator_DrainAudio(t *testing.T) {
	e := newTestEmulator(t, Config{ROM: testROM(kindROMOnly, 0, jrSelf...)})
	require.NoError(t, e.RunUntilFrame())
	require.NoError(t, e.RunUntilFrame())

	samples := e.DrainAudio()
	assert.NotEmpty(t, samples)
	assert.Empty(t, e.DrainAudio())
}

func TestEmulator_Tracer(t *testing.T) {
	var pcs []uint16
	e := newTestEmulator(t, Config{
		ROM:    testROM(kindROMOnly, 0, program([]uint8{0x00, 0x00}, jrSelf)...),
		Tracer: func(regs cpu.Registers, _ cpu.Bus) { pcs = append(pcs, regs.PC) },
	})

	for range 4 {
		require.NoError(t, e.step())
	}
	assert.Equal(t, []uint16{0x0100, 0x0101, 0x0102}, pcs)
}

// irqClear drops every pending interrupt.
func (e *Emulator) irqClear() {
	e.irq.SetFlags(0)
}
