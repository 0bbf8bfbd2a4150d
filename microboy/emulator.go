// Package microboy wires the DMG subsystems into a single emulator driven one
// machine cycle at a time.
package microboy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/audio"
	"github.com/valerio/go-microboy/microboy/cartridge"
	"github.com/valerio/go-microboy/microboy/cpu"
	"github.com/valerio/go-microboy/microboy/interrupt"
	"github.com/valerio/go-microboy/microboy/memory"
	"github.com/valerio/go-microboy/microboy/save"
	"github.com/valerio/go-microboy/microboy/serial"
	"github.com/valerio/go-microboy/microboy/timing"
	"github.com/valerio/go-microboy/microboy/video"
)

const (
	// dotsPerCycle is how many T-cycles (PPU dots) one machine cycle lasts.
	dotsPerCycle = 4

	// flushInterval is the number of machine cycles between battery flushes,
	// one emulated second.
	flushInterval = timing.CPUFrequency

	// postBootCounter is the internal timer counter left by the boot ROM
	// (DIV reads 0xAB).
	postBootCounter = 0xABCC
	postBootIF      = 0xE1
	postBootLCDC    = 0x91
	postBootBGP     = 0xFC
)

var (
	// ErrNoROM is returned by New when Config names no cartridge.
	ErrNoROM = errors.New("no ROM data or path given")
	// ErrFaulted is returned by RunUntilFrame while a fault is pending.
	ErrFaulted = errors.New("emulator stopped on a CPU fault")
)

// Config describes what to load and where state goes.
type Config struct {
	// ROM is the cartridge image. When nil it is read from ROMPath.
	ROM     []byte
	ROMPath string

	// BootROM, if set (or read from BootROMPath), is run from 0x0000.
	// Otherwise the emulator starts in the post boot state.
	BootROM     []byte
	BootROMPath string

	// SaveDir holds <title>.sav files for battery backed cartridges. Empty
	// keeps cartridge RAM in memory only.
	SaveDir string

	// SerialOut, if set, receives every byte sent over the serial port.
	SerialOut io.Writer

	// Tracer is called before every instruction.
	Tracer cpu.Tracer

	// Clock replaces the wall clock for the cartridge RTC and save stamps.
	Clock cartridge.Clock
}

// Emulator owns every DMG subsystem and advances them in lockstep.
type Emulator struct {
	irq    *interrupt.Controller
	cpu    *cpu.CPU
	mmu    *memory.MMU
	ppu    *video.PPU
	apu    *audio.APU
	serial *serial.LogSink
	cart   cartridge.Cartridge

	cycles    uint64
	lastFlush uint64
	fault     *cpu.Fault
}

// New loads the cartridge described by cfg and powers on the system.
func New(cfg Config) (*Emulator, error) {
	rom, err := readOptional(cfg.ROM, cfg.ROMPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}
	if rom == nil {
		return nil, ErrNoROM
	}

	var opts []cartridge.Option
	if cfg.SaveDir != "" {
		dir, err := save.NewDir(cfg.SaveDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cartridge.WithSaver(dir))
	}
	if cfg.Clock != nil {
		opts = append(opts, cartridge.WithClock(cfg.Clock))
	}

	cart, err := cartridge.New(rom, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load cartridge: %w", err)
	}

	e := &Emulator{irq: interrupt.New(), cart: cart}
	e.apu = audio.New()
	e.ppu = video.New(e.irq)
	e.cpu = cpu.New(e.irq)

	var serialOpts []serial.LogSinkOption
	if cfg.SerialOut != nil {
		serialOpts = append(serialOpts, serial.WithWriter(cfg.SerialOut))
	}
	e.serial = serial.NewLogSink(func() { e.irq.Request(addr.SerialInterrupt) }, serialOpts...)

	e.mmu = memory.New(e.irq, memory.Devices{
		Cartridge: cart,
		Video:     e.ppu,
		Audio:     e.apu,
		Serial:    e.serial,
		Timer:     memory.NewTimer(e.irq, e.apu.ClockSequencer),
		Joypad:    memory.NewJoypad(e.irq),
	})

	boot, err := readOptional(cfg.BootROM, cfg.BootROMPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read boot ROM: %w", err)
	}
	if boot != nil {
		if err := e.mmu.LoadBootROM(boot); err != nil {
			return nil, err
		}
	} else {
		e.skipBoot()
	}

	if cfg.Tracer != nil {
		e.cpu.SetTracer(cfg.Tracer)
	}

	slog.Info("Emulator ready", "title", cart.Header().Title, "boot_rom", boot != nil)
	return e, nil
}

func readOptional(data []byte, path string) ([]byte, error) {
	if data != nil || path == "" {
		return data, nil
	}
	return os.ReadFile(path)
}

// skipBoot reproduces the state the boot ROM hands over to the cartridge.
func (e *Emulator) skipBoot() {
	e.cpu.SetRegisters(cpu.PostBoot)
	e.mmu.Timer().SetSeed(postBootCounter)
	e.irq.SetFlags(postBootIF)
	e.mmu.Write(addr.BGP, postBootBGP)
	e.mmu.Write(addr.LCDC, postBootLCDC)
}

// step runs one machine cycle across every subsystem.
func (e *Emulator) step() error {
	err := e.cpu.Step(e.mmu)

	e.mmu.Tick(dotsPerCycle)
	e.apu.Tick(dotsPerCycle)
	for range dotsPerCycle {
		e.ppu.Tick()
	}

	e.cycles++
	if e.cycles-e.lastFlush >= flushInterval {
		e.lastFlush = e.cycles
		e.flushCartridge()
	}
	return err
}

// RunUntilFrame advances the system until the PPU completes a frame, or for
// one frame worth of cycles when the LCD is off. A CPU fault stops the run
// and is returned; later calls fail with ErrFaulted until Resume.
func (e *Emulator) RunUntilFrame() error {
	if e.fault != nil {
		return fmt.Errorf("%w: %w", ErrFaulted, e.fault)
	}

	start := e.ppu.Frames()
	for range timing.CyclesPerFrame {
		err := e.step()
		if err != nil {
			var fault *cpu.Fault
			if errors.As(err, &fault) {
				e.fault = fault
				slog.Error("CPU fault", "pc", fmt.Sprintf("0x%04X", fault.Address), "opcode", fmt.Sprintf("0x%02X", fault.Opcode))
			}
			return err
		}
		if e.ppu.Frames() != start {
			break
		}
	}
	return nil
}

// Fault returns the pending fault, or nil.
func (e *Emulator) Fault() *cpu.Fault {
	return e.fault
}

// Resume clears a pending fault. Execution continues after the faulting
// opcode.
func (e *Emulator) Resume() {
	e.fault = nil
}

// Frame returns a copy of the last completed frame.
func (e *Emulator) Frame() *video.Frame {
	return e.ppu.Frame()
}

// DrainAudio returns the samples produced since the last call.
func (e *Emulator) DrainAudio() []float32 {
	return e.apu.Drain()
}

// Audio exposes the APU channel controls to hosts.
func (e *Emulator) Audio() audio.Provider {
	return e.apu
}

// Press holds a joypad button, requesting the Joypad interrupt on a new press.
func (e *Emulator) Press(b memory.Button) {
	e.mmu.Joypad().Press(b)
}

func (e *Emulator) Release(b memory.Button) {
	e.mmu.Joypad().Release(b)
}

// Registers returns a snapshot of the CPU registers.
func (e *Emulator) Registers() cpu.Registers {
	return e.cpu.Snapshot()
}

// Read reads the bus as the CPU would see it.
func (e *Emulator) Read(address uint16) uint8 {
	return e.mmu.Read(address)
}

// Cycles returns the number of machine cycles run since power on.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// Header returns the cartridge header.
func (e *Emulator) Header() cartridge.Header {
	return e.cart.Header()
}

func (e *Emulator) flushCartridge() {
	if err := e.cart.Flush(); err != nil {
		slog.Error("Failed to flush cartridge RAM", "error", err)
	}
}

// Close flushes pending serial output and battery RAM.
func (e *Emulator) Close() error {
	e.serial.Flush()
	if err := e.cart.Flush(); err != nil {
		return fmt.Errorf("failed to flush cartridge RAM: %w", err)
	}
	return nil
}
