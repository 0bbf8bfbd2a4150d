// Package cartridge implements the cartridge controllers the bus talks to
// through the 0x0000-0x7FFF and 0xA000-0xBFFF windows.
package cartridge

import (
	"fmt"
	"log/slog"
	"time"
)

// Cartridge is a loaded game. Reads and writes use CPU addresses.
type Cartridge interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// Data returns the raw ROM image.
	Data() []byte
	Header() Header
	// Flush persists battery backed RAM if it changed since the last flush.
	Flush() error
}

// Saver persists battery backed RAM, keyed by cartridge title.
type Saver interface {
	Save(title string, data []byte, at time.Time) error
	Load(title string) ([]byte, bool, error)
}

// Clock is the time source for the MBC3 real time clock and save timestamps.
type Clock interface {
	Now() time.Time
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time {
	return f()
}

type options struct {
	saver Saver
	clock Clock
}

// Option configures New.
type Option func(*options)

// WithSaver sets where battery backed RAM is loaded from and flushed to.
// Without a saver battery RAM only lives for the session.
func WithSaver(s Saver) Option {
	return func(o *options) {
		o.saver = s
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// New parses the header and builds the matching controller.
func New(data []byte, opts ...Option) (Cartridge, error) {
	o := options{clock: clockFunc(time.Now)}
	for _, opt := range opts {
		opt(&o)
	}

	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	rom := padROM(data, header)

	var ram *ram
	if header.RAMSize > 0 {
		ram, err = newRAM(header, o.saver, o.clock)
		if err != nil {
			return nil, err
		}
	}

	var cart Cartridge
	switch header.Kind {
	case KindROMOnly:
		cart = &ROMOnly{rom: rom, header: header}
	case KindMBC1, KindMBC1RAM, KindMBC1RAMBattery:
		cart = newMBC1(rom, ram, header)
	case KindMBC2Battery:
		cart = newMBC2(rom, ram, header)
	case KindMBC3RAMBattery:
		cart = newMBC3(rom, ram, header, o.clock)
	case KindMBC5, KindMBC5RAMBattery:
		cart = newMBC5(rom, ram, header)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, header.Kind)
	}

	slog.Info("Cartridge loaded", "header", header.String())
	return cart, nil
}

// padROM extends truncated images to the declared size so bank math never
// indexes past the end. Padding reads as 0xFF, like an open bus.
func padROM(data []byte, h Header) []byte {
	size := h.ROMSize()
	if len(data) >= size {
		return data
	}
	rom := make([]byte, size)
	copy(rom, data)
	for i := len(data); i < size; i++ {
		rom[i] = 0xFF
	}
	return rom
}

// bankOffset returns the ROM offset for address within bank, wrapping the
// bank number to the number of banks present.
func bankOffset(rom []byte, bank int, address uint16) int {
	banks := len(rom) / romBankSize
	if banks == 0 {
		return int(address) % len(rom)
	}
	return (bank%banks)*romBankSize + int(address&0x3FFF)
}

// ROMOnly is a 32 KiB cartridge with no controller.
type ROMOnly struct {
	rom    []byte
	header Header
}

func (c *ROMOnly) Read(address uint16) uint8 {
	if address <= 0x7FFF && int(address) < len(c.rom) {
		return c.rom[address]
	}
	return 0xFF
}

func (c *ROMOnly) Write(address uint16, value uint8) {}

func (c *ROMOnly) Data() []byte   { return c.rom }
func (c *ROMOnly) Header() Header { return c.header }
func (c *ROMOnly) Flush() error   { return nil }
