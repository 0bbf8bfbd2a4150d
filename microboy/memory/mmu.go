package memory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/cartridge"
	"github.com/valerio/go-microboy/microboy/interrupt"
)

// BootROMSize is the size of the DMG boot ROM overlay.
const BootROMSize = 0x100

// ErrBootROMSize is returned when a boot ROM image is not exactly 256 bytes.
var ErrBootROMSize = errors.New("boot ROM must be 256 bytes")

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// Device is a memory mapped peripheral that decodes its own addresses.
type Device interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// SerialPort is a device connected to SB/SC.
// Implementations only receive reads and writes to addr.SB and addr.SC.
type SerialPort interface {
	Device
	Tick(cycles int)
}

// Devices groups the peripherals wired to the bus. Nil fields are treated as
// absent: reads return 0xFF and writes are dropped. A nil Timer or Joypad is
// replaced by a fresh one.
type Devices struct {
	Cartridge cartridge.Cartridge
	// Video decodes VRAM, OAM and the LCD registers (except DMA).
	Video  Device
	Audio  Device
	Serial SerialPort
	Timer  *Timer
	Joypad *Joypad
}

// MMU routes CPU accesses to the device owning each address.
type MMU struct {
	boot       [BootROMSize]uint8
	bootActive bool

	cart   cartridge.Cartridge
	video  Device
	audio  Device
	serial SerialPort
	timer  *Timer
	joypad *Joypad
	irq    *interrupt.Controller

	wram [0x2000]uint8
	hram [0x7F]uint8
	dma  uint8

	regionMap [256]memRegion
}

// New creates a bus around irq and the given devices.
func New(irq *interrupt.Controller, devs Devices) *MMU {
	m := &MMU{
		cart:   devs.Cartridge,
		video:  devs.Video,
		audio:  devs.Audio,
		serial: devs.Serial,
		timer:  devs.Timer,
		joypad: devs.Joypad,
		irq:    irq,
		dma:    0xFF,
	}
	if m.timer == nil {
		m.timer = NewTimer(irq, nil)
	}
	if m.joypad == nil {
		m.joypad = NewJoypad(irq)
	}
	initRegionMap(m)
	return m
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, unusable: 0xFEA0-0xFEFF
	m.regionMap[0xFE] = regionOAM
	// IO, HRAM and IE: 0xFF00-0xFFFF
	m.regionMap[0xFF] = regionIO
}

// LoadBootROM maps data over 0x0000-0x00FF until a write to BOOT.
func (m *MMU) LoadBootROM(data []byte) error {
	if len(data) != BootROMSize {
		return fmt.Errorf("%w: got %d", ErrBootROMSize, len(data))
	}
	copy(m.boot[:], data)
	m.bootActive = true
	return nil
}

// BootROMActive reports whether the boot ROM overlay is still mapped.
func (m *MMU) BootROMActive() bool {
	return m.bootActive
}

// Cartridge returns the inserted cartridge, or nil.
func (m *MMU) Cartridge() cartridge.Cartridge {
	return m.cart
}

// Timer returns the timer wired to DIV/TIMA/TMA/TAC.
func (m *MMU) Timer() *Timer {
	return m.timer
}

// Joypad returns the joypad wired to P1.
func (m *MMU) Joypad() *Joypad {
	return m.joypad
}

// Tick advances the bus-owned devices by the given number of T-cycles.
func (m *MMU) Tick(cycles int) {
	for range cycles {
		m.timer.Tick()
	}
	if m.serial != nil {
		m.serial.Tick(cycles)
	}
}

func (m *MMU) Read(address uint16) uint8 {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.bootActive && address <= addr.BootROMEnd {
			return m.boot[address]
		}
		return m.readCart(address)
	case regionExtRAM:
		return m.readCart(address)
	case regionVRAM:
		return m.readDevice(m.video, address)
	case regionWRAM:
		return m.wram[address-addr.WRAMStart]
	case regionEcho:
		return m.wram[address-addr.EchoStart]
	case regionOAM:
		if address <= addr.OAMEnd {
			return m.readDevice(m.video, address)
		}
		slog.Warn("Read from unusable memory", "addr", fmt.Sprintf("0x%04X", address))
		return 0xFF
	default:
		return m.readIO(address)
	}
}

func (m *MMU) Write(address uint16, value uint8) {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.bootActive && address <= addr.BootROMEnd {
			return
		}
		m.writeCart(address, value)
	case regionExtRAM:
		m.writeCart(address, value)
	case regionVRAM:
		m.writeDevice(m.video, address, value)
	case regionWRAM:
		m.wram[address-addr.WRAMStart] = value
	case regionEcho:
		m.wram[address-addr.EchoStart] = value
	case regionOAM:
		if address <= addr.OAMEnd {
			m.writeDevice(m.video, address, value)
			return
		}
		slog.Warn("Write to unusable memory", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	default:
		m.writeIO(address, value)
	}
}

func (m *MMU) readIO(address uint16) uint8 {
	switch {
	case address == addr.P1:
		return m.joypad.Read()
	case address == addr.SB || address == addr.SC:
		return m.readDevice(m.serial, address)
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address)
	case address == addr.IF:
		return m.irq.Flags()
	case isAudio(address):
		return m.readDevice(m.audio, address)
	case address == addr.DMA:
		return m.dma
	case address >= addr.LCDC && address <= addr.WX:
		return m.readDevice(m.video, address)
	case address == addr.BOOT:
		return 0xFF
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		return m.hram[address-addr.HRAMStart]
	case address == addr.IE:
		return m.irq.Enabled()
	}
	slog.Warn("Read from unmapped I/O", "addr", fmt.Sprintf("0x%04X", address))
	return 0xFF
}

func (m *MMU) writeIO(address uint16, value uint8) {
	switch {
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.SB || address == addr.SC:
		m.writeDevice(m.serial, address, value)
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
	case address == addr.IF:
		m.irq.SetFlags(value)
	case isAudio(address):
		m.writeDevice(m.audio, address, value)
	case address == addr.DMA:
		m.startDMA(value)
	case address >= addr.LCDC && address <= addr.WX:
		m.writeDevice(m.video, address, value)
	case address == addr.BOOT:
		if m.bootActive {
			slog.Debug("Boot ROM disabled", "value", fmt.Sprintf("0x%02X", value))
		}
		m.bootActive = false
	case address >= addr.HRAMStart && address <= addr.HRAMEnd:
		m.hram[address-addr.HRAMStart] = value
	case address == addr.IE:
		m.irq.SetEnabled(value)
	default:
		slog.Warn("Write to unmapped I/O", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
	}
}

// startDMA copies 160 bytes from (value << 8) into OAM at once.
func (m *MMU) startDMA(value uint8) {
	m.dma = value
	source := uint16(value) << 8
	for i := range uint16(160) {
		m.writeDevice(m.video, addr.OAMStart+i, m.Read(source+i))
	}
}

func isAudio(address uint16) bool {
	return (address >= addr.NR10 && address <= addr.NR52) ||
		(address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd)
}

func (m *MMU) readCart(address uint16) uint8 {
	if m.cart == nil {
		slog.Warn("Reading from ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
		return 0xFF
	}
	return m.cart.Read(address)
}

func (m *MMU) writeCart(address uint16, value uint8) {
	if m.cart == nil {
		slog.Warn("Writing to ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
		return
	}
	m.cart.Write(address, value)
}

func (m *MMU) readDevice(d Device, address uint16) uint8 {
	if d == nil {
		return 0xFF
	}
	return d.Read(address)
}

func (m *MMU) writeDevice(d Device, address uint16, value uint8) {
	if d == nil {
		return
	}
	d.Write(address, value)
}
