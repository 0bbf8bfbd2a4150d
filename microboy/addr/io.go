package addr

// memory map
const (
	BootROMEnd    uint16 = 0x00FF
	ROMEnd        uint16 = 0x7FFF
	VRAMStart     uint16 = 0x8000
	VRAMEnd       uint16 = 0x9FFF
	ExtRAMStart   uint16 = 0xA000
	ExtRAMEnd     uint16 = 0xBFFF
	WRAMStart     uint16 = 0xC000
	WRAMEnd       uint16 = 0xDFFF
	EchoStart     uint16 = 0xE000
	EchoEnd       uint16 = 0xFDFF
	OAMStart      uint16 = 0xFE00
	OAMEnd        uint16 = 0xFE9F
	UnusableStart uint16 = 0xFEA0
	UnusableEnd   uint16 = 0xFEFF
	IOStart       uint16 = 0xFF00
	IOEnd         uint16 = 0xFF7F
	HRAMStart     uint16 = 0xFF80
	HRAMEnd       uint16 = 0xFFFE
)

// ppu registers
const (
	// LCD Control register.
	LCDC uint16 = 0xFF40
	// LCD Status register.
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	// LY is read-only to software.
	LY  uint16 = 0xFF44
	LYC uint16 = 0xFF45
	// DMA starts an OAM copy from (value << 8).
	DMA  uint16 = 0xFF46
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
)

// BOOT disables the boot ROM overlay once written.
const BOOT uint16 = 0xFF50

// Audio registers.
// Reference: https://gbdev.io/pandocs/Audio_Registers.html
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10 // Channel 1 sweep
	NR11 uint16 = 0xFF11 // Channel 1 length timer & duty cycle
	NR12 uint16 = 0xFF12 // Channel 1 volume & envelope
	NR13 uint16 = 0xFF13 // Channel 1 period low
	NR14 uint16 = 0xFF14 // Channel 1 period high & control

	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR23 uint16 = 0xFF18
	NR24 uint16 = 0xFF19

	NR30 uint16 = 0xFF1A // Channel 3 DAC enable
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C // Channel 3 output level
	NR33 uint16 = 0xFF1D
	NR34 uint16 = 0xFF1E

	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22 // Channel 4 frequency & randomness
	NR44 uint16 = 0xFF23

	NR50 uint16 = 0xFF24 // Master volume & VIN panning
	NR51 uint16 = 0xFF25 // Sound panning
	NR52 uint16 = 0xFF26 // Sound on/off and channel status

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// tile data and tile maps
const (
	// TileData0 is the unsigned tile data base (tiles 0-255).
	TileData0 uint16 = 0x8000
	// TileData2 is the signed tile data base (tile 0 of -128..127).
	TileData2 uint16 = 0x9000

	TileMap0 uint16 = 0x9800
	TileMap1 uint16 = 0x9C00
)

// interrupts
const (
	IF uint16 = 0xFF0F
	IE uint16 = 0xFFFF
)

// P1 selects and reads the joypad button groups.
const P1 uint16 = 0xFF00

// serial I/O
const (
	// SB holds the byte being shifted out. After a transfer with no peer
	// connected it reads back 0xFF.
	SB uint16 = 0xFF01
	// SC bit 7 starts a transfer, bit 0 selects the internal clock.
	SC uint16 = 0xFF02
)

// timers
const (
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
)

// Interrupt is one of the five interrupt sources, as its bit in IF/IE.
type Interrupt uint8

const (
	// VBlankInterrupt is fired when the PPU enters VBlank.
	VBlankInterrupt Interrupt = 1
	// LCDSTATInterrupt is fired on a rising edge of the STAT line.
	LCDSTATInterrupt Interrupt = 1 << 1
	// TimerInterrupt is fired when TIMA overflows.
	TimerInterrupt Interrupt = 1 << 2
	// SerialInterrupt is fired when a serial transfer completes.
	SerialInterrupt Interrupt = 1 << 3
	// JoypadInterrupt is fired when a button goes from released to pressed.
	JoypadInterrupt Interrupt = 1 << 4
)

// Interrupts lists all sources in service priority order.
var Interrupts = [5]Interrupt{
	VBlankInterrupt,
	LCDSTATInterrupt,
	TimerInterrupt,
	SerialInterrupt,
	JoypadInterrupt,
}

// Vector returns the service routine address for the interrupt.
func (i Interrupt) Vector() uint16 {
	switch i {
	case VBlankInterrupt:
		return 0x40
	case LCDSTATInterrupt:
		return 0x48
	case TimerInterrupt:
		return 0x50
	case SerialInterrupt:
		return 0x58
	case JoypadInterrupt:
		return 0x60
	}
	return 0
}

func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "VBlank"
	case LCDSTATInterrupt:
		return "LCDStat"
	case TimerInterrupt:
		return "Timer"
	case SerialInterrupt:
		return "Serial"
	case JoypadInterrupt:
		return "Joypad"
	}
	return "Unknown"
}
