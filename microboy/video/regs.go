package video

// LCDC bits.
const (
	lcdcBGEnable     = 0
	lcdcSpriteEnable = 1
	lcdcSpriteSize   = 2
	lcdcBGMap        = 3
	lcdcTileData     = 4
	lcdcWindowEnable = 5
	lcdcWindowMap    = 6
	lcdcDisplay      = 7
)

// STAT bits.
const (
	statCoincidence  = 2
	statHBlankIRQ    = 3
	statVBlankIRQ    = 4
	statOAMIRQ       = 5
	statCoincideIRQ  = 6
	statWritableMask = 0x78
)

// Mode is the PPU mode reported in STAT bits 0-1.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMSearch
	ModeTransfer
)

func (m Mode) String() string {
	switch m {
	case ModeHBlank:
		return "HBlank"
	case ModeVBlank:
		return "VBlank"
	case ModeOAMSearch:
		return "OAMSearch"
	case ModeTransfer:
		return "LCDTransfer"
	}
	return "Unknown"
}

// palette maps a 2-bit colour index through a BGP/OBP style register.
func palette(reg, index uint8) uint8 {
	return (reg >> (index * 2)) & 0x03
}
