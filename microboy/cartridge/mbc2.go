package cartridge

const mbc2RAMSize = 512

// MBC2 has 512 half-bytes of built-in RAM. Address bit 8 decides whether a
// write to 0x0000-0x3FFF enables RAM (clear) or selects the ROM bank (set).
type MBC2 struct {
	rom    []byte
	ram    *ram
	header Header

	bank uint8
}

func newMBC2(rom []byte, ram *ram, h Header) *MBC2 {
	return &MBC2{rom: rom, ram: ram, header: h, bank: 1}
}

func (m *MBC2) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[bankOffset(m.rom, 0, address)]
	case address <= 0x7FFF:
		return m.rom[bankOffset(m.rom, int(m.bank), address)]
	case address >= 0xA000 && address <= 0xBFFF:
		// only the low nibble exists; the rest of the bus floats high
		return m.ram.read(int(address&0x1FF)) | 0xF0
	}
	return 0xFF
}

func (m *MBC2) Write(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		if address&0x100 == 0 {
			m.ram.setEnabled(value)
			return
		}
		m.bank = value & 0x0F
		if m.bank == 0 {
			m.bank = 1
		}
	case address >= 0xA000 && address <= 0xBFFF:
		m.ram.write(int(address&0x1FF), value&0x0F)
	}
}

func (m *MBC2) Data() []byte   { return m.rom }
func (m *MBC2) Header() Header { return m.header }
func (m *MBC2) Flush() error   { return m.ram.flush() }
