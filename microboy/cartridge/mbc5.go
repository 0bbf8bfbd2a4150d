package cartridge

// MBC5 has a 9 bit ROM bank register where bank 0 is a valid selection, and
// up to 16 RAM banks.
type MBC5 struct {
	rom    []byte
	ram    *ram
	header Header

	romBank uint16
	ramBank uint8
}

func newMBC5(rom []byte, ram *ram, h Header) *MBC5 {
	return &MBC5{rom: rom, ram: ram, header: h, romBank: 1}
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[bankOffset(m.rom, 0, address)]
	case address <= 0x7FFF:
		return m.rom[bankOffset(m.rom, int(m.romBank), address)]
	case address >= 0xA000 && address <= 0xBFFF:
		return m.ram.read(int(m.ramBank)*ramBankSize + int(address-0xA000))
	}
	return 0xFF
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ram.setEnabled(value)
	case address <= 0x2FFF:
		m.romBank = m.romBank&0x100 | uint16(value)
	case address <= 0x3FFF:
		m.romBank = m.romBank&0xFF | uint16(value&0x01)<<8
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
	case address >= 0xA000 && address <= 0xBFFF:
		m.ram.write(int(m.ramBank)*ramBankSize+int(address-0xA000), value)
	}
}

func (m *MBC5) Data() []byte   { return m.rom }
func (m *MBC5) Header() Header { return m.header }
func (m *MBC5) Flush() error   { return m.ram.flush() }
