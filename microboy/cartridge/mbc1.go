package cartridge

// MBC1 serves the MBC1, MBC1+RAM and MBC1+RAM+BATTERY variants.
//
// Two bank registers are combined: a 5 bit low register (0 selects 1) and a
// 2 bit upper register. In mode 0 the upper bits extend the switchable ROM
// bank; in mode 1 they select the RAM bank and also remap the 0x0000 region.
type MBC1 struct {
	rom    []byte
	ram    *ram
	header Header

	bankLow  uint8
	bankHigh uint8
	mode     uint8
}

func newMBC1(rom []byte, ram *ram, h Header) *MBC1 {
	return &MBC1{
		rom:     rom,
		ram:     ram,
		header:  h,
		bankLow: 1,
	}
}

// ROMBank returns the bank mapped at 0x4000-0x7FFF.
func (m *MBC1) ROMBank() int {
	return int(m.bankHigh)<<5 | int(m.bankLow)
}

func (m *MBC1) ramBank() int {
	if m.mode == 1 {
		return int(m.bankHigh)
	}
	return 0
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		bank := 0
		if m.mode == 1 {
			bank = int(m.bankHigh) << 5
		}
		return m.rom[bankOffset(m.rom, bank, address)]
	case address <= 0x7FFF:
		return m.rom[bankOffset(m.rom, m.ROMBank(), address)]
	case address >= 0xA000 && address <= 0xBFFF:
		return m.ram.read(m.ramBank()*ramBankSize + int(address-0xA000))
	}
	return 0xFF
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ram.setEnabled(value)
	case address <= 0x3FFF:
		m.bankLow = value & 0x1F
		if m.bankLow == 0 {
			m.bankLow = 1
		}
	case address <= 0x5FFF:
		m.bankHigh = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		m.ram.write(m.ramBank()*ramBankSize+int(address-0xA000), value)
	}
}

func (m *MBC1) Data() []byte   { return m.rom }
func (m *MBC1) Header() Header { return m.header }
func (m *MBC1) Flush() error   { return m.ram.flush() }
