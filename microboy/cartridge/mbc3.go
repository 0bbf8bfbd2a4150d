package cartridge

import "time"

const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDayLow
	rtcDayHigh
)

const (
	rtcHaltBit  = 0x40
	rtcCarryBit = 0x80
)

// MBC3 has a 7 bit ROM bank, four RAM banks and a real time clock whose
// registers are mapped into the RAM window by selecting banks 0x08-0x0C.
type MBC3 struct {
	rom    []byte
	ram    *ram
	header Header
	rtc    rtc

	romBank    uint8
	bankSelect uint8
	latchArm   bool
}

func newMBC3(rom []byte, ram *ram, h Header, clock Clock) *MBC3 {
	return &MBC3{
		rom:     rom,
		ram:     ram,
		header:  h,
		romBank: 1,
		rtc:     rtc{clock: clock, base: clock.Now()},
	}
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[bankOffset(m.rom, 0, address)]
	case address <= 0x7FFF:
		return m.rom[bankOffset(m.rom, int(m.romBank), address)]
	case address >= 0xA000 && address <= 0xBFFF:
		if m.bankSelect >= 0x08 && m.bankSelect <= 0x0C {
			if m.ram == nil || !m.ram.enabled {
				return 0xFF
			}
			return m.rtc.latched[m.bankSelect-0x08]
		}
		return m.ram.read(int(m.bankSelect&0x03)*ramBankSize + int(address-0xA000))
	}
	return 0xFF
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ram.setEnabled(value)
	case address <= 0x3FFF:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address <= 0x5FFF:
		m.bankSelect = value
	case address <= 0x7FFF:
		// latching happens on a 0x00 -> 0x01 sequence
		if value == 0x01 && m.latchArm {
			m.rtc.latch()
		}
		m.latchArm = value == 0x00
	case address >= 0xA000 && address <= 0xBFFF:
		if m.bankSelect >= 0x08 && m.bankSelect <= 0x0C {
			if m.ram != nil && m.ram.enabled {
				m.rtc.set(int(m.bankSelect-0x08), value)
			}
			return
		}
		m.ram.write(int(m.bankSelect&0x03)*ramBankSize+int(address-0xA000), value)
	}
}

func (m *MBC3) Data() []byte   { return m.rom }
func (m *MBC3) Header() Header { return m.header }
func (m *MBC3) Flush() error   { return m.ram.flush() }

// rtc counts seconds since base. Writes rebase the counter so the elapsed
// time matches the written registers.
type rtc struct {
	clock   Clock
	base    time.Time
	halted  bool
	stopped time.Duration
	carry   bool
	latched [5]uint8
}

func (r *rtc) elapsed() int64 {
	if r.halted {
		return int64(r.stopped / time.Second)
	}
	return int64(r.clock.Now().Sub(r.base) / time.Second)
}

func (r *rtc) latch() {
	secs := r.elapsed()
	days := secs / 86400
	if days > 511 {
		r.carry = true
		days %= 512
	}

	r.latched[rtcSeconds] = uint8(secs % 60)
	r.latched[rtcMinutes] = uint8(secs / 60 % 60)
	r.latched[rtcHours] = uint8(secs / 3600 % 24)
	r.latched[rtcDayLow] = uint8(days)
	high := uint8(days>>8) & 0x01
	if r.halted {
		high |= rtcHaltBit
	}
	if r.carry {
		high |= rtcCarryBit
	}
	r.latched[rtcDayHigh] = high
}

func (r *rtc) set(register int, value uint8) {
	r.latched[register] = value
	l := r.latched
	days := int64(l[rtcDayLow]) | int64(l[rtcDayHigh]&0x01)<<8
	secs := int64(l[rtcSeconds]) + int64(l[rtcMinutes])*60 + int64(l[rtcHours])*3600 + days*86400

	r.carry = l[rtcDayHigh]&rtcCarryBit != 0
	r.halted = l[rtcDayHigh]&rtcHaltBit != 0
	if r.halted {
		r.stopped = time.Duration(secs) * time.Second
		return
	}
	r.base = r.clock.Now().Add(-time.Duration(secs) * time.Second)
}
