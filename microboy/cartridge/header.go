package cartridge

import (
	"errors"
	"fmt"
	"strings"
)

const (
	titleAddress   = 0x134
	titleEnd       = 0x143
	typeAddress    = 0x147
	romSizeAddress = 0x148
	ramSizeAddress = 0x149
	headerEnd      = 0x150

	romBankSize = 0x4000
	ramBankSize = 0x2000
)

var (
	ErrShortImage       = errors.New("rom image is shorter than the cartridge header")
	ErrUnsupportedType  = errors.New("unsupported cartridge type")
	ErrUnknownROMSize   = errors.New("unknown rom size code")
	ErrUnknownRAMSize   = errors.New("unknown ram size code")
	ErrSaveSizeMismatch = errors.New("save data size does not match cartridge ram size")
)

// Kind is the controller code found at 0x147.
type Kind uint8

const (
	KindROMOnly        Kind = 0x00
	KindMBC1           Kind = 0x01
	KindMBC1RAM        Kind = 0x02
	KindMBC1RAMBattery Kind = 0x03
	KindMBC2Battery    Kind = 0x06
	KindMBC3RAMBattery Kind = 0x13
	KindMBC5           Kind = 0x19
	KindMBC5RAMBattery Kind = 0x1B
)

var kindNames = map[Kind]string{
	KindROMOnly:        "ROM ONLY",
	KindMBC1:           "MBC1",
	KindMBC1RAM:        "MBC1+RAM",
	KindMBC1RAMBattery: "MBC1+RAM+BATTERY",
	KindMBC2Battery:    "MBC2+BATTERY",
	KindMBC3RAMBattery: "MBC3+RAM+BATTERY",
	KindMBC5:           "MBC5",
	KindMBC5RAMBattery: "MBC5+RAM+BATTERY",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(k))
}

// HasBattery reports whether the controller keeps its RAM across sessions.
func (k Kind) HasBattery() bool {
	switch k {
	case KindMBC1RAMBattery, KindMBC2Battery, KindMBC3RAMBattery, KindMBC5RAMBattery:
		return true
	}
	return false
}

// romSizes maps the 0x148 code to the number of 16 KiB banks.
var romSizes = map[uint8]int{
	0x00: 2,
	0x01: 4,
	0x02: 8,
	0x03: 16,
	0x04: 32,
	0x05: 64,
	0x06: 128,
	0x07: 256,
	0x08: 512,
	0x52: 72,
	0x53: 80,
	0x54: 96,
}

// ramSizes maps the 0x149 code to a size in bytes.
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 2 * 1024,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// Header is the metadata block every cartridge carries at 0x100-0x14F.
type Header struct {
	Title    string
	Kind     Kind
	ROMBanks int
	RAMSize  int
}

// ROMSize is the declared ROM size in bytes.
func (h Header) ROMSize() int {
	return h.ROMBanks * romBankSize
}

func (h Header) String() string {
	return fmt.Sprintf("%q %s rom=%dKiB ram=%dKiB", h.Title, h.Kind, h.ROMSize()/1024, h.RAMSize/1024)
}

// ParseHeader reads the cartridge header out of a ROM image.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerEnd {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortImage, len(data))
	}

	h := Header{
		Title: strings.Trim(string(data[titleAddress:titleEnd+1]), "\x00"),
		Kind:  Kind(data[typeAddress]),
	}

	if _, ok := kindNames[h.Kind]; !ok {
		return h, fmt.Errorf("%w: 0x%02X", ErrUnsupportedType, data[typeAddress])
	}

	banks, ok := romSizes[data[romSizeAddress]]
	if !ok {
		return h, fmt.Errorf("%w: 0x%02X", ErrUnknownROMSize, data[romSizeAddress])
	}
	h.ROMBanks = banks

	ram, ok := ramSizes[data[ramSizeAddress]]
	if !ok {
		return h, fmt.Errorf("%w: 0x%02X", ErrUnknownRAMSize, data[ramSizeAddress])
	}
	h.RAMSize = ram
	if h.Kind == KindMBC2Battery {
		h.RAMSize = mbc2RAMSize
	}

	return h, nil
}
