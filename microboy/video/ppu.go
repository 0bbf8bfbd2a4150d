// Package video implements the DMG picture processing unit as a pixel FIFO
// pipeline advanced one dot at a time.
package video

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/bit"
	"github.com/valerio/go-microboy/microboy/interrupt"
)

const (
	dotsPerLine   = 456
	linesPerFrame = 154
	vblankLine    = 144

	// fixed dot offsets within a line
	dotModeStart  = 4
	dotTransfer   = dotModeStart + oamEntries*dotsPerOAMEntry
	lastVideoLine = vblankLine - 1
)

// DotsPerFrame is the length of a full frame in dots (T-cycles).
const DotsPerFrame = dotsPerLine * linesPerFrame

// PPU owns VRAM, OAM and the LCD registers. It is advanced by Tick, one
// dot per call, and renders into a back buffer swapped at VBlank.
type PPU struct {
	vram [0x2000]uint8
	oam  [0xA0]uint8

	lcdc uint8
	stat uint8 // interrupt selects only, bits 3-6
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8
	wy   uint8
	wx   uint8

	enabled     bool
	line        int
	dot         int
	mode        Mode
	coincidence bool
	statLine    bool

	oamDot      int
	sprites     spriteBuffer
	fetch       fetcher
	spriteFetch spriteFetch
	fifo        pixelFIFO // background and window
	spriteFIFO  pixelFIFO // shifted out in step with fifo
	x           int
	discard     int

	windowTriggered bool
	windowUsed      bool
	windowLine      int

	front, back *Frame
	buffers     [2]Frame
	frames      uint64

	irq *interrupt.Controller
}

// New returns a PPU with the display disabled, as at power on.
func New(irq *interrupt.Controller) *PPU {
	p := &PPU{irq: irq}
	p.front, p.back = &p.buffers[0], &p.buffers[1]
	return p
}

// Tick advances the PPU by one dot.
func (p *PPU) Tick() {
	if !p.enabled {
		return
	}

	p.schedule()
	switch p.mode {
	case ModeOAMSearch:
		p.oamStep()
	case ModeTransfer:
		p.transferStep()
	}
	p.updateStatLine()

	p.dot++
	if p.dot == dotsPerLine {
		p.dot = 0
		p.endLine()
	}
}

// schedule applies the events fixed to the current dot of the line.
func (p *PPU) schedule() {
	switch {
	case p.line == 0:
		switch p.dot {
		case 0:
			p.ly = 0
			p.compareLYC()
		case dotModeStart:
			p.startOAMSearch()
		case dotTransfer:
			p.startTransfer()
		}
	case p.line <= lastVideoLine:
		switch p.dot {
		case 0:
			p.ly = uint8(p.line)
		case dotModeStart:
			p.compareLYC()
			p.startOAMSearch()
		case dotTransfer:
			p.startTransfer()
		}
	case p.line == vblankLine:
		switch p.dot {
		case 0:
			p.ly = vblankLine
		case dotModeStart:
			p.startVBlank()
		}
	case p.line < linesPerFrame-1:
		switch p.dot {
		case 0:
			p.ly = uint8(p.line)
		case dotModeStart:
			p.compareLYC()
		}
	default:
		// LY reads 0 for most of the last line
		switch p.dot {
		case 0:
			p.ly = uint8(p.line)
		case dotModeStart:
			p.ly = 0
			p.compareLYC()
		}
	}
}

func (p *PPU) endLine() {
	if p.windowUsed {
		p.windowLine++
		p.windowUsed = false
	}
	p.line++
	if p.line == linesPerFrame {
		p.line = 0
	}
}

func (p *PPU) compareLYC() {
	p.coincidence = p.ly == p.lyc
}

func (p *PPU) startOAMSearch() {
	p.mode = ModeOAMSearch
	p.oamDot = 0
	p.sprites.clear()
	if p.ly == p.wy {
		p.windowTriggered = true
	}
}

func (p *PPU) startTransfer() {
	p.mode = ModeTransfer
	p.fifo.clear()
	p.spriteFIFO.clear()
	p.fetch.reset(false)
	p.spriteFetch = spriteFetch{}
	p.x = 0
	p.discard = int(p.scx % 8)
}

func (p *PPU) startVBlank() {
	p.mode = ModeVBlank
	p.irq.Request(addr.VBlankInterrupt)
	p.compareLYC()
	p.windowLine = 0
	p.windowTriggered = false
	p.front, p.back = p.back, p.front
	p.frames++
}

// transferStep runs one dot of the pixel pipeline.
func (p *PPU) transferStep() {
	switch {
	case p.spriteFetch.active:
		p.spriteStep()
	case p.windowStarts():
		p.fifo.clear()
		p.fetch.reset(true)
		p.windowUsed = true
		p.fetchStep()
	case p.fifo.len() >= 8:
		if p.discard > 0 {
			p.fifo.pop()
			p.discard--
			p.fetchStep()
			break
		}
		if bit.IsSet(lcdcSpriteEnable, p.lcdc) {
			if s, ok := p.sprites.take(p.x); ok {
				p.startSpriteFetch(s)
				p.spriteStep()
				break
			}
		}
		var sp pixel
		if p.spriteFIFO.len() > 0 {
			sp = p.spriteFIFO.pop()
		}
		p.back.Set(p.x, int(p.ly), p.resolve(p.fifo.pop().color, sp))
		p.x++
		p.fetchStep()
	default:
		p.fetchStep()
	}

	if p.x == Width {
		p.mode = ModeHBlank
		p.sprites.clear()
	}
}

func (p *PPU) windowStarts() bool {
	return bit.IsSet(lcdcWindowEnable, p.lcdc) &&
		p.windowTriggered &&
		!p.fetch.window &&
		p.discard == 0 &&
		p.x+7 >= int(p.wx)
}

// resolve mixes a background colour index with the sprite pixel shifted out
// alongside it and returns the shade.
func (p *PPU) resolve(bg uint8, sp pixel) uint8 {
	if !bit.IsSet(lcdcBGEnable, p.lcdc) {
		bg = 0
	}

	switch {
	case sp.color == 0:
		return palette(p.bgp, bg)
	case sp.bgPriority && bg != 0:
		return palette(p.bgp, bg)
	case sp.source == sourceOBP1:
		return palette(p.obp1, sp.color)
	}
	return palette(p.obp0, sp.color)
}

// updateStatLine requests an LCDSTAT interrupt on a rising edge of the
// combined STAT sources.
func (p *PPU) updateStatLine() {
	line := (p.mode == ModeHBlank && bit.IsSet(statHBlankIRQ, p.stat)) ||
		(p.mode == ModeVBlank && bit.IsSet(statVBlankIRQ, p.stat)) ||
		(p.mode == ModeOAMSearch && bit.IsSet(statOAMIRQ, p.stat)) ||
		(p.coincidence && bit.IsSet(statCoincideIRQ, p.stat))

	if line && !p.statLine {
		p.irq.Request(addr.LCDSTATInterrupt)
	}
	p.statLine = line
}

func (p *PPU) setLCDC(value uint8) {
	on := bit.IsSet(lcdcDisplay, value)
	p.lcdc = value

	switch {
	case p.enabled && !on:
		if p.mode != ModeVBlank {
			slog.Warn("LCD disabled outside VBlank", "ly", p.ly, "mode", p.mode.String())
		}
		p.enabled = false
		p.ly = 0
		p.line = 0
		p.dot = 0
		p.mode = ModeHBlank
		p.statLine = false
		p.windowLine = 0
		p.windowTriggered = false
		p.windowUsed = false
		p.sprites.clear()
		p.front.Clear()
		p.back.Clear()
	case !p.enabled && on:
		p.enabled = true
		p.line = 0
		p.dot = 0
	}
}

// Read implements memory.Device for VRAM, OAM and the LCD registers.
func (p *PPU) Read(address uint16) uint8 {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		return p.vram[address-addr.VRAMStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return p.oam[address-addr.OAMStart]
	}

	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		v := 0x80 | p.stat | uint8(p.mode)
		return bit.SetTo(statCoincidence, v, p.coincidence)
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	}
	slog.Warn("Unmapped video read", "addr", fmt.Sprintf("0x%04X", address))
	return 0xFF
}

// Write implements memory.Device for VRAM, OAM and the LCD registers.
func (p *PPU) Write(address uint16, value uint8) {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		p.vram[address-addr.VRAMStart] = value
		return
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		p.oam[address-addr.OAMStart] = value
		return
	}

	switch address {
	case addr.LCDC:
		p.setLCDC(value)
	case addr.STAT:
		p.stat = value & statWritableMask
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		slog.Debug("Ignored write to LY", "value", value)
	case addr.LYC:
		p.lyc = value
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	default:
		slog.Warn("Unmapped video write", "addr", fmt.Sprintf("0x%04X", address))
	}
}

// Frame returns a copy of the last completed frame.
func (p *PPU) Frame() *Frame {
	f := *p.front
	return &f
}

// Frames returns how many frames have been completed since power on.
func (p *PPU) Frames() uint64 {
	return p.frames
}

// Enabled reports whether the display is on.
func (p *PPU) Enabled() bool {
	return p.enabled
}

// Mode returns the current PPU mode.
func (p *PPU) Mode() Mode {
	return p.mode
}

// LY returns the current value of the LY register.
func (p *PPU) LY() uint8 {
	return p.ly
}

// Dot returns the position within the current line.
func (p *PPU) Dot() int {
	return p.dot
}

// WindowLine returns the internal window line counter.
func (p *PPU) WindowLine() int {
	return p.windowLine
}

// VRAM exposes video memory for debug views. Callers must not modify it.
func (p *PPU) VRAM() []uint8 {
	return p.vram[:]
}
