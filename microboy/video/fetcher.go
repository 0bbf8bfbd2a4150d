package video

import (
	"github.com/valerio/go-microboy/microboy/addr"
	"github.com/valerio/go-microboy/microboy/bit"
)

type fetcherState uint8

const (
	fetchTile fetcherState = iota
	fetchDataLow
	fetchDataHigh
	fetchPush
)

func (s fetcherState) String() string {
	switch s {
	case fetchTile:
		return "GetTile"
	case fetchDataLow:
		return "GetDataLow"
	case fetchDataHigh:
		return "GetDataHigh"
	case fetchPush:
		return "Push"
	}
	return "Unknown"
}

// dotsPerFetchStep is how long each of the first three fetcher states takes.
const dotsPerFetchStep = 2

// fetcher produces background and window pixels, one tile row at a time.
type fetcher struct {
	state  fetcherState
	dots   int
	fetchX int
	window bool

	tile     uint8
	low      uint8
	high     uint8
	tileAddr uint16
}

func (f *fetcher) reset(window bool) {
	*f = fetcher{window: window}
}

// spriteFetch loads one sprite row while the background fetcher waits.
type spriteFetch struct {
	active bool
	dots   int
	sprite sprite
	low    uint8
	high   uint8
}

// tileDataAddress resolves a tile index to the address of its first byte.
func (p *PPU) tileDataAddress(tile uint8) uint16 {
	if bit.IsSet(lcdcTileData, p.lcdc) {
		return addr.TileData0 + uint16(tile)*16
	}
	return uint16(int(addr.TileData2) + int(int8(tile))*16)
}

func (p *PPU) vramRead(address uint16) uint8 {
	return p.vram[address-addr.VRAMStart]
}

// tileMapAddress returns the map entry the fetcher reads next.
func (p *PPU) tileMapAddress() uint16 {
	f := &p.fetch
	if f.window {
		base := addr.TileMap0
		if bit.IsSet(lcdcWindowMap, p.lcdc) {
			base = addr.TileMap1
		}
		return base + uint16(p.windowLine/8)*32 + uint16(f.fetchX&31)
	}

	base := addr.TileMap0
	if bit.IsSet(lcdcBGMap, p.lcdc) {
		base = addr.TileMap1
	}
	y := uint16(p.scy + p.ly)
	x := (uint16(p.scx/8) + uint16(f.fetchX)) & 31
	return base + (y/8)*32 + x
}

// tileRow is the byte offset of the current row within a tile.
func (p *PPU) tileRow() uint16 {
	if p.fetch.window {
		return uint16(p.windowLine%8) * 2
	}
	return uint16((p.scy+p.ly)%8) * 2
}

// fetchStep advances the background fetcher by one dot.
func (p *PPU) fetchStep() {
	f := &p.fetch
	if f.state == fetchPush {
		if p.fifo.len() > 8 {
			return
		}
		for i := range 8 {
			c := bit.Value(uint8(7-i), f.low) | bit.Value(uint8(7-i), f.high)<<1
			p.fifo.push(pixel{color: c})
		}
		f.fetchX++
		f.state = fetchTile
		return
	}

	f.dots++
	if f.dots < dotsPerFetchStep {
		return
	}
	f.dots = 0

	switch f.state {
	case fetchTile:
		f.tile = p.vramRead(p.tileMapAddress())
		f.tileAddr = p.tileDataAddress(f.tile) + p.tileRow()
		f.state = fetchDataLow
	case fetchDataLow:
		f.low = p.vramRead(f.tileAddr)
		f.state = fetchDataHigh
	case fetchDataHigh:
		f.high = p.vramRead(f.tileAddr + 1)
		f.state = fetchPush
	}
}

func (p *PPU) startSpriteFetch(s sprite) {
	p.spriteFetch = spriteFetch{active: true, sprite: s}
}

func (p *PPU) spriteRowAddress(s sprite) uint16 {
	height := p.spriteHeight()
	row := int(p.ly) + 16 - int(s.y)
	if s.flipY() {
		row = height - 1 - row
	}
	tile := s.tile
	if height == 16 {
		tile &^= 0x01
	}
	return addr.TileData0 + uint16(tile)*16 + uint16(row)*2
}

// spriteStep advances the sprite fetch by one dot: the low byte is read on
// dot 2, the high byte on dot 4 and the row is mixed on dot 6.
func (p *PPU) spriteStep() {
	sf := &p.spriteFetch
	sf.dots++
	switch sf.dots {
	case 2:
		sf.low = p.vramRead(p.spriteRowAddress(sf.sprite))
	case 4:
		sf.high = p.vramRead(p.spriteRowAddress(sf.sprite) + 1)
	case 6:
		p.mixSprite()
		sf.active = false
	}
}

// mixSprite merges the fetched sprite row into the sprite FIFO. Opaque
// pixels already queued belong to an earlier sprite and win.
func (p *PPU) mixSprite() {
	sf := &p.spriteFetch
	s := sf.sprite

	var row [8]uint8
	for i := range 8 {
		b := uint8(7 - i)
		if s.flipX() {
			b = uint8(i)
		}
		row[i] = bit.Value(b, sf.low) | bit.Value(b, sf.high)<<1
	}

	// sprites hanging off the left edge lose their leading pixels
	skip := 0
	if s.x < 8 {
		skip = 8 - int(s.x)
	}

	for p.spriteFIFO.len() < 8-skip {
		p.spriteFIFO.push(pixel{})
	}
	for i := skip; i < 8; i++ {
		dst := p.spriteFIFO.at(i - skip)
		if row[i] == 0 || dst.color != 0 {
			continue
		}
		*dst = pixel{
			color:      row[i],
			source:     s.palette(),
			bgPriority: s.behindBG(),
		}
	}
}
