package video

import "github.com/valerio/go-microboy/microboy/bit"

const (
	oamEntries      = 40
	maxLineSprites  = 10
	dotsPerOAMEntry = 2
)

// sprite is one OAM entry as stored, y and x still carry their +16/+8
// offsets.
type sprite struct {
	y, x  uint8
	tile  uint8
	flags uint8
	index int
}

func (s sprite) palette() paletteSource {
	if bit.IsSet(4, s.flags) {
		return sourceOBP1
	}
	return sourceOBP0
}

func (s sprite) flipX() bool    { return bit.IsSet(5, s.flags) }
func (s sprite) flipY() bool    { return bit.IsSet(6, s.flags) }
func (s sprite) behindBG() bool { return bit.IsSet(7, s.flags) }

// spriteBuffer holds the sprites selected for the current line in OAM order.
type spriteBuffer struct {
	entries [maxLineSprites]sprite
	count   int
}

func (b *spriteBuffer) clear() {
	b.count = 0
}

func (b *spriteBuffer) add(s sprite) bool {
	if b.count == maxLineSprites {
		return false
	}
	b.entries[b.count] = s
	b.count++
	return true
}

// take removes and returns the first sprite that starts at or before
// screen column x.
func (b *spriteBuffer) take(x int) (sprite, bool) {
	for i := range b.count {
		s := b.entries[i]
		if int(s.x) <= x+8 {
			copy(b.entries[i:b.count], b.entries[i+1:b.count])
			b.count--
			return s, true
		}
	}
	return sprite{}, false
}

func (p *PPU) spriteHeight() int {
	if bit.IsSet(lcdcSpriteSize, p.lcdc) {
		return 16
	}
	return 8
}

func (p *PPU) readSprite(index int) sprite {
	base := index * 4
	return sprite{
		y:     p.oam[base],
		x:     p.oam[base+1],
		tile:  p.oam[base+2],
		flags: p.oam[base+3],
		index: index,
	}
}

// oamStep advances the OAM search by one dot. Entries are tested on the
// second dot of their slot.
func (p *PPU) oamStep() {
	p.oamDot++
	if p.oamDot%dotsPerOAMEntry != 0 {
		return
	}
	index := p.oamDot/dotsPerOAMEntry - 1
	if index >= oamEntries {
		return
	}

	s := p.readSprite(index)
	line := int(p.ly) + 16
	if s.x > 0 && int(s.y) <= line && line < int(s.y)+p.spriteHeight() {
		p.sprites.add(s)
	}
}
