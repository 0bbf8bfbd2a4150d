package video

import (
	"image"
	"image/color"
)

const (
	// Width of the LCD in pixels.
	Width = 160
	// Height of the LCD in pixels.
	Height = 144
)

// Frame holds one screen worth of shades, 0 (lightest) to 3 (darkest), after
// the palettes have been applied.
type Frame struct {
	Pix [Width * Height]uint8
}

// At returns the shade at (x, y).
func (f *Frame) At(x, y int) uint8 {
	return f.Pix[y*Width+x]
}

// Set stores the shade at (x, y).
func (f *Frame) Set(x, y int, shade uint8) {
	f.Pix[y*Width+x] = shade & 0x03
}

// Clear sets every pixel to shade 0.
func (f *Frame) Clear() {
	f.Pix = [Width * Height]uint8{}
}

// Palette maps the four shades to host colours.
type Palette [4]color.RGBA

var (
	// GreyPalette is a neutral grey ramp.
	GreyPalette = Palette{
		{0xFF, 0xFF, 0xFF, 0xFF},
		{0x98, 0x98, 0x98, 0xFF},
		{0x4C, 0x4C, 0x4C, 0xFF},
		{0x00, 0x00, 0x00, 0xFF},
	}

	// GreenPalette approximates the original DMG screen.
	GreenPalette = Palette{
		{0x9B, 0xBC, 0x0F, 0xFF},
		{0x8B, 0xAC, 0x0F, 0xFF},
		{0x30, 0x62, 0x30, 0xFF},
		{0x0F, 0x38, 0x0F, 0xFF},
	}
)

// RGBA renders the frame into a new image using p.
func (f *Frame) RGBA(p Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	f.Fill(img, p)
	return img
}

// Fill writes the frame into img, which must be at least Width x Height.
func (f *Frame) Fill(img *image.RGBA, p Palette) {
	for y := range Height {
		row := img.Pix[y*img.Stride:]
		for x := range Width {
			c := p[f.Pix[y*Width+x]&0x03]
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
		}
	}
}
