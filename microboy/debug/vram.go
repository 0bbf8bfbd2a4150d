package debug

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/valerio/go-microboy/microboy/bit"
	"github.com/valerio/go-microboy/microboy/video"
)

const (
	vramBase     = 0x8000
	tileDataSize = 16
	tilePixels   = 8

	// TileCount is the number of tiles in the three VRAM tile blocks.
	TileCount = 384
	// TilesPerRow is the width of a tile sheet, in tiles.
	TilesPerRow = 16
	// TileRows is the height of a tile sheet, in tiles.
	TileRows = TileCount / TilesPerRow
)

// MemoryReader is the read-only bus view the VRAM tools need.
type MemoryReader interface {
	Read(address uint16) uint8
}

// Tile is one decoded 8x8 tile of raw colour indices, before BGP is applied.
type Tile [tilePixels][tilePixels]uint8

// ReadTile decodes tile index (0-383) from 8000-97FF.
func ReadTile(r MemoryReader, index int) Tile {
	var t Tile
	base := uint16(vramBase + index*tileDataSize)
	for y := range tilePixels {
		lo := r.Read(base + uint16(y*2))
		hi := r.Read(base + uint16(y*2) + 1)
		for x := range tilePixels {
			shift := uint8(7 - x)
			t[y][x] = bit.Value(shift, hi)<<1 | bit.Value(shift, lo)
		}
	}
	return t
}

// TileSheet renders every VRAM tile into a 16x24 tile grid.
func TileSheet(r MemoryReader, p video.Palette, scale int) *image.RGBA {
	w, h := TilesPerRow*tilePixels, TileRows*tilePixels
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range TileCount {
		tile := ReadTile(r, i)
		ox, oy := i%TilesPerRow*tilePixels, i/TilesPerRow*tilePixels
		for y := range tilePixels {
			for x := range tilePixels {
				img.SetRGBA(ox+x, oy+y, p[tile[y][x]])
			}
		}
	}

	if scale <= 1 {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// SaveTileSheetPNGToDir writes the VRAM tile sheet as
// <baseName>_<timestamp>.png and returns the file path.
func SaveTileSheetPNGToDir(r MemoryReader, p video.Palette, scale int, baseName, directory string) (string, error) {
	filePath, err := snapshotPath(baseName, directory)
	if err != nil {
		return "", err
	}
	img := TileSheet(r, p, scale)
	if err := savePNG(img, filePath); err != nil {
		return "", err
	}

	size := img.Bounds().Size()
	slog.Info("Tile sheet saved", "path", filePath, "size", fmt.Sprintf("%dx%d", size.X, size.Y))
	return filePath, nil
}
