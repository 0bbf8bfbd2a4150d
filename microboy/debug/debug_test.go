package debug

import (
	"bytes"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-microboy/microboy/audio"
	"github.com/valerio/go-microboy/microboy/cpu"
	"github.com/valerio/go-microboy/microboy/video"
)

type flatBus [0x10000]uint8

func (b *flatBus) Read(address uint16) uint8         { return b[address] }
func (b *flatBus) Write(address uint16, value uint8) { b[address] = value }

func testFrame() *video.Frame {
	f := &video.Frame{}
	for y := range video.Height {
		for x := range video.Width {
			f.Set(x, y, uint8(x/8+y/8))
		}
	}
	return f
}

func TestSaveFramePNG(t *testing.T) {
	testCases := []struct {
		desc  string
		scale int
	}{
		{desc: "native", scale: 1},
		{desc: "zero scale is native", scale: 0},
		{desc: "scaled x3", scale: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			frame := testFrame()
			path := filepath.Join(t.TempDir(), "frame.png")
			require.NoError(t, SaveFramePNG(frame, video.GreyPalette, tc.scale, path))

			file, err := os.Open(path)
			require.NoError(t, err)
			defer file.Close()
			img, err := png.Decode(file)
			require.NoError(t, err)

			scale := max(tc.scale, 1)
			assert.Equal(t, video.Width*scale, img.Bounds().Dx())
			assert.Equal(t, video.Height*scale, img.Bounds().Dy())

			// every scaled pixel keeps the colour of its source pixel
			for _, pt := range [][2]int{{0, 0}, {17, 9}, {159, 143}, {80, 72}} {
				want := video.GreyPalette[frame.At(pt[0], pt[1])]
				r, g, b, _ := img.At(pt[0]*scale+scale-1, pt[1]*scale+scale-1).RGBA()
				assert.Equal(t, want.R, uint8(r>>8))
				assert.Equal(t, want.G, uint8(g>>8))
				assert.Equal(t, want.B, uint8(b>>8))
			}
		})
	}
}

func TestSaveFramePNG_NilFrame(t *testing.T) {
	err := SaveFramePNG(nil, video.GreyPalette, 1, filepath.Join(t.TempDir(), "x.png"))
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestSaveFramePNGToDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	path, err := SaveFramePNGToDir(testFrame(), video.GreenPalette, 2, "tetris", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "tetris_"))
	assert.FileExists(t, path)
}

func TestWAVRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := NewWAVRecorder(path)
	require.NoError(t, err)

	samples := []float32{0, 0.5, -0.5, 1, -1, 2, -2}
	require.NoError(t, rec.Write(samples))
	require.NoError(t, rec.Write(nil))
	assert.Equal(t, len(samples), rec.Samples())
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close(), "close is idempotent")
	assert.ErrorIs(t, rec.Write(samples), os.ErrClosed)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	dec := wav.NewDecoder(file)
	require.True(t, dec.IsValidFile())
	assert.Equal(t, uint32(audio.SampleRate), dec.SampleRate)
	assert.Equal(t, uint16(1), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 16384, -16384, 32767, -32767, 32767, -32767}, buf.Data)
}

func TestDoctorLine(t *testing.T) {
	bus := &flatBus{}
	copy(bus[0x0100:], []uint8{0x00, 0xC3, 0x13, 0x02})

	line := DoctorLine(cpu.PostBoot, bus)
	assert.Equal(t, "A:01 F:B0 B:00 C:13 D:00 E:D8 H:01 L:4D SP:FFFE PC:0100 PCMEM:00,C3,13,02", line)
}

func TestTraceWriter(t *testing.T) {
	bus := &flatBus{}
	var out bytes.Buffer
	tw := NewTraceWriter(&out)

	regs := cpu.PostBoot
	tw.Trace(regs, bus)
	regs.PC++
	tw.Trace(regs, bus)
	require.NoError(t, tw.Flush())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, 2, tw.Lines())
	assert.Contains(t, lines[1], "PC:0101")
}

func TestLogTracer(t *testing.T) {
	bus := &flatBus{}
	copy(bus[0x0100:], []uint8{0xC3, 0x50, 0x01}) // JP $0150

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	LogTracer(logger)(cpu.PostBoot, bus)

	assert.Contains(t, out.String(), "pc=0x0100")
	assert.Contains(t, out.String(), "$0150")
}

func TestReadTile(t *testing.T) {
	bus := &flatBus{}
	// tile 1, row 0: lo=0b10100000 hi=0b11000000
	bus[0x8010] = 0xA0
	bus[0x8011] = 0xC0
	// last tile, last row fully set
	bus[0x97FE] = 0xFF
	bus[0x97FF] = 0xFF

	tile := ReadTile(bus, 1)
	assert.Equal(t, [8]uint8{3, 2, 1, 0, 0, 0, 0, 0}, tile[0])
	assert.Equal(t, [8]uint8{}, tile[1])

	last := ReadTile(bus, TileCount-1)
	assert.Equal(t, [8]uint8{3, 3, 3, 3, 3, 3, 3, 3}, last[7])
}

func TestTileSheet(t *testing.T) {
	bus := &flatBus{}
	bus[0x8010] = 0x80
	bus[0x8011] = 0x80

	img := TileSheet(bus, video.GreyPalette, 2)
	assert.Equal(t, TilesPerRow*8*2, img.Bounds().Dx())
	assert.Equal(t, TileRows*8*2, img.Bounds().Dy())
	assert.Equal(t, video.GreyPalette[3], img.RGBAAt(16, 0))
	assert.Equal(t, video.GreyPalette[3], img.RGBAAt(17, 1))
	assert.Equal(t, video.GreyPalette[0], img.RGBAAt(18, 0))

	path, err := SaveTileSheetPNGToDir(bus, video.GreyPalette, 1, "tiles", t.TempDir())
	require.NoError(t, err)
	assert.FileExists(t, path)
}
