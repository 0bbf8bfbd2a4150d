package microboy_test

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-microboy/microboy"
	"github.com/valerio/go-microboy/microboy/debug"
	"github.com/valerio/go-microboy/microboy/video"
)

// ROM suites are looked up under MICROBOY_TEST_ROMS, defaulting to
// ../test-roms. Missing ROMs skip their case.
type romTestCase struct {
	name      string
	path      string
	maxFrames int
	// serial: pass when the serial output contains "Passed", fail on "Failed"
	serial bool
}

func romDir() string {
	if dir := os.Getenv("MICROBOY_TEST_ROMS"); dir != "" {
		return dir
	}
	return filepath.Join("..", "test-roms")
}

func romTestCases() []romTestCase {
	cpuInstrs := filepath.Join("blargg", "cpu_instrs", "individual")
	return []romTestCase{
		{name: "01-special", path: filepath.Join(cpuInstrs, "01-special.gb"), maxFrames: 500, serial: true},
		{name: "02-interrupts", path: filepath.Join(cpuInstrs, "02-interrupts.gb"), maxFrames: 500, serial: true},
		{name: "03-op sp,hl", path: filepath.Join(cpuInstrs, "03-op sp,hl.gb"), maxFrames: 500, serial: true},
		{name: "04-op r,imm", path: filepath.Join(cpuInstrs, "04-op r,imm.gb"), maxFrames: 500, serial: true},
		{name: "05-op rp", path: filepath.Join(cpuInstrs, "05-op rp.gb"), maxFrames: 500, serial: true},
		{name: "06-ld r,r", path: filepath.Join(cpuInstrs, "06-ld r,r.gb"), maxFrames: 500, serial: true},
		{name: "07-jr,jp,call,ret,rst", path: filepath.Join(cpuInstrs, "07-jr,jp,call,ret,rst.gb"), maxFrames: 500, serial: true},
		{name: "08-misc instrs", path: filepath.Join(cpuInstrs, "08-misc instrs.gb"), maxFrames: 500, serial: true},
		{name: "09-op r,r", path: filepath.Join(cpuInstrs, "09-op r,r.gb"), maxFrames: 1000, serial: true},
		{name: "10-bit ops", path: filepath.Join(cpuInstrs, "10-bit ops.gb"), maxFrames: 1000, serial: true},
		{name: "11-op a,(hl)", path: filepath.Join(cpuInstrs, "11-op a,(hl).gb"), maxFrames: 1500, serial: true},
		{name: "instr_timing", path: filepath.Join("blargg", "instr_timing", "instr_timing.gb"), maxFrames: 1200, serial: true},
		{name: "dmg-acid2", path: filepath.Join("dmg-acid2", "dmg-acid2.gb"), maxFrames: 10},
	}
}

func TestROMSuites(t *testing.T) {
	for _, tc := range romTestCases() {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(romDir(), tc.path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Skipf("ROM file not found: %s", path)
			}
			if tc.serial {
				runSerialROM(t, path, tc.maxFrames)
				return
			}
			runGoldenROM(t, tc.name, path, tc.maxFrames)
		})
	}
}

func runSerialROM(t *testing.T, path string, maxFrames int) {
	var out bytes.Buffer
	emu, err := microboy.New(microboy.Config{ROMPath: path, SerialOut: &out})
	require.NoError(t, err)

	for range maxFrames {
		require.NoError(t, emu.RunUntilFrame())
		switch text := out.String(); {
		case strings.Contains(text, "Passed"):
			return
		case strings.Contains(text, "Failed"):
			t.Fatalf("ROM reported failure:\n%s", text)
		}
	}
	t.Fatalf("no result after %d frames, serial output:\n%s", maxFrames, out.String())
}

// runGoldenROM compares the final frame against testdata/<name>.bin. Setting
// MICROBOY_GENERATE_GOLDEN=true rewrites the reference files instead.
func runGoldenROM(t *testing.T, name, path string, frames int) {
	emu, err := microboy.New(microboy.Config{ROMPath: path})
	require.NoError(t, err)
	for range frames {
		require.NoError(t, emu.RunUntilFrame())
	}

	frame := emu.Frame()
	data := frame.Pix[:]
	hash := fmt.Sprintf("%x", md5.Sum(data))

	screenPath := filepath.Join("testdata", name+".bin")
	snapshotDir := filepath.Join("testdata", "snapshots")

	if os.Getenv("MICROBOY_GENERATE_GOLDEN") == "true" {
		require.NoError(t, os.MkdirAll(snapshotDir, 0o755))
		require.NoError(t, os.WriteFile(screenPath, data, 0o644))
		require.NoError(t, debug.SaveFramePNG(frame, video.GreyPalette, 1, filepath.Join(snapshotDir, name+".png")))
		t.Logf("Reference files generated - hash: %s", hash)
		return
	}

	expected, err := os.ReadFile(screenPath)
	if os.IsNotExist(err) {
		t.Skipf("no reference frame at %s, run with MICROBOY_GENERATE_GOLDEN=true", screenPath)
	}
	require.NoError(t, err)

	if !assert.Equal(t, fmt.Sprintf("%x", md5.Sum(expected)), hash, "frame differs from reference") {
		actual := filepath.Join(snapshotDir, name+"_actual.png")
		if err := debug.SaveFramePNG(frame, video.GreyPalette, 1, actual); err == nil {
			t.Logf("actual frame saved to %s", actual)
		}
	}
}
