package headless_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/backend/headless"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/video"
)

// fakeAudio hands out a fixed batch of samples per drain.
type fakeAudio struct {
	batch  []float32
	drains int
}

func (f *fakeAudio) Drain() []float32 {
	f.drains++
	return f.batch
}
func (f *fakeAudio) ToggleChannel(int)      {}
func (f *fakeAudio) SoloChannel(int)        {}
func (f *fakeAudio) UnmuteAll()             {}
func (f *fakeAudio) ChannelStatus() [4]bool { return [4]bool{} }

func TestHeadlessBackend(t *testing.T) {
	t.Run("normal operation", func(t *testing.T) {
		// Create headless backend for 3 frames
		h := headless.New(3, headless.SnapshotConfig{}, "")
		require.NoError(t, h.Init(backend.Config{Title: "Test"}))

		frame := &video.Frame{}
		for i := 0; i < 3; i++ {
			events, err := h.Update(frame)
			require.NoError(t, err)

			if i < 2 {
				// Should not quit before reaching max frames
				assert.Empty(t, events)
			} else {
				// Should send quit event on last frame
				require.Len(t, events, 1)
				assert.Equal(t, action.EmulatorQuit, events[0].Action)
				assert.Equal(t, event.Press, events[0].Type)
			}
		}
		assert.Equal(t, 3, h.Frames())
		assert.NoError(t, h.Cleanup())
	})

	t.Run("snapshots", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := headless.CreateSnapshotConfig(2, dir, "/roms/tetris.gb", 2)
		require.NoError(t, err)
		assert.Equal(t, "tetris", cfg.ROMName)

		h := headless.New(5, cfg, "")
		require.NoError(t, h.Init(backend.Config{}))
		frame := &video.Frame{}
		for range 5 {
			_, err := h.Update(frame)
			require.NoError(t, err)
		}

		// frames 2 and 4, plus the final frame 5
		snaps := h.Snapshots()
		require.Len(t, snaps, 3)
		for _, path := range snaps {
			assert.FileExists(t, path)
			assert.True(t, strings.HasPrefix(filepath.Base(path), "tetris_frame_"))
		}
	})

	t.Run("wav recording", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.wav")
		src := &fakeAudio{batch: []float32{0.5, -0.5, 0.25}}

		h := headless.New(4, headless.SnapshotConfig{}, path)
		require.NoError(t, h.Init(backend.Config{Audio: src}))
		for range 4 {
			_, err := h.Update(&video.Frame{})
			require.NoError(t, err)
		}
		require.NoError(t, h.Cleanup())
		assert.Equal(t, 4, src.drains)

		file, err := os.Open(path)
		require.NoError(t, err)
		defer file.Close()
		dec := wav.NewDecoder(file)
		buf, err := dec.FullPCMBuffer()
		require.NoError(t, err)
		assert.Len(t, buf.Data, 12)
	})
}

func TestCreateSnapshotConfig_Disabled(t *testing.T) {
	cfg, err := headless.CreateSnapshotConfig(0, "", "rom.gb", 1)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.Directory)
}

func TestHeadlessImplementsBackend(t *testing.T) {
	// Compile-time check that headless.Backend implements backend.Backend
	var _ backend.Backend = (*headless.Backend)(nil)
}
