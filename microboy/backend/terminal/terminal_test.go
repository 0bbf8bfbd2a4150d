package terminal

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/cpu"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/video"
)

type fakeDebug struct {
	mem [0x10000]uint8
}

func (f *fakeDebug) Registers() cpu.Registers  { return cpu.PostBoot }
func (f *fakeDebug) Read(address uint16) uint8 { return f.mem[address] }

func newTestBackend(t *testing.T, cfg backend.Config) (*Backend, tcell.SimulationScreen, *time.Time) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	screen := tcell.NewSimulationScreen("UTF-8")
	b := NewWithScreen(screen)
	clock := time.Unix(0, 0)
	b.now = func() time.Time { return clock }

	require.NoError(t, b.Init(cfg))
	screen.SetSize(240, 80)
	t.Cleanup(func() { _ = b.Cleanup() })
	return b, screen, &clock
}

func TestBackend_RendersHalfBlocks(t *testing.T) {
	b, screen, _ := newTestBackend(t, backend.Config{Palette: video.GreyPalette})

	frame := &video.Frame{}
	frame.Set(0, 0, 3) // top pixel black
	frame.Set(0, 1, 0) // bottom pixel white
	_, err := b.Update(frame)
	require.NoError(t, err)

	ch, _, style, _ := screen.GetContent(0, 1)
	assert.Equal(t, '▀', ch)
	fg, bg, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0, 0, 0), fg)
	assert.Equal(t, tcell.NewRGBColor(0xFF, 0xFF, 0xFF), bg)
}

func TestBackend_GameKeys(t *testing.T) {
	b, screen, clock := newTestBackend(t, backend.Config{})
	frame := &video.Frame{}

	screen.InjectKey(tcell.KeyRune, 'z', tcell.ModNone)
	events, err := b.Update(frame)
	require.NoError(t, err)
	assert.Equal(t, []backend.InputEvent{{Action: action.GBButtonA, Type: event.Press}}, events)

	*clock = clock.Add(50 * time.Millisecond)
	events, err = b.Update(frame)
	require.NoError(t, err)
	assert.Equal(t, []backend.InputEvent{{Action: action.GBButtonA, Type: event.Hold}}, events)

	*clock = clock.Add(keyTimeout)
	events, err = b.Update(frame)
	require.NoError(t, err)
	assert.Equal(t, []backend.InputEvent{{Action: action.GBButtonA, Type: event.Release}}, events)
}

func TestBackend_ExclusiveDPad(t *testing.T) {
	b, screen, _ := newTestBackend(t, backend.Config{})

	screen.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyLeft, 0, tcell.ModNone)
	events, err := b.Update(&video.Frame{})
	require.NoError(t, err)
	assert.Equal(t, []backend.InputEvent{{Action: action.GBDPadLeft, Type: event.Press}}, events)
}

func TestBackend_EmulatorKeys(t *testing.T) {
	testCases := []struct {
		desc string
		key  tcell.Key
		r    rune
		want action.Action
	}{
		{desc: "escape quits", key: tcell.KeyEscape, want: action.EmulatorQuit},
		{desc: "ctrl-c quits", key: tcell.KeyCtrlC, want: action.EmulatorQuit},
		{desc: "space pauses", key: tcell.KeyRune, r: ' ', want: action.EmulatorPauseToggle},
		{desc: "F9 snapshot", key: tcell.KeyF9, want: action.EmulatorSnapshot},
		{desc: "F2 toggles channel 2", key: tcell.KeyF2, want: action.AudioToggleChannel2},
		{desc: "3 solos channel 3", key: tcell.KeyRune, r: '3', want: action.AudioSoloChannel3},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			b, screen, _ := newTestBackend(t, backend.Config{})
			screen.InjectKey(tc.key, tc.r, tcell.ModNone)
			events, err := b.Update(&video.Frame{})
			require.NoError(t, err)
			assert.Equal(t, []backend.InputEvent{{Action: tc.want, Type: event.Press}}, events)
		})
	}
}

func TestBackend_LogLevelKeys(t *testing.T) {
	b, screen, _ := newTestBackend(t, backend.Config{LogLevel: slog.LevelInfo})

	screen.InjectKey(tcell.KeyRune, '+', tcell.ModNone)
	events, err := b.Update(&video.Frame{})
	require.NoError(t, err)
	assert.Empty(t, events, "log level keys are handled by the backend")
	assert.Equal(t, slog.LevelDebug, b.LogLevel())

	screen.InjectKey(tcell.KeyRune, '+', tcell.ModNone)
	_, err = b.Update(&video.Frame{})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, b.LogLevel(), "clamped at debug")

	for range 5 {
		screen.InjectKey(tcell.KeyRune, '-', tcell.ModNone)
	}
	_, err = b.Update(&video.Frame{})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, b.LogLevel())
}

func TestBackend_DebugPanel(t *testing.T) {
	dbg := &fakeDebug{}
	copy(dbg.mem[0x0100:], []uint8{0xC3, 0x50, 0x01})
	b, screen, _ := newTestBackend(t, backend.Config{Debug: dbg})

	_, err := b.Update(&video.Frame{})
	require.NoError(t, err)

	cells, width, _ := screen.GetContents()
	var text []rune
	for _, c := range cells {
		if len(c.Runes) > 0 {
			text = append(text, c.Runes[0])
		} else {
			text = append(text, ' ')
		}
	}
	screenText := string(text)
	assert.Contains(t, screenText, "PC: 0100")
	assert.Contains(t, screenText, "> 0100: JP $0150")
	assert.Positive(t, width)
}

func TestLogBuffer(t *testing.T) {
	lb := NewLogBuffer(3)
	assert.Nil(t, lb.GetRecent(10))

	for _, msg := range []string{"a", "b", "c", "d"} {
		lb.Add(LogEntry{Message: msg})
	}
	recent := lb.GetRecent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].Message)
	assert.Equal(t, "b", recent[2].Message)
	assert.Len(t, lb.GetRecent(2), 2)
}

func TestLogBufferHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	logger := slog.New(NewLogBufferHandler(lb, level))

	logger.Debug("hidden")
	logger.With("component", "ppu").WithGroup("lcd").Info("mode", "value", 2)

	recent := lb.GetRecent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "mode component=ppu lcd.value=2", recent[0].Message)

	level.Set(slog.LevelDebug)
	assert.True(t, NewLogBufferHandler(lb, level).Enabled(context.Background(), slog.LevelDebug))
	assert.Contains(t, FormatLogEntry(LogEntry{Level: slog.LevelWarn, Message: "x"}), "[WRN] x")
}
