// Package desktop shows the emulator in a window using ebiten, with audio
// through ebiten's audio player.
package desktop

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/valerio/go-microboy/microboy/audio"
	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/input"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/video"
)

const (
	defaultScale = 3
	// streamLimit bounds the queued audio to a quarter second.
	streamLimit      = audio.SampleRate / 4
	playerBufferSize = 50 * time.Millisecond
	stereo           = 2
)

// Backend implements backend.Backend and backend.Runner on top of ebiten.
// ebiten owns the main loop, so frames are produced from inside its Update.
type Backend struct {
	config   backend.Config
	logLevel *slog.LevelVar

	img *image.RGBA
	tex *ebiten.Image

	stream *backend.SampleStream
	player *ebaudio.Player
}

func New() *Backend {
	return &Backend{}
}

func (d *Backend) Init(config backend.Config) error {
	d.config = config
	if d.config.Scale <= 0 {
		d.config.Scale = defaultScale
	}
	if d.config.Palette == (video.Palette{}) {
		d.config.Palette = video.GreenPalette
	}

	d.logLevel = new(slog.LevelVar)
	d.logLevel.Set(config.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: d.logLevel})))

	d.img = image.NewRGBA(image.Rect(0, 0, video.Width, video.Height))

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(video.Width*d.config.Scale, video.Height*d.config.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if config.Audio != nil {
		if err := d.initAudio(); err != nil {
			slog.Warn("Audio disabled", "error", err)
		}
	}

	slog.Info("Desktop backend initialized", "scale", d.config.Scale)
	return nil
}

func (d *Backend) initAudio() error {
	ctx := ebaudio.CurrentContext()
	if ctx == nil {
		ctx = ebaudio.NewContext(audio.SampleRate)
	}
	if ctx.SampleRate() != audio.SampleRate {
		return fmt.Errorf("audio context runs at %d Hz", ctx.SampleRate())
	}

	d.stream = backend.NewSampleStream(stereo, streamLimit)
	player, err := ctx.NewPlayerF32(d.stream)
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	player.SetBufferSize(playerBufferSize)
	player.Play()
	d.player = player
	return nil
}

// Update stores the frame for the next Draw, queues audio and reports the
// keys pressed or released since the previous tick.
func (d *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	if frame != nil {
		frame.Fill(d.img, d.config.Palette)
	}

	if d.config.Audio != nil {
		samples := d.config.Audio.Drain()
		if d.stream != nil {
			d.stream.Push(samples)
		}
	}

	events := keyEvents(inpututil.IsKeyJustPressed, inpututil.IsKeyJustReleased)
	return d.handleLocal(events), nil
}

// handleLocal consumes the actions the backend implements itself.
func (d *Backend) handleLocal(events []backend.InputEvent) []backend.InputEvent {
	out := events[:0]
	for _, ev := range events {
		switch {
		case ev.Action == action.DebugLogLevelIncrease && ev.Type == event.Press:
			d.shiftLogLevel(-4)
		case ev.Action == action.DebugLogLevelDecrease && ev.Type == event.Press:
			d.shiftLogLevel(4)
		case ev.Action == action.DebugLogLevelIncrease, ev.Action == action.DebugLogLevelDecrease:
		default:
			out = append(out, ev)
		}
	}
	return out
}

// shiftLogLevel moves the level by delta, clamped to Debug..Error.
func (d *Backend) shiftLogLevel(delta slog.Level) {
	old := d.logLevel.Level()
	level := max(slog.LevelDebug, min(slog.LevelError, old+delta))
	if level != old {
		d.logLevel.Set(level)
		slog.Warn("Log filter changed", "from", old, "to", level)
	}
}

func (d *Backend) Cleanup() error {
	if d.player != nil {
		return d.player.Close()
	}
	return nil
}

// Run hands the main loop to ebiten. step is called once per tick.
func (d *Backend) Run(step func() error) error {
	err := ebiten.RunGame(&game{backend: d, step: step})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game adapts the backend to ebiten.Game.
type game struct {
	backend *Backend
	step    func() error
}

func (g *game) Update() error {
	if err := g.step(); err != nil {
		if errors.Is(err, backend.ErrQuit) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	d := g.backend
	if d.tex == nil {
		d.tex = ebiten.NewImage(video.Width, video.Height)
	}
	d.tex.WritePixels(d.img.Pix)
	screen.DrawImage(d.tex, nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return video.Width, video.Height
}

// keyNames converts ebiten keys to key names used in default mappings
var keyNames = map[ebiten.Key]string{
	ebiten.KeyZ:          "z",
	ebiten.KeyX:          "x",
	ebiten.KeyEnter:      "Enter",
	ebiten.KeyBackspace:  "Backspace",
	ebiten.KeyArrowUp:    "Up",
	ebiten.KeyArrowDown:  "Down",
	ebiten.KeyArrowLeft:  "Left",
	ebiten.KeyArrowRight: "Right",
	ebiten.KeyW:          "w",
	ebiten.KeyA:          "a",
	ebiten.KeyS:          "s",
	ebiten.KeyD:          "d",
	ebiten.KeySpace:      "Space",
	ebiten.KeyP:          "p",
	ebiten.KeyO:          "o",
	ebiten.KeyR:          "r",
	ebiten.KeyQ:          "q",
	ebiten.KeyEscape:     "Escape",
	ebiten.KeyF1:         "F1",
	ebiten.KeyF2:         "F2",
	ebiten.KeyF3:         "F3",
	ebiten.KeyF4:         "F4",
	ebiten.KeyF9:         "F9",
	ebiten.KeyDigit0:     "0",
	ebiten.KeyDigit1:     "1",
	ebiten.KeyDigit2:     "2",
	ebiten.KeyDigit3:     "3",
	ebiten.KeyDigit4:     "4",
	ebiten.KeyEqual:      "=",
	ebiten.KeyMinus:      "-",
}

// keyEvents reports Press and Release for joypad keys and Press for the
// rest. Keys are visited in a fixed order so events are deterministic.
func keyEvents(justPressed, justReleased func(ebiten.Key) bool) []backend.InputEvent {
	var events []backend.InputEvent
	for key := ebiten.Key(0); key <= ebiten.KeyMax; key++ {
		name, ok := keyNames[key]
		if !ok {
			continue
		}
		act, ok := input.GetDefaultMapping(name)
		if !ok {
			continue
		}
		if justPressed(key) {
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		}
		if act.IsGameBoy() && justReleased(key) {
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	return events
}
