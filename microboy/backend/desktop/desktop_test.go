package desktop

import (
	"log/slog"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
)

func keySet(keys ...ebiten.Key) func(ebiten.Key) bool {
	set := map[ebiten.Key]bool{}
	for _, k := range keys {
		set[k] = true
	}
	return func(k ebiten.Key) bool { return set[k] }
}

func TestKeyEvents(t *testing.T) {
	testCases := []struct {
		desc     string
		pressed  []ebiten.Key
		released []ebiten.Key
		want     []backend.InputEvent
	}{
		{
			desc:    "joypad press",
			pressed: []ebiten.Key{ebiten.KeyZ},
			want:    []backend.InputEvent{{Action: action.GBButtonA, Type: event.Press}},
		},
		{
			desc:     "joypad release",
			released: []ebiten.Key{ebiten.KeyArrowLeft},
			want:     []backend.InputEvent{{Action: action.GBDPadLeft, Type: event.Release}},
		},
		{
			desc:     "emulator keys only report presses",
			pressed:  []ebiten.Key{ebiten.KeyF9},
			released: []ebiten.Key{ebiten.KeySpace},
			want:     []backend.InputEvent{{Action: action.EmulatorSnapshot, Type: event.Press}},
		},
		{
			desc:    "unmapped keys are ignored",
			pressed: []ebiten.Key{ebiten.KeyK},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := keyEvents(keySet(tc.pressed...), keySet(tc.released...))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHandleLocal(t *testing.T) {
	d := New()
	d.logLevel = new(slog.LevelVar)

	events := []backend.InputEvent{
		{Action: action.DebugLogLevelIncrease, Type: event.Press},
		{Action: action.GBButtonB, Type: event.Press},
		{Action: action.DebugLogLevelIncrease, Type: event.Press},
	}
	out := d.handleLocal(events)
	assert.Equal(t, []backend.InputEvent{{Action: action.GBButtonB, Type: event.Press}}, out)
	assert.Equal(t, slog.LevelDebug, d.logLevel.Level(), "clamped at debug")

	for range 4 {
		d.handleLocal([]backend.InputEvent{{Action: action.DebugLogLevelDecrease, Type: event.Press}})
	}
	assert.Equal(t, slog.LevelError, d.logLevel.Level())
}
