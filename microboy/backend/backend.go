// Package backend defines the host side of the emulator: rendering, input
// and audio output.
package backend

import (
	"errors"
	"log/slog"

	"github.com/valerio/go-microboy/microboy/audio"
	"github.com/valerio/go-microboy/microboy/cpu"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/video"
)

// Backend represents a complete emulator platform (rendering + input + audio)
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, window, files)
// - Translating platform-specific input events to Actions
// - Playing or recording the audio drained from Config.Audio
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config Config) error

	// Update renders the frame, drains pending audio and returns the input
	// events collected since the previous call.
	Update(frame *video.Frame) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// Runner is implemented by backends that must own the main loop, such as
// windowing toolkits that need the main thread. Run calls step once per host
// frame until step returns an error; ErrQuit ends the loop cleanly.
type Runner interface {
	Run(step func() error) error
}

// ErrQuit is returned by a step function to end a Runner loop.
var ErrQuit = errors.New("quit requested")

// InputEvent is an action reported by a backend.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Config holds configuration for backends
type Config struct {
	Title    string
	Scale    int
	Palette  video.Palette
	LogLevel slog.Level

	// Audio is drained once per Update. Nil disables audio output.
	Audio audio.Provider

	// Debug, when set, feeds register and disassembly views.
	Debug DebugProvider
}

// DebugProvider exposes emulator state to debug views.
type DebugProvider interface {
	Registers() cpu.Registers
	Read(address uint16) uint8
}
