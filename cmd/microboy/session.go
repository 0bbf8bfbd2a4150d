package main

import (
	"errors"
	"log/slog"

	"github.com/valerio/go-microboy/microboy"
	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/cpu"
	"github.com/valerio/go-microboy/microboy/debug"
	"github.com/valerio/go-microboy/microboy/input"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/timing"
	"github.com/valerio/go-microboy/microboy/video"
)

// session drives one emulator through a backend: one emulated frame, one
// backend update and one limiter wait per step.
type session struct {
	emu     *microboy.Emulator
	backend backend.Backend
	limiter timing.Limiter
	manager *input.Manager
	palette video.Palette

	paused    bool
	stepFrame bool
	quit      bool

	// stopOnFault makes a CPU fault end the run instead of pausing
	stopOnFault   bool
	snapshotDir   string
	snapshotScale int
	romName       string
}

func newSession(emu *microboy.Emulator, b backend.Backend, limiter timing.Limiter, palette video.Palette) *session {
	s := &session{
		emu:     emu,
		backend: b,
		limiter: limiter,
		manager: input.NewManager(emu),
		palette: palette,
	}
	s.registerHandlers()
	return s
}

func (s *session) registerHandlers() {
	m := s.manager
	m.On(action.EmulatorQuit, event.Press, func() { s.quit = true })
	m.On(action.EmulatorPauseToggle, event.Press, func() {
		s.paused = !s.paused
		if !s.paused {
			s.limiter.Reset()
		}
		slog.Info("Pause toggled", "paused", s.paused)
	})
	m.On(action.EmulatorStepFrame, event.Press, func() {
		if s.paused {
			s.stepFrame = true
		}
	})
	m.On(action.EmulatorResume, event.Press, func() {
		if s.emu.Fault() != nil {
			slog.Info("Resuming after fault")
			s.emu.Resume()
		}
		s.paused = false
		s.limiter.Reset()
	})
	m.On(action.EmulatorSnapshot, event.Press, s.snapshot)

	audio := s.emu.Audio()
	toggles := []action.Action{action.AudioToggleChannel1, action.AudioToggleChannel2, action.AudioToggleChannel3, action.AudioToggleChannel4}
	solos := []action.Action{action.AudioSoloChannel1, action.AudioSoloChannel2, action.AudioSoloChannel3, action.AudioSoloChannel4}
	for i := range toggles {
		channel := i + 1
		m.On(toggles[i], event.Press, func() { audio.ToggleChannel(channel) })
		m.On(solos[i], event.Press, func() { audio.SoloChannel(channel) })
	}
	m.On(action.AudioUnmuteAll, event.Press, audio.UnmuteAll)
}

// snapshot saves the current frame and the VRAM tile sheet.
func (s *session) snapshot() {
	if _, err := debug.SaveFramePNGToDir(s.emu.Frame(), s.palette, s.snapshotScale, s.romName, s.snapshotDir); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
	if _, err := debug.SaveTileSheetPNGToDir(s.emu, s.palette, s.snapshotScale, s.romName+"_vram", s.snapshotDir); err != nil {
		slog.Error("Failed to save tile sheet", "error", err)
	}
}

// step advances one host frame. It returns backend.ErrQuit once a quit was
// requested.
func (s *session) step() error {
	if !s.paused || s.stepFrame {
		s.stepFrame = false
		if err := s.emu.RunUntilFrame(); err != nil {
			var fault *cpu.Fault
			if s.stopOnFault || !errors.As(err, &fault) {
				return err
			}
			slog.Warn("Paused on CPU fault, press resume to continue", "error", err)
			s.paused = true
		}
	}

	events, err := s.backend.Update(s.emu.Frame())
	if err != nil {
		return err
	}
	for _, ev := range events {
		s.manager.Trigger(ev.Action, ev.Type)
	}
	if s.quit {
		return backend.ErrQuit
	}

	s.limiter.WaitForNextFrame()
	return nil
}

// run steps until quit or an error, handing the loop to the backend when it
// needs to own it.
func (s *session) run() error {
	if r, ok := s.backend.(backend.Runner); ok {
		return r.Run(s.step)
	}
	for {
		if err := s.step(); err != nil {
			if errors.Is(err, backend.ErrQuit) {
				return nil
			}
			return err
		}
	}
}
