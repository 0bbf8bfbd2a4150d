// Package headless runs the emulator without any display, for automated
// runs and batch processing.
package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/debug"
	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/video"
)

// progressInterval is how often, in frames, progress is logged.
const progressInterval = 60

// Backend implements the Backend interface for automated testing and batch processing
type Backend struct {
	config         backend.Config
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
	wavPath        string
	recorder       *debug.WAVRecorder
	snapshots      []string
}

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N frames
	Directory string // Directory to save snapshots
	ROMName   string // ROM name for snapshot filenames
	Scale     int
}

// New creates a backend that stops after maxFrames. A non empty wavPath
// records the drained audio.
func New(maxFrames int, snapshotConfig SnapshotConfig, wavPath string) *Backend {
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
		wavPath:        wavPath,
	}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	if h.config.Palette == (video.Palette{}) {
		h.config.Palette = video.GreyPalette
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.LogLevel,
	})
	slog.SetDefault(slog.New(handler))

	if h.wavPath != "" {
		if config.Audio == nil {
			slog.Warn("WAV output requested with audio disabled, no samples will be recorded")
		}
		rec, err := debug.NewWAVRecorder(h.wavPath)
		if err != nil {
			return err
		}
		h.recorder = rec
	}

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory,
		"wav", h.wavPath)
	return nil
}

// Update processes a frame and handles snapshots
func (h *Backend) Update(frame *video.Frame) ([]backend.InputEvent, error) {
	var events []backend.InputEvent

	h.frameCount++

	if h.config.Audio != nil {
		samples := h.config.Audio.Drain()
		if h.recorder != nil {
			if err := h.recorder.Write(samples); err != nil {
				return nil, err
			}
		}
	}

	// Save snapshot if needed
	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%progressInterval == 0 {
		slog.Info("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	// Check if we've reached the target frame count
	if h.maxFrames > 0 && h.frameCount >= h.maxFrames {
		// Save final snapshot if enabled and we haven't just saved one
		if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
			h.saveSnapshot(frame)
		}

		if h.snapshotConfig.Enabled {
			slog.Info("Headless execution completed", "frames", h.maxFrames, "png_snapshots_saved_to", h.snapshotConfig.Directory)
		} else {
			slog.Info("Headless execution completed", "frames", h.maxFrames)
		}

		// Signal completion via quit event
		events = append(events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	}

	return events, nil
}

// Frames returns the number of frames processed.
func (h *Backend) Frames() int {
	return h.frameCount
}

// Snapshots returns the paths of the PNG files written so far.
func (h *Backend) Snapshots() []string {
	return h.snapshots
}

func (h *Backend) Cleanup() error {
	if h.recorder == nil {
		return nil
	}
	slog.Info("WAV written", "path", h.wavPath, "samples", h.recorder.Samples())
	return h.recorder.Close()
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters
func CreateSnapshotConfig(interval int, directory, romPath string, scale int) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
		Scale:    scale,
	}

	if !config.Enabled {
		return config, nil
	}

	// Set up snapshot directory
	if directory == "" {
		tempDir, err := os.MkdirTemp("", "microboy-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	// Extract ROM name for snapshot filenames
	config.ROMName = filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(config.ROMName, filepath.Ext(config.ROMName))

	return config, nil
}

// saveSnapshot saves a PNG snapshot for the current frame
func (h *Backend) saveSnapshot(frame *video.Frame) {
	pngBaseName := fmt.Sprintf("%s_frame_%d", h.snapshotConfig.ROMName, h.frameCount)

	path, err := debug.SaveFramePNGToDir(frame, h.config.Palette, h.snapshotConfig.Scale, pngBaseName, h.snapshotConfig.Directory)
	if err != nil {
		slog.Error("Failed to save PNG snapshot", "frame", h.frameCount, "error", err)
		return
	}
	h.snapshots = append(h.snapshots, path)
}
