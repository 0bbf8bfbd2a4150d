package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-microboy/microboy"
	"github.com/valerio/go-microboy/microboy/backend"
	"github.com/valerio/go-microboy/microboy/backend/desktop"
	"github.com/valerio/go-microboy/microboy/backend/headless"
	"github.com/valerio/go-microboy/microboy/backend/terminal"
	"github.com/valerio/go-microboy/microboy/debug"
	"github.com/valerio/go-microboy/microboy/timing"
	"github.com/valerio/go-microboy/microboy/video"
)

func main() {
	app := cli.NewApp()
	app.Name = "microboy"
	app.Description = "A cycle accurate Game Boy (DMG) emulator"
	app.Usage = "microboy [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a 256 byte DMG boot ROM (default: start in the post boot state)",
		},
		cli.StringFlag{
			Name:  "save-dir",
			Usage: "Directory for battery saves (default: next to the ROM)",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Host backend: headless, terminal or desktop",
			Value: "desktop",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.IntFlag{
			Name:  "snapshot-scale",
			Usage: "Integer scale factor for PNG snapshots",
			Value: 1,
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record audio to this WAV file in headless mode",
		},
		cli.StringFlag{
			Name:  "trace",
			Usage: "Write a per instruction CPU trace (gameboy-doctor format) to this file",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor for the desktop backend",
			Value: 3,
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Frame pacing: adaptive, ticker or none (default depends on the backend)",
		},
		cli.BoolFlag{
			Name:  "no-audio",
			Usage: "Disable audio output",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error",
			Value: "info",
		},
		cli.StringFlag{
			Name:  "palette",
			Usage: "Screen colours: grey or green",
			Value: "grey",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			_ = cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	palette, err := parsePalette(c.String("palette"))
	if err != nil {
		return err
	}

	b, limiterName, err := createBackend(c, romPath)
	if err != nil {
		return err
	}
	if c.IsSet("limiter") {
		limiterName = c.String("limiter")
	}
	limiter, err := timing.New(limiterName)
	if err != nil {
		return err
	}

	cfg := microboy.Config{
		ROMPath:     romPath,
		BootROMPath: c.String("boot-rom"),
		SaveDir:     c.String("save-dir"),
	}
	if cfg.SaveDir == "" {
		cfg.SaveDir = filepath.Dir(romPath)
	}

	var trace *debug.TraceWriter
	if path := c.String("trace"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		defer file.Close()
		trace = debug.NewTraceWriter(file)
		cfg.Tracer = trace.Trace
	} else if level <= slog.LevelDebug {
		cfg.Tracer = debug.LogTracer(nil)
	}

	emu, err := microboy.New(cfg)
	if err != nil {
		return err
	}

	bcfg := backend.Config{
		Title:    "microboy - " + emu.Header().Title,
		Scale:    c.Int("scale"),
		Palette:  palette,
		LogLevel: level,
		Debug:    emu,
	}
	if !c.Bool("no-audio") {
		bcfg.Audio = emu.Audio()
	}
	if err := b.Init(bcfg); err != nil {
		return err
	}

	s := newSession(emu, b, limiter, palette)
	s.snapshotDir = c.String("snapshot-dir")
	s.snapshotScale = c.Int("snapshot-scale")
	s.romName = strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	_, s.stopOnFault = b.(*headless.Backend)

	runErr := s.run()

	if err := b.Cleanup(); err != nil {
		slog.Error("Backend cleanup failed", "error", err)
	}
	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Error("Failed to write trace", "error", err)
		}
		slog.Info("Trace written", "lines", trace.Lines())
	}
	if err := emu.Close(); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
	return runErr
}

// createBackend returns the backend named by --backend and its default
// limiter.
func createBackend(c *cli.Context, romPath string) (backend.Backend, string, error) {
	switch name := c.String("backend"); name {
	case "headless":
		frames := c.Int("frames")
		if frames <= 0 {
			return nil, "", errors.New("headless mode requires --frames option with a positive value")
		}
		snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath, c.Int("snapshot-scale"))
		if err != nil {
			return nil, "", err
		}
		return headless.New(frames, snapshots, c.String("wav")), "none", nil
	case "terminal":
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, "", errors.New("terminal backend needs stdout to be a terminal")
		}
		return terminal.New(), "adaptive", nil
	case "desktop":
		// ebiten paces its own ticks
		return desktop.New(), "none", nil
	default:
		return nil, "", fmt.Errorf("unknown backend %q", name)
	}
}

func parsePalette(name string) (video.Palette, error) {
	switch name {
	case "grey", "gray":
		return video.GreyPalette, nil
	case "green":
		return video.GreenPalette, nil
	}
	return video.Palette{}, fmt.Errorf("unknown palette %q", name)
}
