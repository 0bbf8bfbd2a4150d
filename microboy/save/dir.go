// Package save stores battery backed cartridge RAM on disk.
package save

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const extension = ".sav"

// Dir keeps one <title>.sav file per cartridge inside a directory.
type Dir struct {
	path string
}

// NewDir creates the directory if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the file used for title.
func (d *Dir) Path(title string) string {
	return filepath.Join(d.path, fileName(title)+extension)
}

// Load returns the saved RAM for title, or ok=false if nothing was saved yet.
func (d *Dir) Load(title string) ([]byte, bool, error) {
	data, err := os.ReadFile(d.Path(title))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save replaces the file atomically and stamps it with the emulated save time.
func (d *Dir) Save(title string, data []byte, at time.Time) error {
	path := d.Path(title)

	tmp, err := os.CreateTemp(d.path, fileName(title)+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	if err := os.Chtimes(path, at, at); err != nil {
		slog.Warn("Could not set save timestamp", "path", path, "error", err)
	}

	slog.Info("Save written", "path", path, "bytes", len(data))
	return nil
}

// fileName maps a cartridge title to something safe on every filesystem.
func fileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, title)
	if name == "" {
		return "untitled"
	}
	return name
}
