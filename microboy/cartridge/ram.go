package cartridge

import (
	"fmt"
	"log/slog"
)

// ram is external cartridge RAM, optionally backed by a Saver.
type ram struct {
	data    []byte
	enabled bool
	title   string
	saver   Saver
	clock   Clock
	dirty   bool
}

func newRAM(h Header, saver Saver, clock Clock) (*ram, error) {
	r := &ram{
		data:  make([]byte, h.RAMSize),
		title: h.Title,
		clock: clock,
	}
	if !h.Kind.HasBattery() || saver == nil {
		return r, nil
	}

	r.saver = saver
	saved, ok, err := saver.Load(h.Title)
	if err != nil {
		return nil, fmt.Errorf("loading save for %q: %w", h.Title, err)
	}
	if !ok {
		return r, nil
	}
	if len(saved) != len(r.data) {
		return nil, fmt.Errorf("%w: %q has %d bytes, expected %d", ErrSaveSizeMismatch, h.Title, len(saved), len(r.data))
	}
	copy(r.data, saved)
	slog.Info("Save data loaded", "title", h.Title, "bytes", len(saved))
	return r, nil
}

func (r *ram) read(offset int) uint8 {
	if r == nil || len(r.data) == 0 {
		return 0xFF
	}
	if !r.enabled {
		slog.Debug("Read from disabled cartridge RAM", "offset", fmt.Sprintf("0x%04X", offset))
		return 0xFF
	}
	return r.data[offset%len(r.data)]
}

func (r *ram) write(offset int, value uint8) {
	if r == nil || len(r.data) == 0 {
		return
	}
	if !r.enabled {
		slog.Debug("Write to disabled cartridge RAM", "offset", fmt.Sprintf("0x%04X", offset), "value", value)
		return
	}
	i := offset % len(r.data)
	if r.data[i] != value {
		r.data[i] = value
		r.dirty = true
	}
}

func (r *ram) setEnabled(value uint8) {
	if r != nil {
		r.enabled = value&0x0F == 0x0A
	}
}

func (r *ram) flush() error {
	if r == nil || r.saver == nil || !r.dirty {
		return nil
	}
	snapshot := make([]byte, len(r.data))
	copy(snapshot, r.data)
	if err := r.saver.Save(r.title, snapshot, r.clock.Now()); err != nil {
		return fmt.Errorf("saving %q: %w", r.title, err)
	}
	r.dirty = false
	return nil
}
