// Package input routes host input actions to the joypad and to emulator
// callbacks.
package input

import (
	"time"

	"github.com/valerio/go-microboy/microboy/input/action"
	"github.com/valerio/go-microboy/microboy/input/event"
	"github.com/valerio/go-microboy/microboy/memory"
)

const (
	// debounceDuration is the minimum time between debounced events
	debounceDuration = 300 * time.Millisecond
)

// Buttons receives Game Boy button transitions.
type Buttons interface {
	Press(b memory.Button)
	Release(b memory.Button)
}

// Manager handles input actions and their associated callbacks
type Manager struct {
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
	buttons       Buttons
	now           func() time.Time
}

func NewManager(b Buttons) *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
		buttons:       b,
		now:           time.Now,
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type. Game Boy buttons go
// straight to the joypad, other actions run their callbacks with Press and
// Release debounced.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	if b, ok := joypadButton(act); ok {
		if m.buttons == nil {
			return
		}
		switch evt {
		case event.Press:
			m.buttons.Press(b)
		case event.Release:
			m.buttons.Release(b)
		}
		return
	}

	if evt == event.Press || evt == event.Release {
		if m.debounced(act, evt) {
			return
		}
	}

	for _, callback := range m.handlers[act][evt] {
		callback()
	}
}

func (m *Manager) debounced(act action.Action, evt event.Type) bool {
	now := m.now()
	if m.lastTriggered[act] == nil {
		m.lastTriggered[act] = make(map[event.Type]time.Time)
	}
	last, seen := m.lastTriggered[act][evt]
	if seen && now.Sub(last) < debounceDuration {
		return true
	}
	m.lastTriggered[act][evt] = now
	return false
}

// joypadButton maps Game Boy actions to joypad buttons
func joypadButton(act action.Action) (memory.Button, bool) {
	switch act {
	case action.GBButtonA:
		return memory.ButtonA, true
	case action.GBButtonB:
		return memory.ButtonB, true
	case action.GBButtonStart:
		return memory.ButtonStart, true
	case action.GBButtonSelect:
		return memory.ButtonSelect, true
	case action.GBDPadUp:
		return memory.ButtonUp, true
	case action.GBDPadDown:
		return memory.ButtonDown, true
	case action.GBDPadLeft:
		return memory.ButtonLeft, true
	case action.GBDPadRight:
		return memory.ButtonRight, true
	}
	return 0, false
}
