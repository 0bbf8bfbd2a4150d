package timing

import (
	"fmt"
	"time"
)

// Limiter controls frame rate timing for emulation.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// Constants for Game Boy timing, in machine cycles.
const (
	CyclesPerFrame = 17556
	CPUFrequency   = 1048576
)

// TargetFPS calculates the exact Game Boy frame rate.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// New returns the limiter registered under name: "adaptive", "ticker" or
// "none".
func New(name string) (Limiter, error) {
	switch name {
	case "", "adaptive":
		return NewAdaptiveLimiter(), nil
	case "ticker":
		return NewTickerLimiter(), nil
	case "none":
		return NewNoOpLimiter(), nil
	}
	return nil, fmt.Errorf("unknown limiter %q", name)
}
