package timing

import (
	"log/slog"
	"time"
)

const (
	// busyWaitWindow is how close to the deadline sleeping gives way to
	// spinning.
	busyWaitWindow = 2 * time.Millisecond
	// maxLag is how far behind schedule the limiter goes before it stops
	// trying to catch up.
	maxLag = 5 * time.Millisecond
	// driftCheckFrames is how often the accumulated drift is inspected.
	driftCheckFrames = 60
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	start           time.Time
	frameCounter    int64

	now   func() time.Time
	sleep func(time.Duration)
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	a := &AdaptiveLimiter{
		targetFrameTime: FrameDuration(),
		now:             time.Now,
		sleep:           time.Sleep,
	}
	a.Reset()
	return a
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.now()
	deadline := a.nextFrameTime
	sleepTime := deadline.Sub(now)

	switch {
	case sleepTime > busyWaitWindow:
		a.sleep(sleepTime - time.Millisecond)
		a.spinUntil(deadline)
	case sleepTime > 0:
		a.spinUntil(deadline)
	case sleepTime < -maxLag:
		// too far behind, drop the missed frames
		deadline = now
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%driftCheckFrames == 0 {
		actual := a.now()
		drift := actual.Sub(deadline)
		if drift.Abs() > 10*time.Millisecond {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			elapsed := actual.Sub(a.start)
			slog.Debug("Frame timing drift correction",
				"drift_ms", drift.Milliseconds(),
				"fps", float64(a.frameCounter)*float64(time.Second)/float64(elapsed))
		}
	}
}

func (a *AdaptiveLimiter) spinUntil(deadline time.Time) {
	for a.now().Before(deadline) {
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.start = a.now()
	a.nextFrameTime = a.start
	a.frameCounter = 0
}
