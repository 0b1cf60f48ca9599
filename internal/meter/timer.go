package meter

import "lprof/internal/clock"

// Timer measures one interval at a time. It is either running or paused;
// pausing a paused timer or resuming a running one is a caller bug.
type Timer struct {
	clock   *clock.Clock
	mark    clock.Marker
	running bool
}

// NewTimer creates a paused timer.
func NewTimer(c *clock.Clock) *Timer {
	return &Timer{clock: c}
}

// Resume re-arms the timer at the current instant and returns that instant.
func (t *Timer) Resume() clock.Marker {
	if t.running {
		panic("meter: resume of a running timer")
	}
	t.mark = t.clock.Start()
	t.running = true
	return t.mark
}

// PauseAndCapture stops the timer and returns the ticks elapsed since the
// last Resume.
func (t *Timer) PauseAndCapture() int64 {
	elapsed, _ := t.Pause()
	return elapsed
}

// Pause stops the timer. It returns the ticks elapsed since the last Resume
// and the instant the timer stopped.
func (t *Timer) Pause() (int64, clock.Marker) {
	if !t.running {
		panic("meter: pause of a paused timer")
	}
	t.running = false
	now := t.clock.Start()
	return clock.Between(t.mark, now), now
}

// Running reports whether the timer is measuring.
func (t *Timer) Running() bool {
	return t.running
}
