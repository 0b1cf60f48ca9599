// Package clock measures elapsed time between two events.
//
// A Clock wraps a Source of ticks. Start marks the first event and
// ElapsedSeconds reports the seconds elapsed since that mark. The default
// source counts CPU time consumed by the process, which is the better choice
// when other processes or threads compete for the machine; KindWall counts
// monotonic wall time instead.
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnavailable is returned when the platform time source cannot be read.
var ErrUnavailable = errors.New("clock: time source unavailable")

// Source supplies raw ticks.
type Source interface {
	// Now returns the current tick count.
	Now() int64
	// TicksPerSecond returns the tick frequency.
	TicksPerSecond() int64
}

// Kind selects the time source.
type Kind uint8

const (
	KindCPU  Kind = iota // process CPU time
	KindWall             // monotonic wall time
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindWall:
		return "wall"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "cpu", "":
		return KindCPU, nil
	case "wall":
		return KindWall, nil
	default:
		return KindCPU, fmt.Errorf("invalid clock: %q (expected: cpu|wall)", s)
	}
}

// Marker is an opaque point in time on a Clock's source.
type Marker int64

// Clock converts source ticks into seconds.
type Clock struct {
	src Source
	tps int64
}

// New creates a Clock for the given kind. The source is probed once so that
// an unreadable source fails here rather than on every call.
func New(kind Kind) (*Clock, error) {
	var src Source
	switch kind {
	case KindCPU:
		cpu, err := newCPUSource()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		src = cpu
	case KindWall:
		src = newWallSource()
	default:
		return nil, fmt.Errorf("unknown clock kind: %v", kind)
	}
	return NewWithSource(src)
}

// NewWithSource creates a Clock over an arbitrary source.
func NewWithSource(src Source) (*Clock, error) {
	if src == nil {
		return nil, ErrUnavailable
	}
	tps := src.TicksPerSecond()
	if tps <= 0 {
		return nil, fmt.Errorf("%w: non-positive tick rate %d", ErrUnavailable, tps)
	}
	return &Clock{src: src, tps: tps}, nil
}

// Start returns a marker for the current instant.
func (c *Clock) Start() Marker {
	return Marker(c.src.Now())
}

// Ticks returns the ticks elapsed since m. A counter that went backwards
// (wraparound) yields zero, never a negative duration.
func (c *Clock) Ticks(m Marker) int64 {
	return Between(m, c.Start())
}

// Between returns the ticks from a to b, or zero when b precedes a.
func Between(a, b Marker) int64 {
	d := int64(b) - int64(a)
	if d < 0 {
		return 0
	}
	return d
}

// ElapsedSeconds returns the seconds elapsed since m.
func (c *Clock) ElapsedSeconds(m Marker) float64 {
	return c.Seconds(c.Ticks(m))
}

// Seconds converts a tick count into seconds.
func (c *Clock) Seconds(ticks int64) float64 {
	return float64(ticks) / float64(c.tps)
}

// TicksPerSecond returns the source frequency.
func (c *Clock) TicksPerSecond() int64 {
	return c.tps
}

// Digits returns how many fractional decimal digits are meaningful for this
// clock's resolution, between 6 and 9.
func (c *Clock) Digits() int {
	digits := 0
	for tps := c.tps; tps > 1 && digits < 9; tps /= 10 {
		digits++
	}
	if digits < 6 {
		digits = 6
	}
	return digits
}

// wallSource counts monotonic nanoseconds since process start.
type wallSource struct {
	base time.Time
}

func newWallSource() *wallSource {
	return &wallSource{base: time.Now()}
}

func (s *wallSource) Now() int64 {
	return int64(time.Since(s.base))
}

func (s *wallSource) TicksPerSecond() int64 {
	return int64(time.Second)
}

// Manual is a Source advanced explicitly by its owner.
type Manual struct {
	ticks int64
	tps   int64
}

// NewManual creates a manual source ticking at tps per second.
func NewManual(tps int64) *Manual {
	return &Manual{tps: tps}
}

// Now returns the current tick count.
func (m *Manual) Now() int64 { return m.ticks }

// TicksPerSecond returns the configured frequency.
func (m *Manual) TicksPerSecond() int64 { return m.tps }

// Advance moves the source forward by d. Whole seconds and the remainder
// are scaled separately so long durations do not overflow.
func (m *Manual) Advance(d time.Duration) {
	secs := int64(d / time.Second)
	rem := int64(d % time.Second)
	m.ticks += secs*m.tps + rem*m.tps/int64(time.Second)
}

// Set moves the source to an absolute tick count, possibly backwards.
func (m *Manual) Set(ticks int64) { m.ticks = ticks }
