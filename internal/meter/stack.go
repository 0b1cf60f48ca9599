// Package meter keeps the shadow call stack and charges elapsed time to its
// frames.
//
// Every call gets its own frame, so recursion and cycles in the call graph
// are flattened rather than merged: a function entered twice yields two
// frames and two finalized records. Only the top frame accumulates local
// time. Total time covers a frame's whole lifetime, children included,
// except the windows during which a finalized frame was being written out.
package meter

import "lprof/internal/clock"

// Location identifies a call site as reported by the host.
type Location struct {
	Source      string
	Function    string
	LineDefined int
	CurrentLine int
}

// Frame is one active or finalized call.
type Frame struct {
	Location
	LocalTime float64 // seconds spent in the frame's own body
	TotalTime float64 // seconds spent in the frame and its callees

	local      int64
	totalMark  clock.Marker
	excludedAt int64
}

// Stack is the shadow call stack of one thread of execution. It is not safe
// for concurrent use.
type Stack struct {
	clock    *clock.Clock
	timer    *Timer
	frames   []Frame
	overhead float64

	// ticks spent writing finalized frames, excluded from totals
	excluded int64
}

// NewStack creates an empty stack. overhead is added, in seconds, to the
// local and total time of every finalized frame to compensate for the
// unmeasured cost of the hook dispatch.
func NewStack(c *clock.Clock, overhead float64) *Stack {
	return &Stack{
		clock:    c,
		timer:    NewTimer(c),
		frames:   make([]Frame, 0, 64),
		overhead: overhead,
	}
}

// Depth returns the number of frames on the stack.
func (s *Stack) Depth() int {
	return len(s.frames)
}

// Enter suspends the active frame, if any, and pushes a new active frame.
func (s *Stack) Enter(loc Location) {
	if n := len(s.frames); n > 0 {
		s.frames[n-1].local += s.timer.PauseAndCapture()
	}
	s.frames = append(s.frames, Frame{
		Location:   loc,
		excludedAt: s.excluded,
	})
	// local and total start at the same instant
	s.frames[len(s.frames)-1].totalMark = s.timer.Resume()
}

// Leave finalizes the top frame and hands it to emit together with its
// zero-based stack level. While emit runs, no frame is being charged; the
// caller frame's timer resumes only after emit returns. Leave returns false
// without calling emit when the stack is empty.
func (s *Stack) Leave(emit func(level int, f *Frame)) bool {
	n := len(s.frames)
	if n == 0 {
		return false
	}

	top := s.frames[n-1]
	s.frames = s.frames[:n-1]

	elapsed, hold := s.timer.Pause()
	top.local += elapsed
	total := clock.Between(top.totalMark, hold) - (s.excluded - top.excludedAt)
	if total < top.local {
		total = top.local
	}
	top.LocalTime = s.clock.Seconds(top.local) + s.overhead
	top.TotalTime = s.clock.Seconds(total) + s.overhead

	if emit != nil {
		emit(len(s.frames), &top)
	}

	s.excluded += s.clock.Ticks(hold)
	if len(s.frames) > 0 {
		s.timer.Resume()
	}
	return true
}

// Reset abandons every frame without finalizing it.
func (s *Stack) Reset() {
	if s.timer.Running() {
		s.timer.PauseAndCapture()
	}
	s.frames = s.frames[:0]
	s.excluded = 0
}
