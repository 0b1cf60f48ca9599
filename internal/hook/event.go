// Package hook turns host runtime call/return notifications into profiler
// session events.
package hook

import "lprof/internal/profiler"

// Kind represents the type of hook event.
type Kind uint8

const (
	// KindCall fires when the host enters a function.
	KindCall Kind = iota + 1
	// KindTailCall fires when a tail call replaces the running function.
	KindTailCall
	// KindReturn fires when the host leaves a function.
	KindReturn
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindTailCall:
		return "tailcall"
	case KindReturn:
		return "return"
	default:
		return "unknown"
	}
}

// UnknownName is logged for functions the host could not name.
const UnknownName = "?"

// Event is one raw hook notification with its debug information. Lines are
// int32 to keep recordings compact.
type Event struct {
	Kind        Kind   `msgpack:"k"`
	Source      string `msgpack:"s,omitempty"`
	Name        string `msgpack:"n,omitempty"`
	LineDefined int32  `msgpack:"d,omitempty"`
	CurrentLine int32  `msgpack:"l,omitempty"`
}

// Dispatcher forwards events to a session.
type Dispatcher struct {
	Session *profiler.Session
}

// NewDispatcher creates a Dispatcher for s.
func NewDispatcher(s *profiler.Session) *Dispatcher {
	return &Dispatcher{Session: s}
}

// Dispatch applies one event. It returns false for returns that had no
// call to close and for unknown kinds.
func (d *Dispatcher) Dispatch(ev Event) bool {
	if d == nil || d.Session == nil {
		return false
	}
	switch ev.Kind {
	case KindCall:
		d.enter(ev)
		return true
	case KindTailCall:
		// the replaced function never returns on its own
		d.Session.Leave()
		d.enter(ev)
		return true
	case KindReturn:
		return d.Session.Leave()
	default:
		return false
	}
}

func (d *Dispatcher) enter(ev Event) {
	name := ev.Name
	if name == "" {
		name = UnknownName
	}
	d.Session.Enter(ev.Source, name, int(ev.LineDefined), int(ev.CurrentLine))
}
