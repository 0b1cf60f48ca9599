package hook

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// Recorder writes events as a msgpack stream for later replay.
type Recorder struct {
	enc *msgpack.Encoder
	n   int
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: msgpack.NewEncoder(w)}
}

// Record appends one event.
func (r *Recorder) Record(ev Event) error {
	if err := r.enc.Encode(&ev); err != nil {
		return fmt.Errorf("failed to encode event %d: %w", r.n, err)
	}
	r.n++
	return nil
}

// Call records a call event. Line numbers that do not fit the recording
// format are rejected.
func (r *Recorder) Call(source, name string, lineDefined, currentLine int) error {
	ev, err := newEvent(KindCall, source, name, lineDefined, currentLine)
	if err != nil {
		return err
	}
	return r.Record(ev)
}

// TailCall records a tail call event.
func (r *Recorder) TailCall(source, name string, lineDefined, currentLine int) error {
	ev, err := newEvent(KindTailCall, source, name, lineDefined, currentLine)
	if err != nil {
		return err
	}
	return r.Record(ev)
}

// Return records a return event.
func (r *Recorder) Return() error {
	return r.Record(Event{Kind: KindReturn})
}

// Count returns the number of events recorded so far.
func (r *Recorder) Count() int { return r.n }

func newEvent(kind Kind, source, name string, lineDefined, currentLine int) (Event, error) {
	defined, err := safecast.Conv[int32](lineDefined)
	if err != nil {
		return Event{}, fmt.Errorf("line_defined %d: %w", lineDefined, err)
	}
	current, err := safecast.Conv[int32](currentLine)
	if err != nil {
		return Event{}, fmt.Errorf("current_line %d: %w", currentLine, err)
	}
	return Event{
		Kind:        kind,
		Source:      source,
		Name:        name,
		LineDefined: defined,
		CurrentLine: current,
	}, nil
}

// Replay decodes events from r until EOF and dispatches them in order. It
// returns the number of events dispatched.
func Replay(ctx context.Context, r io.Reader, d *Dispatcher) (int, error) {
	dec := msgpack.NewDecoder(r)
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("failed to decode event %d: %w", n, err)
		}
		d.Dispatch(ev)
		n++
	}
}
