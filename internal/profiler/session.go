// Package profiler drives a profiling session: it feeds host enter/leave
// events to the shadow call stack and writes one trace line per finished
// call.
//
// A Session belongs to one thread of execution. Hosts with several threads
// open one session per thread.
package profiler

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"lprof/internal/clock"
	"lprof/internal/meter"
	"lprof/internal/tracelog"
)

var (
	// ErrClosed is returned by Flush on a closed session.
	ErrClosed = errors.New("profiler: session closed")
	// ErrNoRing is returned by DumpRing when no ring buffer was configured.
	ErrNoRing = errors.New("profiler: no ring buffer")
)

// Session is the state of one profiling session. It is not safe for
// concurrent use.
type Session struct {
	id     string
	path   string
	stack  *meter.Stack
	sink   tracelog.Sink
	ring   *tracelog.RingSink
	format tracelog.Format
	prec   int
	log    zerolog.Logger
	closed bool

	// set while the sink keeps failing, to log one warning per streak
	failing bool
	dropped int
}

// Option customizes a Session.
type Option func(*options)

type options struct {
	log   zerolog.Logger
	clock *clock.Clock
}

// WithLogger sets the logger used for warnings about the sink.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces the clock selected by Config.Clock.
func WithClock(c *clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func buildOptions(cfg Config, opts []Option) (options, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		c, err := clock.New(cfg.Clock)
		if err != nil {
			return o, err
		}
		o.clock = c
	}
	return o, nil
}

// Open starts a session writing to the file named by the configured
// template. If the file cannot be opened no session is created.
func Open(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o, err := buildOptions(cfg, opts)
	if err != nil {
		return nil, err
	}

	id := cfg.sessionID()
	path := cfg.OutputPath(id)
	f, err := openTraceFile(path)
	if err != nil {
		return nil, err
	}

	stream := tracelog.NewStreamSink(f, cfg.Format, o.clock.Digits())
	if cfg.EmitHeader {
		if err := stream.WriteHeader(); err != nil {
			_ = stream.Close()
			return nil, fmt.Errorf("failed to write trace header: %w", err)
		}
	}

	s := newSession(id, cfg, o, stream)
	s.path = path
	s.log.Debug().Str("path", path).Msg("profiling session started")
	return s, nil
}

// New starts a session writing to a caller-provided sink. The header is
// written only for stream sinks.
func New(sink tracelog.Sink, cfg Config, opts ...Option) (*Session, error) {
	if sink == nil {
		return nil, errors.New("profiler: nil sink")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o, err := buildOptions(cfg, opts)
	if err != nil {
		return nil, err
	}
	if stream, ok := sink.(*tracelog.StreamSink); ok && cfg.EmitHeader {
		if err := stream.WriteHeader(); err != nil {
			return nil, fmt.Errorf("failed to write trace header: %w", err)
		}
	}
	return newSession(cfg.sessionID(), cfg, o, sink), nil
}

// NewDetached starts a session that measures time without writing a trace.
// A ring buffer is still kept when cfg.RingSize is set.
func NewDetached(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o, err := buildOptions(cfg, opts)
	if err != nil {
		return nil, err
	}
	return newSession(cfg.sessionID(), cfg, o, tracelog.Nop), nil
}

func newSession(id string, cfg Config, o options, sink tracelog.Sink) *Session {
	s := &Session{
		id:     id,
		stack:  meter.NewStack(o.clock, cfg.CallOverhead),
		sink:   sink,
		format: cfg.Format,
		prec:   o.clock.Digits(),
		log:    o.log.With().Str("session", id).Logger(),
	}
	if cfg.RingSize > 0 {
		s.ring = tracelog.NewRingSink(cfg.RingSize)
		s.sink = tracelog.NewMultiSink(sink, s.ring)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Path returns the trace file path, or "" when the session has no file.
func (s *Session) Path() string { return s.path }

// Ring returns the in-memory record buffer, or nil if none was configured.
func (s *Session) Ring() *tracelog.RingSink { return s.ring }

// DumpRing writes the records kept in the ring buffer, oldest first, in the
// session's trace format.
func (s *Session) DumpRing(w io.Writer) error {
	if s.ring == nil {
		return ErrNoRing
	}
	return s.ring.Dump(w, s.format, s.prec)
}

// Depth returns the number of unfinished calls.
func (s *Session) Depth() int { return s.stack.Depth() }

// Enter records that the host entered a function.
func (s *Session) Enter(source, function string, lineDefined, currentLine int) {
	s.EnterLocation(meter.Location{
		Source:      source,
		Function:    function,
		LineDefined: lineDefined,
		CurrentLine: currentLine,
	})
}

// EnterLocation is Enter with a prebuilt location.
func (s *Session) EnterLocation(loc meter.Location) {
	if s.closed {
		return
	}
	s.stack.Enter(loc)
}

// Leave records that the host left the innermost function and writes its
// trace line. It returns false when there was no call to close, which
// happens when hooks were installed in the middle of a call.
func (s *Session) Leave() bool {
	if s.closed {
		return false
	}
	return s.stack.Leave(s.emit)
}

func (s *Session) emit(level int, f *meter.Frame) {
	rec := tracelog.Record{
		Level:       level,
		Source:      f.Source,
		Function:    f.Function,
		LineDefined: f.LineDefined,
		CurrentLine: f.CurrentLine,
		LocalTime:   f.LocalTime,
		TotalTime:   f.TotalTime,
	}
	if err := s.sink.Emit(&rec); err != nil {
		s.dropped++
		if !s.failing {
			s.failing = true
			s.log.Warn().Err(err).Str("function", f.Function).Msg("failed to write trace record")
		}
		return
	}
	if s.failing {
		s.failing = false
		s.log.Warn().Int("dropped", s.dropped).Msg("trace output recovered")
	}
}

// Dropped returns how many records could not be written.
func (s *Session) Dropped() int { return s.dropped }

// Close ends the session. Unfinished calls are abandoned without trace
// lines. Close is idempotent.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if depth := s.stack.Depth(); depth > 0 {
		s.log.Debug().Int("depth", depth).Msg("abandoning unfinished calls")
	}
	s.stack.Reset()
	if err := s.sink.Close(); err != nil {
		return fmt.Errorf("failed to close trace output: %w", err)
	}
	return nil
}

// Flush forces buffered trace data out. Stream sinks already flush after
// every line.
func (s *Session) Flush() error {
	if s.closed {
		return ErrClosed
	}
	return s.sink.Flush()
}
