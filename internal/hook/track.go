package hook

import (
	"runtime"

	"lprof/internal/profiler"
)

// Track enters the calling Go function in s and returns the matching
// leave. Use it as
//
//	defer hook.Track(s)()
//
// The source is the function's file with an '@' prefix, the defining line
// is the line of the function's entry and the current line is the line of
// the Track call.
func Track(s *profiler.Session) func() {
	if s == nil {
		return func() {}
	}
	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		s.Enter("=?", UnknownName, 0, 0)
		return func() { s.Leave() }
	}
	name := UnknownName
	defined := line
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
		_, defined = fn.FileLine(fn.Entry())
	}
	s.Enter("@"+file, name, defined, line)
	return func() { s.Leave() }
}
