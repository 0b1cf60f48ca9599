package hook

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"lprof/internal/clock"
	"lprof/internal/profiler"
	"lprof/internal/tracelog"
)

func newSession(t *testing.T) (*profiler.Session, *tracelog.RingSink) {
	t.Helper()
	c, err := clock.NewWithSource(clock.NewManual(int64(time.Second)))
	if err != nil {
		t.Fatalf("NewWithSource: %v", err)
	}
	ring := tracelog.NewRingSink(64)
	s, err := profiler.New(ring, profiler.Config{}, profiler.WithClock(c))
	if err != nil {
		t.Fatalf("profiler.New: %v", err)
	}
	return s, ring
}

func TestDispatch(t *testing.T) {
	s, ring := newSession(t)
	d := NewDispatcher(s)

	events := []Event{
		{Kind: KindCall, Source: "@main.lua", Name: "main", LineDefined: 0, CurrentLine: 1},
		{Kind: KindCall, Source: "@main.lua", Name: "", LineDefined: 4, CurrentLine: 9},
		{Kind: KindTailCall, Source: "@main.lua", Name: "tail", LineDefined: 12, CurrentLine: 6},
		{Kind: KindReturn},
		{Kind: KindReturn},
	}
	for i, ev := range events {
		if !d.Dispatch(ev) {
			t.Fatalf("event %d (%v) not applied", i, ev.Kind)
		}
	}
	if d.Dispatch(Event{Kind: KindReturn}) {
		t.Fatalf("unmatched return applied")
	}
	if d.Dispatch(Event{Kind: 99}) {
		t.Fatalf("unknown kind applied")
	}

	recs := ring.Snapshot()
	want := []struct {
		name  string
		level int
	}{
		{UnknownName, 1},
		{"tail", 1},
		{"main", 0},
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d records, want %d", len(recs), len(want))
	}
	for i, w := range want {
		if recs[i].Function != w.name || recs[i].Level != w.level {
			t.Fatalf("record %d = %s@%d, want %s@%d", i, recs[i].Function, recs[i].Level, w.name, w.level)
		}
	}
}

func TestRecordAndReplay(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	steps := []func() error{
		func() error { return rec.Call("@f.lua", "foo", 1, 1) },
		func() error { return rec.Call("@f.lua", "bar", 5, 5) },
		func() error { return rec.Return() },
		func() error { return rec.TailCall("@f.lua", "baz", 8, 3) },
		func() error { return rec.Return() },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if rec.Count() != len(steps) {
		t.Fatalf("Count = %d, want %d", rec.Count(), len(steps))
	}

	s, ring := newSession(t)
	n, err := Replay(context.Background(), &buf, NewDispatcher(s))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if n != len(steps) {
		t.Fatalf("replayed %d events, want %d", n, len(steps))
	}
	var names []string
	for _, r := range ring.Snapshot() {
		names = append(names, r.Function)
	}
	if got := strings.Join(names, ","); got != "bar,foo,baz" {
		t.Fatalf("records = %s, want bar,foo,baz", got)
	}
	if s.Depth() != 0 {
		t.Fatalf("Depth = %d, want 0", s.Depth())
	}
}

func TestRecorderRejectsHugeLines(t *testing.T) {
	rec := NewRecorder(&bytes.Buffer{})
	if err := rec.Call("@f.lua", "f", math.MaxInt32+1, 1); err == nil {
		t.Fatalf("line beyond int32 accepted")
	}
}

func TestReplayHonorsContext(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	if err := rec.Call("@f.lua", "f", 1, 1); err != nil {
		t.Fatalf("Call: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newSession(t)
	if _, err := Replay(ctx, &buf, NewDispatcher(s)); err == nil {
		t.Fatalf("Replay ignored cancelled context")
	}
}

func TestReplayRejectsGarbage(t *testing.T) {
	s, _ := newSession(t)
	_, err := Replay(context.Background(), strings.NewReader("\xc1\xc1\xc1"), NewDispatcher(s))
	if err == nil {
		t.Fatalf("Replay accepted garbage")
	}
}

//go:noinline
func trackedOuter(s *profiler.Session) {
	defer Track(s)()
	trackedInner(s)
}

//go:noinline
func trackedInner(s *profiler.Session) {
	defer Track(s)()
}

func TestTrack(t *testing.T) {
	s, ring := newSession(t)
	trackedOuter(s)

	recs := ring.Snapshot()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	inner, outer := recs[0], recs[1]
	if !strings.HasSuffix(inner.Function, ".trackedInner") || inner.Level != 1 {
		t.Fatalf("inner = %s@%d", inner.Function, inner.Level)
	}
	if !strings.HasSuffix(outer.Function, ".trackedOuter") || outer.Level != 0 {
		t.Fatalf("outer = %s@%d", outer.Function, outer.Level)
	}
	if !strings.HasPrefix(outer.Source, "@") || !strings.HasSuffix(outer.Source, "hook_test.go") {
		t.Fatalf("source = %q", outer.Source)
	}
	if outer.LineDefined <= 0 || outer.CurrentLine <= outer.LineDefined {
		t.Fatalf("lines = %d/%d", outer.LineDefined, outer.CurrentLine)
	}
	if Track(nil) == nil {
		t.Fatalf("Track(nil) returned nil")
	}
}
