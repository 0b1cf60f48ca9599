package tracelog

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
)

func TestFormatTSV(t *testing.T) {
	rec := &Record{
		Level:       1,
		Source:      "@f.lua",
		Function:    "bar",
		LineDefined: 5,
		CurrentLine: 7,
		LocalTime:   0.5,
		TotalTime:   1.25,
	}
	got := mustFormat(t, rec, FormatTSV)
	want := "1\t@f.lua\tbar\t5\t7\t0.500000\t1.250000\n"
	if got != want {
		t.Fatalf("FormatRecord = %q, want %q", got, want)
	}
}

func mustFormat(t *testing.T, rec *Record, format Format) string {
	t.Helper()
	data, err := FormatRecord(rec, format, 6)
	if err != nil {
		t.Fatalf("FormatRecord: %v", err)
	}
	return string(data)
}

func TestFormatRejectsNonFiniteTimes(t *testing.T) {
	for _, format := range []Format{FormatTSV, FormatNDJSON} {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			rec := &Record{Function: "f", LocalTime: v, TotalTime: 1}
			if data, err := FormatRecord(rec, format, 6); err == nil {
				t.Fatalf("%v: FormatRecord(%v) = %q, want error", format, v, data)
			}
		}
	}

	var buf bytes.Buffer
	sink := NewStreamSink(&buf, FormatNDJSON, 6)
	if err := sink.Emit(&Record{Function: "f", TotalTime: math.NaN()}); err == nil {
		t.Fatalf("Emit accepted a NaN time")
	}
	if buf.Len() != 0 {
		t.Fatalf("failed Emit wrote %q", buf.String())
	}
}

func TestSanitizeSource(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"@f.lua", "@f.lua"},
		{"@dir/with\ttab.lua", "@dir/with tab.lua"},
		{"return 1 + 1", DynamicSource},
		{"", DynamicSource},
		{"=stdin", DynamicSource},
	}
	for _, tc := range cases {
		if got := SanitizeSource(tc.in); got != tc.want {
			t.Fatalf("SanitizeSource(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeNameTruncates(t *testing.T) {
	long := strings.Repeat("a", MaxFunctionNameLength+40)
	got := SanitizeName(long)
	if len(got) != MaxFunctionNameLength+2 {
		t.Fatalf("len = %d, want %d", len(got), MaxFunctionNameLength+2)
	}
	if !strings.HasPrefix(got, `"`) || !strings.HasSuffix(got, `"`) {
		t.Fatalf("truncated name not quoted: %q", got)
	}

	exact := strings.Repeat("b", MaxFunctionNameLength)
	if got := SanitizeName(exact); got != exact {
		t.Fatalf("name at the limit was altered")
	}
}

func TestSanitizeNameKeepsRunesWhole(t *testing.T) {
	// 255 ASCII bytes then a 3-byte rune straddling the limit
	name := strings.Repeat("x", MaxFunctionNameLength-1) + "世界"
	got := SanitizeName(name)
	inner := strings.Trim(got, `"`)
	if inner != strings.Repeat("x", MaxFunctionNameLength-1) {
		t.Fatalf("rune split at the cut: %q", inner[len(inner)-4:])
	}
}

func TestReservedCharactersNeverSplitRecords(t *testing.T) {
	rec := &Record{
		Source:   "@evil\nfile\t|.lua",
		Function: "na\tme\nwith|pipe\r",
	}
	for _, format := range []Format{FormatTSV, FormatNDJSON} {
		line := mustFormat(t, rec, format)
		body := strings.TrimSuffix(line, "\n")
		if strings.ContainsAny(body, "\n\r|") {
			t.Fatalf("%v: reserved character leaked: %q", format, line)
		}
		if format == FormatTSV && strings.Count(body, "\t") != 6 {
			t.Fatalf("tsv: %d tabs, want 6: %q", strings.Count(body, "\t"), line)
		}
	}
}

func TestStreamSinkHeaderAndRecords(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf, FormatTSV, 6)
	if err := sink.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if err := sink.Emit(&Record{Level: 0, Source: "@a", Function: "f"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	// flushed without an explicit Flush
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 || lines[0]+"\n" != Header {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Emit(&Record{}); err == nil {
		t.Fatalf("Emit after Close succeeded")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamSinkSurfacesWriteErrors(t *testing.T) {
	sink := NewStreamSink(failingWriter{}, FormatTSV, 6)
	if err := sink.Emit(&Record{Function: "f", Source: "@a"}); err == nil {
		t.Fatalf("Emit to failing writer returned nil")
	}
}

func TestRingSinkWraps(t *testing.T) {
	ring := NewRingSink(3)
	for i := 0; i < 5; i++ {
		if err := ring.Emit(&Record{Level: i}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	snap := ring.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	for i, want := range []int{2, 3, 4} {
		if snap[i].Level != want {
			t.Fatalf("snap[%d].Level = %d, want %d", i, snap[i].Level, want)
		}
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatTSV, 6); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("Dump wrote %q", buf.String())
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := NewRingSink(4), NewRingSink(4)
	m := NewMultiSink(a, b, Nop)
	if err := m.Emit(&Record{Function: "f"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 1 {
		t.Fatalf("record not delivered to every sink")
	}
	failing := NewStreamSink(failingWriter{}, FormatTSV, 6)
	if err := NewMultiSink(a, failing).Emit(&Record{}); err == nil {
		t.Fatalf("MultiSink swallowed error")
	}
	if len(a.Snapshot()) != 2 {
		t.Fatalf("healthy sink skipped after a failing one")
	}
}

func TestReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sink := NewStreamSink(&buf, FormatTSV, 6)
	if err := sink.WriteHeader(); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	in := []Record{
		{Level: 1, Source: "@f.lua", Function: "bar", LineDefined: 5, CurrentLine: 5, LocalTime: 0.25, TotalTime: 0.25},
		{Level: 0, Source: "@f.lua", Function: "foo", LineDefined: 1, CurrentLine: 1, LocalTime: 0.5, TotalTime: 0.75},
	}
	for i := range in {
		if err := sink.Emit(&in[i]); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	ndjson := NewStreamSink(&buf, FormatNDJSON, 6)
	if err := ndjson.Emit(&in[0]); err != nil {
		t.Fatalf("Emit ndjson: %v", err)
	}

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d records, want 3", len(got))
	}
	for i, want := range []Record{in[0], in[1], in[0]} {
		if got[i] != want {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], want)
		}
	}
}

func TestReadSessionsSplitsAtHeaders(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range []Format{FormatTSV, FormatNDJSON} {
		sink := NewStreamSink(&buf, format, 6)
		if err := sink.WriteHeader(); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		for _, fn := range []string{"a", "b"} {
			if err := sink.Emit(&Record{Source: "@s", Function: fn}); err != nil {
				t.Fatalf("Emit: %v", err)
			}
		}
	}
	// a header with no records yet does not open an empty session
	buf.WriteString(Header)
	buf.WriteString(Header)
	buf.WriteString("0\t@s\tc\t0\t0\t0.0\t0.0\n")

	sessions, err := ReadSessions(&buf)
	if err != nil {
		t.Fatalf("ReadSessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	for i, want := range []int{2, 2, 1} {
		if len(sessions[i]) != want {
			t.Fatalf("session %d has %d records, want %d", i, len(sessions[i]), want)
		}
	}
	if sessions[2][0].Function != "c" {
		t.Fatalf("last session = %+v", sessions[2])
	}
}

func TestReaderReportsMalformedLine(t *testing.T) {
	r := NewReader(strings.NewReader("0\t@a\tf\t1\t1\t0.1\t0.1\n\nnot a record\n"))
	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	_, err := r.Next()
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("err = %v, want line 3 error", err)
	}
	if _, err := NewReader(strings.NewReader("")).Next(); err != io.EOF {
		t.Fatalf("empty trace err = %v, want io.EOF", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"tsv": FormatTSV, "NDJSON": FormatNDJSON, "": FormatTSV} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("ParseFormat(xml) succeeded")
	}
}
