package tracelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader parses a trace back into records. It accepts TSV and NDJSON
// lines and skips blank lines. Header lines are not returned; a header that
// follows records starts a new session (see Session).
type Reader struct {
	scanner *bufio.Scanner
	line    int
	session int
	seen    bool // a record was returned in the current session
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next record, or io.EOF when the trace is exhausted.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isHeader(line) {
			if r.seen {
				r.session++
				r.seen = false
			}
			continue
		}
		var (
			rec Record
			err error
		)
		if strings.HasPrefix(line, "{") {
			rec, err = parseNDJSON(line)
		} else {
			rec, err = parseTSV(line)
		}
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		r.seen = true
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("error reading trace: %w", err)
	}
	return Record{}, io.EOF
}

// Session returns the zero-based index of the session the last record
// returned by Next belongs to. Sessions written without a header cannot be
// told apart from the one before them.
func (r *Reader) Session() int { return r.session }

// ReadSessions parses every record of a trace, grouped by session.
func ReadSessions(r io.Reader) ([][]Record, error) {
	reader := NewReader(r)
	var out [][]Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if reader.Session() == len(out) {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], rec)
	}
}

// ReadAll parses every record of a trace.
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var out []Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func parseTSV(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		return Record{}, fmt.Errorf("malformed record: %d fields, want 7", len(fields))
	}
	var (
		rec Record
		err error
	)
	if rec.Level, err = strconv.Atoi(fields[0]); err != nil {
		return Record{}, fmt.Errorf("invalid stack_level %q: %w", fields[0], err)
	}
	if rec.Level < 0 {
		return Record{}, fmt.Errorf("negative stack_level %d", rec.Level)
	}
	rec.Source = fields[1]
	rec.Function = fields[2]
	if rec.LineDefined, err = strconv.Atoi(fields[3]); err != nil {
		return Record{}, fmt.Errorf("invalid line_defined %q: %w", fields[3], err)
	}
	if rec.CurrentLine, err = strconv.Atoi(fields[4]); err != nil {
		return Record{}, fmt.Errorf("invalid current_line %q: %w", fields[4], err)
	}
	if rec.LocalTime, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return Record{}, fmt.Errorf("invalid local_time %q: %w", fields[5], err)
	}
	if rec.TotalTime, err = strconv.ParseFloat(fields[6], 64); err != nil {
		return Record{}, fmt.Errorf("invalid total_time %q: %w", fields[6], err)
	}
	return rec, nil
}

func parseNDJSON(line string) (Record, error) {
	var j struct {
		Level       int     `json:"stack_level"`
		Source      string  `json:"file_defined"`
		Function    string  `json:"function_name"`
		LineDefined int     `json:"line_defined"`
		CurrentLine int     `json:"current_line"`
		LocalTime   float64 `json:"local_time"`
		TotalTime   float64 `json:"total_time"`
	}
	if err := json.Unmarshal([]byte(line), &j); err != nil {
		return Record{}, fmt.Errorf("malformed json record: %w", err)
	}
	if j.Level < 0 {
		return Record{}, fmt.Errorf("negative stack_level %d", j.Level)
	}
	return Record{
		Level:       j.Level,
		Source:      j.Source,
		Function:    j.Function,
		LineDefined: j.LineDefined,
		CurrentLine: j.CurrentLine,
		LocalTime:   j.LocalTime,
		TotalTime:   j.TotalTime,
	}, nil
}
