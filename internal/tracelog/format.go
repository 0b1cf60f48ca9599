package tracelog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format represents the output format for trace records.
type Format uint8

const (
	FormatTSV    Format = iota // tab-separated trace lines
	FormatNDJSON               // newline-delimited JSON
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatTSV:
		return "tsv"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "tsv", "":
		return FormatTSV, nil
	case "ndjson":
		return FormatNDJSON, nil
	default:
		return FormatTSV, fmt.Errorf("invalid trace format: %q (expected: tsv|ndjson)", s)
	}
}

// DefaultPrecision is the number of fractional digits used for times when
// the caller does not pick one.
const DefaultPrecision = 6

// FormatRecord formats a record according to the specified format. prec is
// the number of fractional digits for the time fields. Times that are not
// finite numbers are rejected.
func FormatRecord(rec *Record, format Format, prec int) ([]byte, error) {
	if prec <= 0 {
		prec = DefaultPrecision
	}
	if !finite(rec.LocalTime) || !finite(rec.TotalTime) {
		return nil, fmt.Errorf("non-finite time in record for %q: local=%v total=%v", rec.Function, rec.LocalTime, rec.TotalTime)
	}
	switch format {
	case FormatNDJSON:
		return formatNDJSON(rec, prec)
	default:
		return formatTSV(rec, prec), nil
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatTSV(rec *Record, prec int) []byte {
	buf := make([]byte, 0, 96+len(rec.Source)+len(rec.Function))
	buf = strconv.AppendInt(buf, int64(rec.Level), 10)
	buf = append(buf, '\t')
	buf = append(buf, SanitizeSource(rec.Source)...)
	buf = append(buf, '\t')
	buf = append(buf, SanitizeName(rec.Function)...)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(rec.LineDefined), 10)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(rec.CurrentLine), 10)
	buf = append(buf, '\t')
	buf = strconv.AppendFloat(buf, rec.LocalTime, 'f', prec, 64)
	buf = append(buf, '\t')
	buf = strconv.AppendFloat(buf, rec.TotalTime, 'f', prec, 64)
	buf = append(buf, '\n')
	return buf
}

func formatNDJSON(rec *Record, prec int) ([]byte, error) {
	type jsonRecord struct {
		Level       int         `json:"stack_level"`
		Source      string      `json:"file_defined"`
		Function    string      `json:"function_name"`
		LineDefined int         `json:"line_defined"`
		CurrentLine int         `json:"current_line"`
		LocalTime   json.Number `json:"local_time"`
		TotalTime   json.Number `json:"total_time"`
	}

	j := jsonRecord{
		Level:       rec.Level,
		Source:      SanitizeSource(rec.Source),
		Function:    SanitizeName(rec.Function),
		LineDefined: rec.LineDefined,
		CurrentLine: rec.CurrentLine,
		LocalTime:   json.Number(strconv.FormatFloat(rec.LocalTime, 'f', prec, 64)),
		TotalTime:   json.Number(strconv.FormatFloat(rec.TotalTime, 'f', prec, 64)),
	}

	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return append(data, '\n'), nil
}
