package tracelog

import (
	"strings"
	"unicode/utf8"
)

// MaxFunctionNameLength bounds the function_name field in bytes, not
// counting the quotes that mark a truncated name.
const MaxFunctionNameLength = 256

// DynamicSource replaces the source of code that was not loaded from a file.
const DynamicSource = "(string)"

// Header is the optional first line of a TSV trace.
const Header = "stack_level\tfile_defined\tfunction_name\tline_defined\tcurrent_line\tlocal_time\ttotal_time\n"

// NDJSONHeader is the optional first line of an NDJSON trace.
const NDJSONHeader = `{"columns":["stack_level","file_defined","function_name","line_defined","current_line","local_time","total_time"]}` + "\n"

// isHeader reports whether a trace line is a column header. Each session
// opened with a header starts with one, so in a file shared by several
// sessions it marks where the next session begins.
func isHeader(line string) bool {
	return strings.HasPrefix(line, "stack_level\t") || strings.HasPrefix(line, `{"columns":`)
}

// Record is one finalized call.
type Record struct {
	Level       int     // zero-based stack level
	Source      string  // "@path" for files, anything else for dynamic chunks
	Function    string  // function name
	LineDefined int     // line where the function is defined
	CurrentLine int     // line executing when the call was entered
	LocalTime   float64 // seconds in the function's own body
	TotalTime   float64 // seconds including callees
}

var fieldReplacer = strings.NewReplacer(
	"\t", " ",
	"\n", " ",
	"\r", " ",
	"|", " ",
)

// escape replaces characters reserved by the trace format with spaces.
func escape(s string) string {
	if !strings.ContainsAny(s, "\t\n\r|") {
		return s
	}
	return fieldReplacer.Replace(s)
}

// SanitizeSource returns the file_defined field for a source. Sources that
// start with '@' name a file; anything else is dynamically evaluated code.
func SanitizeSource(src string) string {
	if !strings.HasPrefix(src, "@") {
		return DynamicSource
	}
	return escape(src)
}

// SanitizeName returns the function_name field for a name. Names longer
// than MaxFunctionNameLength are cut at a rune boundary and quoted.
func SanitizeName(name string) string {
	name = escape(name)
	if len(name) <= MaxFunctionNameLength {
		return name
	}
	cut := MaxFunctionNameLength
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return `"` + name[:cut] + `"`
}
