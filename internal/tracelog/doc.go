// Package tracelog writes finalized call frames as flat trace records.
//
// A trace is a post-order listing of calls: a call's line is written only
// after every call it made has been written. Each line carries the stack
// level the call ran at, which is enough to rebuild the exact call tree,
// repeated visits to the same function included.
//
// # Format
//
// The default format is tab-separated text, one record per line:
//
//	stack_level	file_defined	function_name	line_defined	current_line	local_time	total_time
//
// # Sinks
//
//   - StreamSink: writes and flushes every record immediately
//   - RingSink: keeps the last N records in memory
//   - MultiSink: fans records out to several sinks
//   - Nop: discards everything
package tracelog
