package tracelog

// Sink receives finalized records.
type Sink interface {
	// Emit writes one record. The record is durable once Emit returns
	// without error.
	Emit(rec *Record) error

	// Flush ensures all buffered data is written.
	Flush() error

	// Close flushes and releases resources.
	Close() error
}

// nopSink discards records. It backs sessions that only measure time.
type nopSink struct{}

// Emit does nothing.
func (nopSink) Emit(*Record) error { return nil }

// Flush does nothing.
func (nopSink) Flush() error { return nil }

// Close does nothing.
func (nopSink) Close() error { return nil }

// Nop is the package-level singleton nop sink.
var Nop Sink = nopSink{}
