package tracelog

import (
	"bufio"
	"io"
	"sync"
)

// StreamSink writes records immediately to an io.Writer and flushes after
// every record, so a trace survives the process being killed.
type StreamSink struct {
	mu     sync.Mutex
	dst    io.Writer
	w      *bufio.Writer
	format Format
	prec   int
	closed bool
}

// NewStreamSink creates a StreamSink. prec is the number of fractional
// digits written for times (DefaultPrecision if zero).
func NewStreamSink(w io.Writer, format Format, prec int) *StreamSink {
	return &StreamSink{
		dst:    w,
		w:      bufio.NewWriter(w),
		format: format,
		prec:   prec,
	}
}

// WriteHeader writes the column header line for the sink's format.
func (s *StreamSink) WriteHeader() error {
	header := Header
	if s.format == FormatNDJSON {
		header = NDJSONHeader
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.WriteString(header); err != nil {
		return err
	}
	return s.w.Flush()
}

// Emit writes one record and flushes it.
func (s *StreamSink) Emit(rec *Record) error {
	data, err := FormatRecord(rec, s.format, s.prec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	return s.w.Flush()
}

// Flush writes any buffered data to the underlying writer.
func (s *StreamSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

// Close flushes and closes the writer if it implements io.Closer.
func (s *StreamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	flushErr := s.w.Flush()
	if closer, ok := s.dst.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return flushErr
}
