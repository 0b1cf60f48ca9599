package tracelog

import (
	"io"
	"sync"
)

// RingSink keeps the last N records in memory (circular buffer).
type RingSink struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
	head     int  // next write position
	full     bool // has wrapped around
}

// NewRingSink creates a RingSink with specified capacity.
func NewRingSink(capacity int) *RingSink {
	if capacity <= 0 {
		capacity = 4096
	}

	return &RingSink{
		records:  make([]Record, capacity),
		capacity: capacity,
	}
}

// Emit adds a record to the ring buffer.
func (r *RingSink) Emit(rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.head] = *rec
	r.head = (r.head + 1) % r.capacity

	if r.head == 0 {
		r.full = true
	}
	return nil
}

// Snapshot returns a copy of all stored records in emission order.
func (r *RingSink) Snapshot() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		result := make([]Record, r.head)
		copy(result, r.records[:r.head])
		return result
	}

	result := make([]Record, r.capacity)
	copy(result, r.records[r.head:])
	copy(result[r.capacity-r.head:], r.records[:r.head])
	return result
}

// Dump writes all records to the provided writer in the specified format.
func (r *RingSink) Dump(w io.Writer, format Format, prec int) error {
	records := r.Snapshot()

	for i := range records {
		data, err := FormatRecord(&records[i], format, prec)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}

	return nil
}

// Flush is a no-op for RingSink since everything is in memory.
func (r *RingSink) Flush() error {
	return nil
}

// Close is a no-op for RingSink.
func (r *RingSink) Close() error {
	return nil
}
