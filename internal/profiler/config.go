package profiler

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"

	"lprof/internal/clock"
	"lprof/internal/tracelog"
)

// DefaultOutputTemplate names trace files when no template is configured.
// The %s token is replaced by the session id.
const DefaultOutputTemplate = "lprof_%s.out"

// idToken is the single substitution token of an output template.
const idToken = "%s"

// Config holds session configuration.
type Config struct {
	OutputPathTemplate string          // where to create the trace ("" for DefaultOutputTemplate)
	EmitHeader         bool            // write the column header line first
	CallOverhead       float64         // seconds added to every finalized frame
	Clock              clock.Kind      // time source
	Format             tracelog.Format // trace line format
	RingSize           int             // also keep the last N records in memory (0 = off)
	SessionID          string          // substituted into the template ("" for a fresh UUID)
}

// OutputPath resolves the configured template for a session id. Only the
// first %s token is substituted.
func (c Config) OutputPath(id string) string {
	tmpl := c.OutputPathTemplate
	if tmpl == "" {
		tmpl = DefaultOutputTemplate
	}
	return strings.Replace(tmpl, idToken, id, 1)
}

func (c Config) sessionID() string {
	if c.SessionID != "" {
		return c.SessionID
	}
	return uuid.NewString()
}

func (c Config) validate() error {
	if math.IsNaN(c.CallOverhead) || math.IsInf(c.CallOverhead, 0) {
		return fmt.Errorf("call overhead must be a finite number: %v", c.CallOverhead)
	}
	if c.CallOverhead < 0 {
		return fmt.Errorf("call overhead must not be negative: %v", c.CallOverhead)
	}
	if c.RingSize < 0 {
		return fmt.Errorf("ring size must not be negative: %d", c.RingSize)
	}
	return nil
}

// openTraceFile opens the trace in append mode so that several sessions
// may target the same file.
func openTraceFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
