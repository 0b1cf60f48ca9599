// Package report rebuilds call trees from trace files and summarizes them
// per function.
package report

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"lprof/internal/tracelog"
)

// Trace is the content of one trace file.
type Trace struct {
	Path     string
	Records  []tracelog.Record   // every record in file order
	Sessions [][]tracelog.Record // the same records split per session
}

// Tree rebuilds the call tree of every session in the trace.
func (tr Trace) Tree() *Tree {
	return Build(tr.Sessions...)
}

// ReadFile parses one trace file.
func ReadFile(path string) (Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return Trace{}, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	sessions, err := tracelog.ReadSessions(f)
	if err != nil {
		return Trace{}, fmt.Errorf("%s: %w", path, err)
	}
	tr := Trace{Path: path, Sessions: sessions}
	for _, records := range sessions {
		tr.Records = append(tr.Records, records...)
	}
	return tr, nil
}

// ReadFiles parses trace files in parallel. Results keep the order of
// paths. jobs <= 0 uses GOMAXPROCS.
func ReadFiles(ctx context.Context, jobs int, paths ...string) ([]Trace, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]Trace, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			tr, err := ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = tr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
