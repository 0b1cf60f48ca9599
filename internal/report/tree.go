package report

import (
	"slices"

	"lprof/internal/tracelog"
)

// Node is one call in a rebuilt call tree.
type Node struct {
	tracelog.Record
	Children []*Node
}

// Tree is a call tree rebuilt from a post-order trace.
type Tree struct {
	Roots   []*Node
	Calls   int // number of records
	Orphans int // subtrees whose caller never finished
}

// Build rebuilds the call tree from records in trace order, one slice per
// session. Sessions appended to the same file are rebuilt independently, so
// calls stranded by one session are never adopted by the next.
//
// A record is written after all of its callees, and its callees are
// exactly the records one level deeper written since the previous record at
// its own level. Records left waiting for a caller when a session ends, or
// stranded by a shallower record that cannot adopt them, belong to calls
// that were still running when their session closed; they become extra
// roots and are counted as orphans.
func Build(sessions ...[]tracelog.Record) *Tree {
	b := &builder{t: &Tree{}}
	for _, records := range sessions {
		b.start = len(b.t.Roots)
		for _, rec := range records {
			b.add(rec)
		}
		b.endSession()
	}
	return b.t
}

type builder struct {
	t       *Tree
	pending [][]*Node
	start   int // first root of the current session
}

// strand turns every pending node at level from or deeper into an orphan.
func (b *builder) strand(from int) {
	for lvl := len(b.pending) - 1; lvl >= from; lvl-- {
		if len(b.pending[lvl]) > 0 {
			b.t.Orphans += len(b.pending[lvl])
			b.t.Roots = append(b.t.Roots, b.pending[lvl]...)
			b.pending[lvl] = nil
		}
	}
}

func (b *builder) add(rec tracelog.Record) {
	b.t.Calls++
	n := &Node{Record: rec}
	lvl := rec.Level
	b.strand(lvl + 2)
	if lvl+1 < len(b.pending) {
		n.Children = b.pending[lvl+1]
		b.pending[lvl+1] = nil
	}
	for len(b.pending) <= lvl {
		b.pending = append(b.pending, nil)
	}
	b.pending[lvl] = append(b.pending[lvl], n)
}

// endSession closes the current session: finished top-level calls become
// roots ahead of the session's orphans.
func (b *builder) endSession() {
	b.strand(1)
	if len(b.pending) > 0 {
		b.t.Roots = slices.Insert(b.t.Roots, b.start, b.pending[0]...)
	}
	b.pending = b.pending[:0]
}

// Walk visits every node depth-first, callers before callees. Returning
// false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.Roots {
		visit(r, 0)
	}
}
