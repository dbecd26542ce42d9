// Package marker holds the inlined-finally side table shared by the finally
// inliner and the try/catch flattener.
package marker

import "github.com/wippyai/jlower/ast"

// Marker links a cloned finally block to the try it was inlined from.
type Marker struct {
	// Origin is the try whose finally was cloned, after its finally block
	// was removed.
	Origin *ast.Try
	// Host is the synthetic try carrying the catch-all rethrow. It encloses
	// Origin, or is Origin itself when the original try had no catches.
	Host *ast.Try
	// CatchIntoFinally is set when the clone lives in a catch handler of
	// Origin or Host rather than in Origin's protected body.
	CatchIntoFinally bool
}

// Table maps cloned finally blocks, by arena ID, to their markers.
type Table struct {
	entries map[ast.ID]Marker
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[ast.ID]Marker)}
}

// Set records the marker for a cloned block.
func (t *Table) Set(b *ast.Block, m Marker) {
	t.entries[b.ID()] = m
}

// Get returns the marker of b, if any.
func (t *Table) Get(b *ast.Block) (Marker, bool) {
	if t == nil {
		return Marker{}, false
	}
	m, ok := t.entries[b.ID()]
	return m, ok
}

// Len returns the number of markers.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Each calls fn for every marked block still attached to m.
func (t *Table) Each(m *ast.Method, fn func(*ast.Block, Marker)) {
	if t == nil {
		return
	}
	for id, mk := range t.entries {
		if b, ok := m.Node(id).(*ast.Block); ok && m.Attached(b) {
			fn(b, mk)
		}
	}
}

// Prune drops the markers of blocks no longer reachable from the body of m.
func (t *Table) Prune(m *ast.Method) {
	if t == nil {
		return
	}
	for id := range t.entries {
		if s := m.Node(id); s == nil || !m.Attached(s) {
			delete(t.entries, id)
		}
	}
}

// Remap copies markers found inside a cloned subtree onto the clone,
// translating origin and host through the clone map.
func (t *Table) Remap(cm *ast.CloneMap) {
	for orig, dup := range cm.Stmts {
		b, ok := orig.(*ast.Block)
		if !ok {
			continue
		}
		mk, ok := t.entries[b.ID()]
		if !ok {
			continue
		}
		t.entries[dup.ID()] = Marker{
			Origin:           cm.Stmt(mk.Origin).(*ast.Try),
			Host:             cm.Stmt(mk.Host).(*ast.Try),
			CatchIntoFinally: mk.CatchIntoFinally,
		}
	}
}

// Clear drops every marker.
func (t *Table) Clear() {
	if t != nil {
		clear(t.entries)
	}
}
