package ast

import (
	"fmt"

	"github.com/wippyai/jlower/errors"
)

type editOp uint8

const (
	opReplace editOp = iota
	opInsertBefore
	opInsertAfter
	opAppend
	opPrepend
)

var editOpNames = [...]string{
	opReplace:      "replace",
	opInsertBefore: "insert-before",
	opInsertAfter:  "insert-after",
	opAppend:       "append",
	opPrepend:      "prepend",
}

type edit struct {
	block  *Block
	anchor Stmt
	stmts  []Stmt
	op     editOp
}

// Request records tree edits during a read-only traversal and applies them
// together with Commit.
//
// Anchored edits (Replace, Remove, InsertBefore, InsertAfter) locate their
// anchor in the block that listed it when the edit was recorded. Edits are
// applied in recording order, so an edit may refer to a statement inserted
// by an earlier edit of the same request only through the block that lists
// it. Handler annotations recorded with Annotate are installed by the same
// commit.
type Request struct {
	method      *Method
	annotations map[Stmt][]Handler
	err         error
	edits       []edit
}

// NewRequest creates an empty request for edits to m.
func NewRequest(m *Method) *Request {
	return &Request{method: m}
}

// Len returns the number of recorded structural edits.
func (r *Request) Len() int { return len(r.edits) }

// Empty reports whether the request records nothing.
func (r *Request) Empty() bool { return len(r.edits) == 0 && len(r.annotations) == 0 }

// Replace substitutes old by stmts. With no stmts it removes old.
func (r *Request) Replace(old Stmt, stmts ...Stmt) {
	r.anchored(opReplace, old, stmts)
}

// Remove deletes s.
func (r *Request) Remove(s Stmt) {
	r.anchored(opReplace, s, nil)
}

// InsertBefore places stmts immediately before anchor.
func (r *Request) InsertBefore(anchor Stmt, stmts ...Stmt) {
	r.anchored(opInsertBefore, anchor, stmts)
}

// InsertAfter places stmts immediately after anchor.
func (r *Request) InsertAfter(anchor Stmt, stmts ...Stmt) {
	r.anchored(opInsertAfter, anchor, stmts)
}

// Append adds stmts at the end of b.
func (r *Request) Append(b *Block, stmts ...Stmt) {
	r.edits = append(r.edits, edit{op: opAppend, block: b, stmts: stmts})
}

// Prepend adds stmts at the start of b.
func (r *Request) Prepend(b *Block, stmts ...Stmt) {
	r.edits = append(r.edits, edit{op: opPrepend, block: b, stmts: stmts})
}

// Annotate records the handler annotation of s. A later annotation of the
// same statement wins.
func (r *Request) Annotate(s Stmt, hs []Handler) {
	if r.annotations == nil {
		r.annotations = make(map[Stmt][]Handler)
	}
	r.annotations[s] = hs
}

func (r *Request) anchored(op editOp, anchor Stmt, stmts []Stmt) {
	b := EnclosingBlock(anchor)
	if b == nil && r.err == nil {
		r.err = errors.StaleEdit(Describe(anchor),
			fmt.Sprintf("%s anchor is not listed in a block", editOpNames[op]))
	}
	r.edits = append(r.edits, edit{op: op, block: b, anchor: anchor, stmts: stmts})
}

// Commit applies every recorded edit. On error the tree is left exactly as
// it was before the call. A request must not be committed twice.
func (r *Request) Commit() error {
	if r.err != nil {
		return r.err
	}

	work := make(map[*Block][]Stmt)
	var order []*Block
	slice := func(b *Block) []Stmt {
		s, ok := work[b]
		if !ok {
			s = append([]Stmt(nil), b.stmts...)
			work[b] = s
			order = append(order, b)
		}
		return s
	}

	for _, e := range r.edits {
		cur := slice(e.block)
		switch e.op {
		case opAppend:
			cur = append(cur, e.stmts...)
		case opPrepend:
			cur = splice(cur, 0, 0, e.stmts)
		default:
			i := indexOf(cur, e.anchor)
			if i < 0 {
				return errors.StaleEdit(Describe(e.anchor),
					fmt.Sprintf("%s anchor is no longer listed in %s", editOpNames[e.op], Describe(e.block)))
			}
			switch e.op {
			case opReplace:
				cur = splice(cur, i, 1, e.stmts)
			case opInsertBefore:
				cur = splice(cur, i, 0, e.stmts)
			case opInsertAfter:
				cur = splice(cur, i+1, 0, e.stmts)
			}
		}
		work[e.block] = cur
	}

	// Detach everything that left a block before linking new children, so a
	// statement moved between blocks ends up with its new parent.
	for _, b := range order {
		kept := make(map[Stmt]bool, len(work[b]))
		for _, s := range work[b] {
			kept[s] = true
		}
		for _, s := range b.stmts {
			if !kept[s] && s.Parent() == Stmt(b) {
				s.base().parent = nil
			}
		}
	}
	for _, b := range order {
		b.stmts = work[b]
	}
	for _, b := range order {
		for _, s := range b.stmts {
			link(s, b)
		}
	}

	for s, hs := range r.annotations {
		s.base().handlers = hs
	}

	r.edits = nil
	r.annotations = nil
	return nil
}

func indexOf(stmts []Stmt, s Stmt) int {
	for i, c := range stmts {
		if c == s {
			return i
		}
	}
	return -1
}

// splice replaces n elements at i with ins.
func splice(stmts []Stmt, i, n int, ins []Stmt) []Stmt {
	out := make([]Stmt, 0, len(stmts)-n+len(ins))
	out = append(out, stmts[:i]...)
	out = append(out, ins...)
	return append(out, stmts[i+n:]...)
}
