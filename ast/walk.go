package ast

import "fmt"

// Children calls fn for each direct child of s in program order. Catch
// handler bodies follow the try body; a finally block comes last.
func Children(s Stmt, fn func(Stmt)) {
	switch n := s.(type) {
	case *Block:
		for _, c := range n.stmts {
			fn(c)
		}
	case *If:
		fn(n.Then)
		if n.Else != nil {
			fn(n.Else)
		}
	case *While:
		fn(n.Body)
	case *DoWhile:
		fn(n.Body)
	case *For:
		if n.Init != nil {
			fn(n.Init)
		}
		fn(n.Body)
		if n.Update != nil {
			fn(n.Update)
		}
	case *Labeled:
		fn(n.Body)
	case *Try:
		fn(n.Body)
		for _, c := range n.Catches {
			fn(c.Body)
		}
		if n.Finally != nil {
			fn(n.Finally)
		}
	case *Synchronized:
		fn(n.Body)
	case *Switch:
		fn(n.Body)
	case *Goto, *Return, *Throw, *Break, *Continue, *Lock, *Unlock, *Case, *ExprStmt:
	default:
		panic(fmt.Sprintf("ast: unexpected statement %T", s))
	}
}

// Inspect traverses the subtree rooted at s in depth-first order. If fn
// returns false, the children of that statement are skipped.
func Inspect(s Stmt, fn func(Stmt) bool) {
	if !fn(s) {
		return
	}
	Children(s, func(c Stmt) { Inspect(c, fn) })
}

// link sets the parent of s and, recursively, of every statement beneath it.
func link(s, parent Stmt) {
	s.base().parent = parent
	Children(s, func(c Stmt) { link(c, s) })
}

// Encloses reports whether inner is outer or lies beneath it, following
// parent pointers.
func Encloses(outer, inner Stmt) bool {
	for s := inner; s != nil; s = s.Parent() {
		if s == outer {
			return true
		}
	}
	return false
}

// Attached reports whether s is reachable from the method root.
func (m *Method) Attached(s Stmt) bool {
	return Encloses(m.Body, s)
}

// EnclosingBlock returns the block that lists s, or nil when s occupies a
// slot of its parent or is detached.
func EnclosingBlock(s Stmt) *Block {
	b, _ := s.Parent().(*Block)
	return b
}

// EndsAbruptly reports whether control can never fall off the end of s:
// s is a return, throw or goto, a block whose last statement ends abruptly,
// a labeled statement whose body does, an if whose branches both do, or a
// try whose block and catch blocks all do or whose finally block does.
//
// The check is syntactic. A false result means control may complete
// normally.
func EndsAbruptly(s Stmt) bool {
	switch n := s.(type) {
	case *Return, *Throw, *Goto:
		return true
	case *Block:
		last := n.Last()
		return last != nil && EndsAbruptly(last)
	case *Labeled:
		return EndsAbruptly(n.Body)
	case *If:
		return n.Else != nil && EndsAbruptly(n.Then) && EndsAbruptly(n.Else)
	case *Try:
		if n.Finally != nil && EndsAbruptly(n.Finally) {
			return true
		}
		if n.Body.Len() == 0 || !EndsAbruptly(n.Body) {
			return false
		}
		for _, c := range n.Catches {
			if !EndsAbruptly(c.Body) {
				return false
			}
		}
		return true
	}
	return false
}

// ContainsKind reports whether any statement in the subtree rooted at s has
// one of the given kinds.
func ContainsKind(s Stmt, kinds ...Kind) bool {
	found := false
	Inspect(s, func(n Stmt) bool {
		if found {
			return false
		}
		for _, k := range kinds {
			if n.Kind() == k {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
