package ast

import "slices"

// ID identifies a statement within its Method's arena.
type ID uint32

// Type names a Java reference or primitive type.
type Type string

// Throwable is the universal exception type. A catch clause listing it
// catches every exception.
const Throwable Type = "java.lang.Throwable"

// Kind discriminates statement variants.
type Kind uint8

const (
	KindBlock Kind = iota
	KindIf
	KindWhile
	KindDoWhile
	KindFor
	KindLabeled
	KindGoto
	KindReturn
	KindThrow
	KindBreak
	KindContinue
	KindTry
	KindSynchronized
	KindLock
	KindUnlock
	KindSwitch
	KindCase
	KindExpr
)

var kindNames = [...]string{
	KindBlock:        "block",
	KindIf:           "if",
	KindWhile:        "while",
	KindDoWhile:      "do",
	KindFor:          "for",
	KindLabeled:      "labeled",
	KindGoto:         "goto",
	KindReturn:       "return",
	KindThrow:        "throw",
	KindBreak:        "break",
	KindContinue:     "continue",
	KindTry:          "try",
	KindSynchronized: "synchronized",
	KindLock:         "lock",
	KindUnlock:       "unlock",
	KindSwitch:       "switch",
	KindCase:         "case",
	KindExpr:         "expr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Stmt is a statement node. The set of implementations is closed.
type Stmt interface {
	// ID returns the arena index of the statement.
	ID() ID
	// Kind returns the statement variant.
	Kind() Kind
	// Parent returns the owning statement, or nil for the method root and
	// for detached statements.
	Parent() Stmt
	// Handlers returns the catch clauses active at this statement, innermost
	// first. Empty until try/catch flattening.
	Handlers() []Handler

	base() *node
}

type node struct {
	parent   Stmt
	handlers []Handler
	id       ID
}

func (n *node) ID() ID              { return n.id }
func (n *node) Parent() Stmt        { return n.parent }
func (n *node) Handlers() []Handler { return n.handlers }
func (n *node) base() *node         { return n }

// Handler is one entry of a statement's catch-clause annotation.
type Handler struct {
	// Target labels the handler block; the encoder branches here.
	Target *Labeled
	// Block is the handler body.
	Block *Block
	// Types are the caught types still reachable at this statement, after
	// removing types caught by nearer handlers.
	Types []Type
}

// CatchesAll reports whether the handler catches every exception.
func (h Handler) CatchesAll() bool {
	return slices.Contains(h.Types, Throwable)
}

// Local is a method-local variable.
type Local struct {
	Name string
	Type Type
	ID   int
}

func (l *Local) String() string { return l.Name }
