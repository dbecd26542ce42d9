package ast

// Block is an ordered statement list. It owns its children.
type Block struct {
	node
	stmts []Stmt
}

func (*Block) Kind() Kind { return KindBlock }

// Stmts returns the children. The slice must not be modified; use a Request.
func (b *Block) Stmts() []Stmt { return b.stmts }

// Len returns the number of children.
func (b *Block) Len() int { return len(b.stmts) }

// Last returns the final child, or nil for an empty block.
func (b *Block) Last() Stmt {
	if len(b.stmts) == 0 {
		return nil
	}
	return b.stmts[len(b.stmts)-1]
}

// If is a conditional. Else may be nil.
type If struct {
	node
	Cond Expr
	Then *Block
	Else *Block
}

func (*If) Kind() Kind { return KindIf }

// While is a pre-tested loop. Removed by loop normalization.
type While struct {
	node
	Cond Expr
	Body *Block
}

func (*While) Kind() Kind { return KindWhile }

// DoWhile is a post-tested loop. Removed by loop normalization.
type DoWhile struct {
	node
	Body *Block
	Cond Expr
}

func (*DoWhile) Kind() Kind { return KindDoWhile }

// For is a three-clause loop. Init and Update may be nil; a nil Cond is
// constant true. Removed by loop normalization.
type For struct {
	node
	Init   *Block
	Cond   Expr
	Update *Block
	Body   *Block
}

func (*For) Kind() Kind { return KindFor }

// Labeled marks the start of Body as a branch target.
//
// Name is unique within the method. Source is the label written in the
// program, used by labeled break and continue; it is empty for synthetic
// labels.
type Labeled struct {
	node
	Name   string
	Source string
	Body   *Block
}

func (*Labeled) Kind() Kind { return KindLabeled }

// Goto transfers control to Target.
type Goto struct {
	node
	Target *Labeled
}

func (*Goto) Kind() Kind { return KindGoto }

// Return exits the method. Value is nil for void returns.
type Return struct {
	node
	Value Expr
}

func (*Return) Kind() Kind { return KindReturn }

// Throw raises Value.
type Throw struct {
	node
	Value Expr
}

func (*Throw) Kind() Kind { return KindThrow }

// Break exits the innermost loop or switch, or the statement labeled Label.
type Break struct {
	node
	Label string
}

func (*Break) Kind() Kind { return KindBreak }

// Continue resumes the innermost loop, or the loop labeled Label.
type Continue struct {
	node
	Label string
}

func (*Continue) Kind() Kind { return KindContinue }

// Try is a protected region with catch clauses and an optional finally.
type Try struct {
	node
	Body    *Block
	Catches []*Catch
	Finally *Block
}

func (*Try) Kind() Kind { return KindTry }

// Catch is one catch clause of a Try. Catch is not a statement; its Body's
// parent is the owning Try.
type Catch struct {
	Var   *Local
	Body  *Block
	Types []Type
}

// CatchesAll reports whether the clause catches every exception.
func (c *Catch) CatchesAll() bool {
	for _, t := range c.Types {
		if t == Throwable {
			return true
		}
	}
	return false
}

// Synchronized runs Body holding the monitor of Lock.
type Synchronized struct {
	node
	Lock Expr
	Body *Block
}

func (*Synchronized) Kind() Kind { return KindSynchronized }

// Lock enters the monitor of X.
type Lock struct {
	node
	X Expr
}

func (*Lock) Kind() Kind { return KindLock }

// Unlock exits the monitor of X.
type Unlock struct {
	node
	X Expr
}

func (*Unlock) Kind() Kind { return KindUnlock }

// Switch dispatches on Tag to the matching Case among Body's direct children.
type Switch struct {
	node
	Tag  Expr
	Body *Block
}

func (*Switch) Kind() Kind { return KindSwitch }

// Case is an entry point of a Switch body. A nil Value is the default case.
type Case struct {
	node
	Value Expr
}

func (*Case) Kind() Kind { return KindCase }

// ExprStmt evaluates X for its effects.
type ExprStmt struct {
	node
	X Expr
}

func (*ExprStmt) Kind() Kind { return KindExpr }
