package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is an expression. The set of implementations is closed.
type Expr interface {
	String() string
	exprNode()
}

// Literal is a constant: int64, bool, string or nil.
type Literal struct {
	Value any
}

// LocalRef reads a local.
type LocalRef struct {
	Local *Local
}

// Binary applies Op to X and Y.
type Binary struct {
	X  Expr
	Y  Expr
	Op string
}

// Unary applies Op to X.
type Unary struct {
	X  Expr
	Op string
}

// Call invokes a named method. Calls may have side effects and may throw.
type Call struct {
	Name string
	Args []Expr
}

// New allocates an instance of Type.
type New struct {
	Type Type
}

// Assign stores Value into Target and yields it.
type Assign struct {
	Target *Local
	Value  Expr
}

// Decl declares Local, optionally initialized. A Decl inside a cloned
// subtree introduces a fresh local in the clone.
type Decl struct {
	Local *Local
	Init  Expr
}

// CaughtException yields the exception delivered to the current handler.
type CaughtException struct {
	Type Type
}

func (*Literal) exprNode()         {}
func (*LocalRef) exprNode()        {}
func (*Binary) exprNode()          {}
func (*Unary) exprNode()           {}
func (*Call) exprNode()            {}
func (*New) exprNode()             {}
func (*Assign) exprNode()          {}
func (*Decl) exprNode()            {}
func (*CaughtException) exprNode() {}

func (e *Literal) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}

func (e *LocalRef) String() string { return e.Local.Name }

func (e *Binary) String() string {
	return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")"
}

func (e *Unary) String() string { return e.Op + e.X.String() }

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *New) String() string { return "new " + string(e.Type) + "()" }

func (e *Assign) String() string { return e.Target.Name + " = " + e.Value.String() }

func (e *Decl) String() string {
	s := string(e.Local.Type) + " " + e.Local.Name
	if e.Init != nil {
		s += " = " + e.Init.String()
	}
	return s
}

func (e *CaughtException) String() string { return "caught(" + string(e.Type) + ")" }

// Int returns an integer literal.
func Int(v int64) *Literal { return &Literal{Value: v} }

// Bool returns a boolean literal.
func Bool(v bool) *Literal { return &Literal{Value: v} }

// Ref returns a reference to l.
func Ref(l *Local) *LocalRef { return &LocalRef{Local: l} }

// IsConstTrue reports whether e is absent or the literal true. Loop
// conditions that are constant true need no test.
func IsConstTrue(e Expr) bool {
	if e == nil {
		return true
	}
	lit, ok := e.(*Literal)
	if !ok {
		return false
	}
	b, ok := lit.Value.(bool)
	return ok && b
}

// IsPure reports whether evaluating e has no effects and cannot throw.
func IsPure(e Expr) bool {
	switch e.(type) {
	case nil, *Literal, *LocalRef:
		return true
	}
	return false
}

// CloneExpr deep-copies e, substituting locals found in remap.
func CloneExpr(e Expr, remap map[*Local]*Local) Expr {
	local := func(l *Local) *Local {
		if n, ok := remap[l]; ok {
			return n
		}
		return l
	}
	switch x := e.(type) {
	case nil:
		return nil
	case *Literal:
		return &Literal{Value: x.Value}
	case *LocalRef:
		return &LocalRef{Local: local(x.Local)}
	case *Binary:
		return &Binary{Op: x.Op, X: CloneExpr(x.X, remap), Y: CloneExpr(x.Y, remap)}
	case *Unary:
		return &Unary{Op: x.Op, X: CloneExpr(x.X, remap)}
	case *Call:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = CloneExpr(a, remap)
		}
		return &Call{Name: x.Name, Args: args}
	case *New:
		return &New{Type: x.Type}
	case *Assign:
		return &Assign{Target: local(x.Target), Value: CloneExpr(x.Value, remap)}
	case *Decl:
		return &Decl{Local: local(x.Local), Init: CloneExpr(x.Init, remap)}
	case *CaughtException:
		return &CaughtException{Type: x.Type}
	}
	panic(fmt.Sprintf("ast: unexpected expression %T", e))
}
