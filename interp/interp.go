// Package interp is a reference interpreter for statement trees.
//
// It executes a method at any point of the lowering pipeline: structured
// loops, break/continue, try/catch/finally and synchronized run with their
// Java meaning, and flattened trees dispatch exceptions through the
// handler annotation of the statement that raised them. Running a method
// before and after lowering and comparing the results checks that lowering
// preserved its behavior.
package interp

import (
	"fmt"
	"strings"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
)

// DefaultMaxSteps bounds execution when Env.MaxSteps is zero.
const DefaultMaxSteps = 100_000

// Exception types raised by the interpreter itself.
const (
	ArithmeticException  ast.Type = "java.lang.ArithmeticException"
	NullPointerException ast.Type = "java.lang.NullPointerException"
)

// Object is a heap value created by new.
type Object struct {
	Type ast.Type
}

func (o *Object) String() string { return string(o.Type) }

// Func implements a called method. A non-nil Object is thrown.
type Func func(args []any) (any, *Object)

// Env is the execution environment of one run.
type Env struct {
	// Funcs resolves calls. Calls to unknown names are traced and yield null.
	Funcs map[string]Func
	// Supers maps an exception type to its superclass. Types without an
	// entry extend java.lang.RuntimeException.
	Supers map[ast.Type]ast.Type
	// Args are the parameter values: int64, bool, string, nil or *Object.
	Args     []any
	MaxSteps int
}

// Result is the outcome of a run.
type Result struct {
	// Value is the returned value; nil for void methods and when an
	// exception escaped.
	Value any
	// Thrown is the exception that escaped the method, if any.
	Thrown *Object
	// Trace records calls, log output and monitor operations in order.
	Trace []string
}

// Outcome renders the result as a single comparable line.
func (r Result) Outcome() string {
	if r.Thrown != nil {
		return "throw " + string(r.Thrown.Type)
	}
	return "return " + Format(r.Value)
}

var defaultSupers = map[ast.Type]ast.Type{
	"java.lang.Exception":        ast.Throwable,
	"java.lang.Error":            ast.Throwable,
	"java.lang.RuntimeException": "java.lang.Exception",
	ArithmeticException:          "java.lang.RuntimeException",
	NullPointerException:         "java.lang.RuntimeException",
}

type kind uint8

const (
	normal kind = iota
	brk
	cont
	ret
	thrown
	jump
)

// completion is how a statement finished.
type completion struct {
	value  any
	exc    *Object
	target *ast.Labeled
	label  string
	kind   kind
}

var done = completion{kind: normal}

type machine struct {
	env    Env
	locals map[*ast.Local]any
	caught *Object
	trace  []string
	steps  int
	method string
}

// Run executes m.
func Run(m *ast.Method, env Env) (res Result, err error) {
	defer errors.Recover(&err)
	if env.MaxSteps <= 0 {
		env.MaxSteps = DefaultMaxSteps
	}
	x := &machine{env: env, locals: make(map[*ast.Local]any), method: m.String()}
	for i, p := range m.Params {
		if i < len(env.Args) {
			x.locals[p] = env.Args[i]
		}
	}

	c := x.block(m.Body, nil)
	res.Trace = x.trace
	switch c.kind {
	case normal:
	case ret:
		res.Value = c.value
	case thrown:
		res.Thrown = c.exc
	case jump:
		x.fail(errors.KindDanglingGoto, m.Body, "goto %s left the method", c.target.Name)
	default:
		x.fail(errors.KindUnresolvedTarget, m.Body, "break or continue %q left the method", c.label)
	}
	return res, nil
}

func (x *machine) fail(kind errors.Kind, s ast.Stmt, format string, args ...any) {
	errors.New(errors.PhaseExec, kind).
		Method(x.method).
		Node(ast.Describe(s)).
		Detail(format, args...).
		Fail()
}

func (x *machine) step(s ast.Stmt) {
	x.steps++
	if x.steps > x.env.MaxSteps {
		x.fail(errors.KindStepLimit, s, "exceeded %d steps", x.env.MaxSteps)
	}
}

// childIndex returns the index of the child of b enclosing target, or -1.
func childIndex(b *ast.Block, target ast.Stmt) int {
	for i, s := range b.Stmts() {
		if ast.Encloses(s, target) {
			return i
		}
	}
	return -1
}

// block runs b. A non-nil seek is a label inside b where execution starts.
// Jumps to labels inside b restart execution there.
func (x *machine) block(b *ast.Block, seek *ast.Labeled) completion {
	stmts := b.Stmts()
	i := 0
	if seek != nil {
		if i = childIndex(b, seek); i < 0 {
			x.fail(errors.KindDanglingGoto, b, "label %s is not in this block", seek.Name)
		}
	}
	for i < len(stmts) {
		c := x.exec(stmts[i], seek)
		seek = nil
		if c.kind == jump {
			if j := childIndex(b, c.target); j >= 0 {
				i, seek = j, c.target
				continue
			}
		}
		if c.kind != normal {
			return c
		}
		i++
	}
	return done
}

func (x *machine) exec(s ast.Stmt, seek *ast.Labeled) completion {
	x.step(s)
	if seek != nil {
		return x.enter(s, seek)
	}

	switch n := s.(type) {
	case *ast.Block:
		return x.block(n, nil)
	case *ast.If:
		v, exc := x.eval(n.Cond)
		if exc != nil {
			return x.throwAt(s, exc)
		}
		if x.truth(s, v) {
			return x.block(n.Then, nil)
		}
		if n.Else != nil {
			return x.block(n.Else, nil)
		}
		return done
	case *ast.While:
		return x.loop(s, n.Cond, n.Body, nil, true)
	case *ast.DoWhile:
		return x.loop(s, n.Cond, n.Body, nil, false)
	case *ast.For:
		if n.Init != nil {
			if c := x.block(n.Init, nil); c.kind != normal {
				return c
			}
		}
		return x.loop(s, n.Cond, n.Body, n.Update, true)
	case *ast.Labeled:
		return x.labeled(n, nil)
	case *ast.Goto:
		return completion{kind: jump, target: n.Target}
	case *ast.Return:
		v, exc := x.eval(n.Value)
		if exc != nil {
			return x.throwAt(s, exc)
		}
		return completion{kind: ret, value: v}
	case *ast.Throw:
		v, exc := x.eval(n.Value)
		if exc != nil {
			return x.throwAt(s, exc)
		}
		obj, ok := v.(*Object)
		if !ok {
			obj = &Object{Type: NullPointerException}
		}
		return x.throwAt(s, obj)
	case *ast.Break:
		return completion{kind: brk, label: n.Label}
	case *ast.Continue:
		return completion{kind: cont, label: n.Label}
	case *ast.Try:
		return x.try(n, nil)
	case *ast.Synchronized:
		v, exc := x.eval(n.Lock)
		if exc != nil {
			return x.throwAt(s, exc)
		}
		x.record("lock:" + Format(v))
		c := x.block(n.Body, nil)
		x.record("unlock:" + Format(v))
		return c
	case *ast.Lock:
		v, exc := x.eval(n.X)
		if exc != nil {
			return x.throwAt(s, exc)
		}
		x.record("lock:" + Format(v))
		return done
	case *ast.Unlock:
		v, exc := x.eval(n.X)
		if exc != nil {
			return x.throwAt(s, exc)
		}
		x.record("unlock:" + Format(v))
		return done
	case *ast.Switch:
		return x.switchStmt(n)
	case *ast.Case:
		return done
	case *ast.ExprStmt:
		if _, exc := x.eval(n.X); exc != nil {
			return x.throwAt(s, exc)
		}
		return done
	}
	x.fail(errors.KindUnsupported, s, "unexpected statement %T", s)
	return done
}

// enter runs s starting at the label seek inside it.
func (x *machine) enter(s ast.Stmt, seek *ast.Labeled) completion {
	switch n := s.(type) {
	case *ast.Block:
		return x.block(n, seek)
	case *ast.Labeled:
		if n == seek {
			return x.labeled(n, nil)
		}
		return x.labeled(n, seek)
	case *ast.If:
		if ast.Encloses(n.Then, seek) {
			return x.block(n.Then, seek)
		}
		return x.block(n.Else, seek)
	case *ast.Try:
		if ast.Encloses(n.Body, seek) {
			return x.try(n, seek)
		}
	}
	x.fail(errors.KindUnsupported, s, "cannot branch into %s", s.Kind())
	return done
}

func (x *machine) labeled(l *ast.Labeled, seek *ast.Labeled) completion {
	c := x.block(l.Body, seek)
	if c.kind == brk && c.label != "" && c.label == l.Source {
		return done
	}
	return c
}

// loopLabels returns the source labels written directly on the loop s.
func loopLabels(s ast.Stmt) []string {
	var out []string
	for p := s.Parent(); p != nil; p = p.Parent() {
		b, ok := p.(*ast.Block)
		if !ok || b.Len() != 1 {
			break
		}
		l, ok := b.Parent().(*ast.Labeled)
		if !ok || l.Source == "" {
			break
		}
		out = append(out, l.Source)
		p = l
	}
	return out
}

func ownLabel(labels []string, l string) bool {
	if l == "" {
		return true
	}
	for _, o := range labels {
		if o == l {
			return true
		}
	}
	return false
}

func (x *machine) loop(s ast.Stmt, cond ast.Expr, body, update *ast.Block, pretest bool) completion {
	labels := loopLabels(s)
	first := true
	for {
		x.step(s)
		if pretest || !first {
			if cond != nil {
				v, exc := x.eval(cond)
				if exc != nil {
					return x.throwAt(s, exc)
				}
				if !x.truth(s, v) {
					return done
				}
			}
		}
		first = false

		c := x.block(body, nil)
		switch {
		case c.kind == brk && c.label == "":
			return done
		case c.kind == cont && ownLabel(labels, c.label):
		case c.kind != normal:
			return c
		}
		if update != nil {
			if c := x.block(update, nil); c.kind != normal {
				return c
			}
		}
	}
}

func (x *machine) switchStmt(n *ast.Switch) completion {
	tag, exc := x.eval(n.Tag)
	if exc != nil {
		return x.throwAt(n, exc)
	}
	start, def := -1, -1
	for i, s := range n.Body.Stmts() {
		cs, ok := s.(*ast.Case)
		if !ok {
			continue
		}
		if cs.Value == nil {
			def = i
			continue
		}
		v, exc := x.eval(cs.Value)
		if exc != nil {
			return x.throwAt(cs, exc)
		}
		if start < 0 && v == tag {
			start = i
		}
	}
	if start < 0 {
		start = def
	}
	if start < 0 {
		return done
	}

	stmts := n.Body.Stmts()
	for i := start; i < len(stmts); i++ {
		c := x.exec(stmts[i], nil)
		if c.kind == jump && childIndex(n.Body, c.target) >= 0 {
			return exitSwitch(x.block(n.Body, c.target))
		}
		if c.kind != normal {
			return exitSwitch(c)
		}
	}
	return done
}

// exitSwitch consumes an unlabeled break leaving a switch.
func exitSwitch(c completion) completion {
	if c.kind == brk && c.label == "" {
		return done
	}
	return c
}

func (x *machine) try(t *ast.Try, seek *ast.Labeled) completion {
	c := x.block(t.Body, seek)
	if c.kind == thrown {
		for _, cc := range t.Catches {
			if !x.catches(cc.Types, c.exc) {
				continue
			}
			if cc.Var != nil {
				x.locals[cc.Var] = c.exc
			}
			x.caught = c.exc
			c = x.block(cc.Body, nil)
			break
		}
	}
	if t.Finally != nil {
		if fc := x.block(t.Finally, nil); fc.kind != normal {
			return fc
		}
	}
	return c
}

// throwAt raises exc at s. Flattened statements route it to the first
// matching handler of their annotation.
func (x *machine) throwAt(s ast.Stmt, exc *Object) completion {
	for _, h := range s.Handlers() {
		if x.catches(h.Types, exc) {
			x.caught = exc
			return completion{kind: jump, target: h.Target}
		}
	}
	return completion{kind: thrown, exc: exc}
}

func (x *machine) catches(types []ast.Type, exc *Object) bool {
	for _, want := range types {
		if x.isA(exc.Type, want) {
			return true
		}
	}
	return false
}

func (x *machine) isA(t, want ast.Type) bool {
	for i := 0; i < 64; i++ {
		if t == want {
			return true
		}
		if t == ast.Throwable {
			return false
		}
		next, ok := x.env.Supers[t]
		if !ok {
			next, ok = defaultSupers[t]
		}
		if !ok {
			next = "java.lang.RuntimeException"
		}
		t = next
	}
	return false
}

func (x *machine) record(s string) { x.trace = append(x.trace, s) }

// Format renders a runtime value the way traces and outcomes show it.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case *Object:
		return "new " + string(v.Type)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Format(a)
	}
	return strings.Join(parts, ", ")
}
