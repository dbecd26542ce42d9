// Package finally removes finally blocks by copying them onto every path
// that leaves the protected region.
//
// For a try T with finally block F, innermost first:
//
//   - the try block and each catch block that can complete normally get a
//     copy of F appended;
//   - each return in the region gets a copy before it, the returned value
//     captured in a temporary first unless it is a literal;
//   - each goto leaving T gets a copy before it;
//   - T is wrapped in a host try whose catch-all handler runs a copy and
//     rethrows. Without catches the try block becomes the host's body.
//
// When F cannot complete normally it overrides the exit it was copied onto:
// the copy replaces the return, goto or rethrow, and a returned value is
// only evaluated for its effects.
//
// Every copy is recorded in the marker table so the flattener can route
// exceptions thrown from it past the tries that were only there to host it.
package finally

import (
	"go.uber.org/zap"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
	"github.com/wippyai/jlower/lower/internal/marker"
)

// Local name prefixes of the temporaries the inliner declares.
const (
	ExceptionLocal = "$finally_ex"
	ReturnLocal    = "$ret"
)

// Stats reports what a run changed.
type Stats struct {
	Tries  int
	Copies int
	Temps  int
}

var structuredKinds = []ast.Kind{ast.KindWhile, ast.KindDoWhile, ast.KindFor, ast.KindBreak, ast.KindContinue}

type inliner struct {
	m     *ast.Method
	table *marker.Table
	log   *zap.Logger
	stats Stats
}

// pendingCopy is a clone of a finally block waiting for its marker.
type pendingCopy struct {
	block *ast.Block
	catch bool
}

// Run inlines every finally block of m, recording each copy in table.
func Run(m *ast.Method, table *marker.Table, log *zap.Logger) (st Stats, err error) {
	defer errors.Recover(&err)
	if log == nil {
		log = zap.NewNop()
	}

	var tries []*ast.Try
	collect(m.Body, &tries)

	in := &inliner{m: m, table: table, log: log}
	for _, t := range tries {
		if err := in.inline(t); err != nil {
			return in.stats, errors.InMethod(err, m.String())
		}
	}
	if len(tries) > 0 {
		log.Debug("inlined finally blocks",
			zap.String("method", m.String()),
			zap.Int("tries", in.stats.Tries),
			zap.Int("copies", in.stats.Copies),
			zap.Int("temps", in.stats.Temps))
	}
	return in.stats, nil
}

// collect appends the tries with a finally block beneath s in post-order,
// so nested tries come before the tries enclosing them.
func collect(s ast.Stmt, out *[]*ast.Try) {
	ast.Children(s, func(c ast.Stmt) { collect(c, out) })
	if t, ok := s.(*ast.Try); ok && t.Finally != nil {
		*out = append(*out, t)
	}
}

func (in *inliner) inline(t *ast.Try) error {
	m := in.m
	if ast.EnclosingBlock(t) == nil || !m.Attached(t) {
		panic(errors.MalformedTree(errors.PhaseFinally, m.String(), ast.Describe(t),
			"try is not listed in a block of the method"))
	}
	if ast.ContainsKind(t, structuredKinds...) {
		panic(errors.MalformedTree(errors.PhaseFinally, m.String(), ast.Describe(t),
			"loops must be normalized before finally inlining"))
	}

	fin := t.Finally
	overrides := ast.EndsAbruptly(fin)
	req := ast.NewRequest(m)

	var copies []pendingCopy
	dup := func(catch bool) *ast.Block {
		b, cm := m.CloneBlock(fin)
		in.table.Remap(cm)
		copies = append(copies, pendingCopy{block: b, catch: catch})
		return b
	}
	inCatch := func(s ast.Stmt) bool {
		for _, c := range t.Catches {
			if ast.Encloses(c.Body, s) {
				return true
			}
		}
		return false
	}

	region := []*ast.Block{t.Body}
	for _, c := range t.Catches {
		region = append(region, c.Body)
	}
	for _, b := range region {
		ast.Inspect(b, func(s ast.Stmt) bool {
			switch n := s.(type) {
			case *ast.Return:
				in.exitReturn(req, n, dup(inCatch(n)), overrides)
			case *ast.Goto:
				if !m.Attached(n.Target) {
					errors.New(errors.PhaseFinally, errors.KindUnclassifiedGoto).
						Method(m.String()).
						Node(ast.Describe(n)).
						Detail("target %s is not part of the method", ast.Describe(n.Target)).
						Fail()
				}
				if ast.Encloses(t, n.Target) {
					return true
				}
				if overrides {
					req.Replace(n, dup(inCatch(n)))
				} else {
					req.InsertBefore(n, dup(inCatch(n)))
				}
			}
			return true
		})
	}

	if !ast.EndsAbruptly(t.Body) {
		req.Append(t.Body, dup(false))
	}
	for _, c := range t.Catches {
		if !ast.EndsAbruptly(c.Body) {
			req.Append(c.Body, dup(true))
		}
	}

	ex := m.NewLocal(ExceptionLocal, ast.Throwable)
	handler := []ast.Stmt{dup(true)}
	if !overrides {
		handler = append(handler, m.NewThrow(ast.Ref(ex)))
	}
	all := m.NewCatch([]ast.Type{ast.Throwable}, ex, m.NewBlock(handler...))

	var origin, host *ast.Try
	if len(t.Catches) > 0 {
		origin = m.NewTry(t.Body, t.Catches, nil)
		host = m.NewTry(m.NewBlock(origin), []*ast.Catch{all}, nil)
	} else {
		host = m.NewTry(t.Body, []*ast.Catch{all}, nil)
		origin = host
	}
	req.Replace(t, host)

	if err := req.Commit(); err != nil {
		return err
	}
	for _, c := range copies {
		in.table.Set(c.block, marker.Marker{Origin: origin, Host: host, CatchIntoFinally: c.catch})
	}
	// Copies nested in the discarded finally block went with it.
	in.table.Prune(m)

	in.stats.Tries++
	in.stats.Copies += len(copies)
	in.log.Debug("inlined finally",
		zap.String("try", ast.Describe(t)),
		zap.String("host", ast.Describe(host)),
		zap.Int("copies", len(copies)),
		zap.Bool("overrides", overrides))
	return nil
}

// exitReturn places a copy of the finally block on the path of ret.
func (in *inliner) exitReturn(req *ast.Request, ret *ast.Return, fin *ast.Block, overrides bool) {
	m := in.m
	switch {
	case overrides:
		// The copy never completes, so the return is dead. Its value is
		// still computed when that can be observed.
		if ast.IsPure(ret.Value) {
			req.Replace(ret, fin)
		} else {
			req.Replace(ret, m.NewExprStmt(ret.Value), fin)
		}
	case ret.Value == nil:
		req.InsertBefore(ret, fin)
	default:
		if _, ok := ret.Value.(*ast.Literal); ok {
			req.InsertBefore(ret, fin)
			return
		}
		tmp := m.NewLocal(ReturnLocal, m.ReturnType)
		in.stats.Temps++
		req.Replace(ret,
			m.NewExprStmt(&ast.Decl{Local: tmp, Init: ret.Value}),
			fin,
			m.NewReturn(ast.Ref(tmp)))
	}
}
