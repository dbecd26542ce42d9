// Package flatten removes try statements and annotates every remaining
// statement with the catch clauses that protect it.
//
// A try
//
//	try { B } catch (E1 e) { H1 } catch (E2 f) { H2 }
//
// becomes
//
//	{ B }
//	goto end;
//	catch: { e = caught; { H1 } }
//	goto end;
//	catch_1: { f = caught; { H2 } }
//	end: {}
//
// where the gotos and the end label appear only when control can fall off
// the block before them. The statements of B carry handlers catch(E1) and
// catch_1(E2) ahead of the handlers of the enclosing tries.
package flatten

import (
	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
	"github.com/wippyai/jlower/lower/internal/marker"
)

// Stats reports what a run changed.
type Stats struct {
	Tries     int
	Removed   int
	Annotated int
}

type frameKind uint8

const (
	// scopeFrame: inside the try block of try.
	scopeFrame frameKind = iota
	// handlerFrame: inside a catch block of try.
	handlerFrame
	// resumeFrame: inside an inlined finally copy described by mk.
	resumeFrame
)

type frame struct {
	try   *ast.Try
	block *ast.Block // resume frames only
	mk    marker.Marker
	kind  frameKind
}

// plan holds the labels of a try's catch blocks, allocated before its body
// is annotated.
type plan struct {
	catches []*ast.Labeled
}

type flattener struct {
	m     *ast.Method
	table *marker.Table
	req   *ast.Request
	plans map[*ast.Try]*plan
	stack []frame
	stats Stats
}

// Run flattens every try of m. The marker table is consumed and cleared.
// A method without tries is left unchanged.
func Run(m *ast.Method, table *marker.Table, log *zap.Logger) (st Stats, err error) {
	defer errors.Recover(&err)
	defer table.Clear()
	if log == nil {
		log = zap.NewNop()
	}
	if !ast.ContainsKind(m.Body, ast.KindTry) {
		return st, nil
	}

	f := &flattener{
		m:     m,
		table: table,
		req:   ast.NewRequest(m),
		plans: make(map[*ast.Try]*plan),
	}
	f.visit(m.Body)

	if err := f.req.Commit(); err != nil {
		return f.stats, errors.InMethod(err, m.String())
	}
	log.Debug("flattened tries",
		zap.String("method", m.String()),
		zap.Int("tries", f.stats.Tries),
		zap.Int("removed", f.stats.Removed),
		zap.Int("annotated", f.stats.Annotated))
	return f.stats, nil
}

func (f *flattener) annotate(s ast.Stmt, hs []ast.Handler) {
	if len(hs) == 0 {
		return
	}
	f.req.Annotate(s, hs)
	f.stats.Annotated++
}

func (f *flattener) push(fr frame) { f.stack = append(f.stack, fr) }
func (f *flattener) pop()          { f.stack = f.stack[:len(f.stack)-1] }

func (f *flattener) visit(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Try:
		f.visitTry(n)
		return
	case *ast.Block:
		if mk, ok := f.table.Get(n); ok {
			f.push(frame{kind: resumeFrame, block: n, mk: mk})
			f.annotate(n, f.handlers())
			ast.Children(n, f.visit)
			f.pop()
			return
		}
	}
	f.annotate(s, f.handlers())
	ast.Children(s, f.visit)
}

func (f *flattener) visitTry(t *ast.Try) {
	outer := f.handlers()
	p := &plan{catches: make([]*ast.Labeled, len(t.Catches))}
	for i, c := range t.Catches {
		body := []ast.Stmt{c.Body}
		if c.Var != nil {
			bind := f.m.NewExprStmt(&ast.Assign{Target: c.Var, Value: &ast.CaughtException{Type: caughtType(c)}})
			f.annotate(bind, outer)
			body = []ast.Stmt{bind, c.Body}
		}
		p.catches[i] = f.m.NewSyntheticLabel("catch", f.m.NewBlock(body...))
	}
	f.plans[t] = p

	f.push(frame{kind: scopeFrame, try: t})
	ast.Children(t.Body, f.visit)
	f.pop()

	f.push(frame{kind: handlerFrame, try: t})
	for _, c := range t.Catches {
		f.visit(c.Body)
	}
	f.pop()

	f.rewrite(t, p, outer)
}

// caughtType is the static type of the exception delivered to c.
func caughtType(c *ast.Catch) ast.Type {
	if len(c.Types) == 1 {
		return c.Types[0]
	}
	return ast.Throwable
}

// handlers computes the annotation at the current stack position, innermost
// first.
func (f *flattener) handlers() []ast.Handler {
	var hs []ast.Handler
	seen := mapset.NewThreadUnsafeSet[ast.Type]()

	for i := len(f.stack) - 1; i >= 0; i-- {
		fr := f.stack[i]
		switch fr.kind {
		case handlerFrame:
			continue
		case resumeFrame:
			i = f.resume(i)
			continue
		}

		p := f.plans[fr.try]
		for k, c := range fr.try.Catches {
			var types []ast.Type
			for _, ty := range c.Types {
				if seen.Add(ty) {
					types = append(types, ty)
				}
			}
			if len(types) > 0 {
				hs = append(hs, ast.Handler{Target: p.catches[k], Block: c.Body, Types: types})
			}
			if c.CatchesAll() {
				return hs
			}
		}
	}
	return hs
}

// resume returns the stack index below which accumulation continues for the
// finally copy at index i. Exceptions thrown from the copy behave as if
// thrown from the original finally block, so the origin try and the host
// that only existed to carry the copy are skipped, along with everything
// between them and the copy.
func (f *flattener) resume(i int) int {
	mk := f.stack[i].mk
	want := scopeFrame
	if mk.CatchIntoFinally {
		want = handlerFrame
	}

	for j := i - 1; j >= 0; j-- {
		fr := f.stack[j]
		if fr.kind != want {
			continue
		}
		if fr.try != mk.Origin && !(mk.CatchIntoFinally && fr.try == mk.Host) {
			continue
		}
		if fr.try == mk.Host {
			return j
		}
		for k := j - 1; k >= 0; k-- {
			if h := f.stack[k]; h.kind == scopeFrame && h.try == mk.Host {
				return k
			}
		}
		return j
	}

	panic(errors.OrphanedMarker(f.m.String(), ast.Describe(f.stack[i].block), ast.Describe(mk.Origin)))
}

func (f *flattener) rewrite(t *ast.Try, p *plan, outer []ast.Handler) {
	m := f.m
	f.stats.Tries++

	// Nothing in an empty try block can throw, so its handlers are dead.
	if t.Body.Len() == 0 {
		f.req.Remove(t)
		f.stats.Removed++
		return
	}

	var (
		out []ast.Stmt
		end *ast.Labeled
	)
	toEnd := func() {
		if end == nil {
			end = m.NewSyntheticLabel("end", nil)
		}
		g := m.NewGoto(end)
		f.annotate(g, outer)
		out = append(out, g)
	}

	f.annotate(t.Body, outer)
	out = append(out, t.Body)
	if len(p.catches) > 0 && !ast.EndsAbruptly(t.Body) {
		toEnd()
	}
	for i, lab := range p.catches {
		f.annotate(lab, outer)
		f.annotate(lab.Body, outer)
		out = append(out, lab)
		if i < len(p.catches)-1 && !ast.EndsAbruptly(t.Catches[i].Body) {
			toEnd()
		}
	}
	if end != nil {
		f.annotate(end, outer)
		f.annotate(end.Body, outer)
		out = append(out, end)
	}
	f.req.Replace(t, out...)
}
