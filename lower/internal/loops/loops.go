// Package loops rewrites loops and break/continue into if/goto/label form.
//
// A loop
//
//	for (init; c; update) { B }
//
// becomes
//
//	{ init }
//	goto cond;
//	body: { B }
//	inc: { update }
//	cond: { if (c) { goto body; } }
//	break: {}
//
// while and do loops drop the init and inc parts; a do loop has no entry
// goto. When the condition is constant true the entry goto is omitted and
// cond holds an unconditional goto. The break label exists only when a break
// targets the loop. Labeled statements and switches get a break label after
// them in the same way.
package loops

import (
	"go.uber.org/zap"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
)

// Stats reports what a run changed.
type Stats struct {
	Loops     int
	Breaks    int
	Continues int
}

// frame is a loop-like statement on the traversal stack.
type frame struct {
	stmt ast.Stmt
	brk  *ast.Labeled // created on first break

	// loops only
	body *ast.Labeled
	inc  *ast.Labeled
	cond *ast.Labeled
	cont *ast.Labeled
}

func (f *frame) loop() bool { return f.body != nil }

type lowerer struct {
	m     *ast.Method
	req   *ast.Request
	stack []*frame
	stats Stats
}

// Run lowers every loop, break and continue of m.
func Run(m *ast.Method, log *zap.Logger) (st Stats, err error) {
	defer errors.Recover(&err)
	if log == nil {
		log = zap.NewNop()
	}

	l := &lowerer{m: m, req: ast.NewRequest(m)}
	l.visit(m.Body)

	if l.req.Empty() {
		return l.stats, nil
	}
	if err := l.req.Commit(); err != nil {
		return l.stats, errors.InMethod(err, m.String())
	}
	log.Debug("normalized loops",
		zap.String("method", m.String()),
		zap.Int("loops", l.stats.Loops),
		zap.Int("breaks", l.stats.Breaks),
		zap.Int("continues", l.stats.Continues))
	return l.stats, nil
}

func (l *lowerer) visit(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.While, *ast.DoWhile, *ast.For:
		f := l.enterLoop(n)
		l.push(f)
		ast.Children(s, l.visit)
		l.pop()
		l.req.Replace(s, l.lowerLoop(f)...)
		l.stats.Loops++

	case *ast.Labeled, *ast.Switch:
		f := &frame{stmt: s}
		l.push(f)
		ast.Children(s, l.visit)
		l.pop()
		if f.brk != nil {
			l.req.InsertAfter(s, f.brk)
		}

	case *ast.Break:
		f := l.resolve(n.Label, false)
		if f == nil {
			panic(errors.UnresolvedTarget(errors.PhaseLoops, l.m.String(), ast.Describe(n), n.Label))
		}
		if f.brk == nil {
			f.brk = l.m.NewSyntheticLabel("break", nil)
		}
		l.req.Replace(n, l.m.NewGoto(f.brk))
		l.stats.Breaks++

	case *ast.Continue:
		f := l.resolve(n.Label, true)
		if f == nil {
			panic(errors.UnresolvedTarget(errors.PhaseLoops, l.m.String(), ast.Describe(n), n.Label))
		}
		l.req.Replace(n, l.m.NewGoto(f.cont))
		l.stats.Continues++

	default:
		ast.Children(s, l.visit)
	}
}

func (l *lowerer) push(f *frame) { l.stack = append(l.stack, f) }
func (l *lowerer) pop()          { l.stack = l.stack[:len(l.stack)-1] }

// enterLoop allocates the labels of a loop before its body is visited, so
// continue statements inside can branch to them.
func (l *lowerer) enterLoop(s ast.Stmt) *frame {
	f := &frame{stmt: s}
	var body, update *ast.Block
	switch n := s.(type) {
	case *ast.While:
		body = n.Body
	case *ast.DoWhile:
		body = n.Body
	case *ast.For:
		body, update = n.Body, n.Update
	}
	f.body = l.m.NewSyntheticLabel("body", body)
	f.cond = l.m.NewSyntheticLabel("cond", nil)
	f.cont = f.cond
	if update != nil {
		f.inc = l.m.NewSyntheticLabel("inc", update)
		f.cont = f.inc
	}
	return f
}

func (l *lowerer) lowerLoop(f *frame) []ast.Stmt {
	var (
		init  *ast.Block
		cond  ast.Expr
		entry = true
	)
	switch n := f.stmt.(type) {
	case *ast.While:
		cond = n.Cond
	case *ast.DoWhile:
		cond, entry = n.Cond, false
	case *ast.For:
		init, cond = n.Init, n.Cond
	}

	var out []ast.Stmt
	if init != nil && init.Len() > 0 {
		out = append(out, init)
	}
	if ast.IsConstTrue(cond) {
		entry = false
		f.cond.Body = l.m.NewBlock(l.m.NewGoto(f.body))
	} else {
		f.cond.Body = l.m.NewBlock(l.m.NewIf(cond, l.m.NewBlock(l.m.NewGoto(f.body)), nil))
	}
	if entry {
		out = append(out, l.m.NewGoto(f.cond))
	}
	out = append(out, f.body)
	if f.inc != nil {
		out = append(out, f.inc)
	}
	out = append(out, f.cond)
	if f.brk != nil {
		out = append(out, f.brk)
	}
	return out
}

// resolve finds the target of a break or continue. An unlabeled break goes
// to the innermost loop or switch and an unlabeled continue to the innermost
// loop. A labeled one finds the labeled statement with that source name and
// takes the nearest target at or inside it.
func (l *lowerer) resolve(label string, cont bool) *frame {
	if label == "" {
		for i := len(l.stack) - 1; i >= 0; i-- {
			f := l.stack[i]
			if f.loop() {
				return f
			}
			if _, ok := f.stmt.(*ast.Switch); ok && !cont {
				return f
			}
		}
		return nil
	}

	start := -1
	for i := len(l.stack) - 1; i >= 0; i-- {
		if lab, ok := l.stack[i].stmt.(*ast.Labeled); ok && lab.Source == label {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	if !cont {
		return l.stack[start]
	}
	for _, f := range l.stack[start:] {
		if f.loop() {
			return f
		}
	}
	return nil
}
