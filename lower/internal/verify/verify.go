// Package verify checks the structural post-conditions of each lowering
// stage. Every violation found is reported; they are combined into one
// error with multierr.
package verify

import (
	"go.uber.org/multierr"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
)

// Stage is a point in the pipeline. Later stages imply the invariants of
// earlier ones.
type Stage uint8

const (
	Input Stage = iota
	Monitor
	Loops
	Finally
	Flatten
)

var stageNames = [...]string{
	Input:   "input",
	Monitor: "monitor",
	Loops:   "loops",
	Finally: "finally",
	Flatten: "flatten",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// leftovers lists the statement kinds that must be gone after each stage.
var leftovers = map[Stage][]ast.Kind{
	Monitor: {ast.KindSynchronized},
	Loops:   {ast.KindWhile, ast.KindDoWhile, ast.KindFor, ast.KindBreak, ast.KindContinue},
	Flatten: {ast.KindTry},
}

type checker struct {
	m     *ast.Method
	stage Stage
	err   error
	seen  *IDSet
	names map[string]*ast.Labeled
}

// Check verifies m against the invariants that hold after stage.
func Check(m *ast.Method, stage Stage) error {
	c := &checker{
		m:     m,
		stage: stage,
		seen:  NewIDSet(m.NodeCount()),
		names: make(map[string]*ast.Labeled),
	}
	if m.Body.Parent() != nil {
		c.fail(errors.KindMalformedTree, m.Body, "method body has a parent")
	}
	c.walk(m.Body, nil)
	return c.err
}

func (c *checker) fail(kind errors.Kind, s ast.Stmt, format string, args ...any) {
	c.err = multierr.Append(c.err, errors.New(errors.PhaseVerify, kind).
		Method(c.m.String()).
		Node(ast.Describe(s)).
		Detail(format, args...).
		Build())
}

func (c *checker) walk(s, parent ast.Stmt) {
	if !c.seen.Add(s.ID()) {
		c.fail(errors.KindAliasedNode, s, "statement is reachable more than once")
		return
	}
	if parent != nil && s.Parent() != parent {
		c.fail(errors.KindMalformedTree, s, "parent is %s, want %s", ast.Describe(s.Parent()), ast.Describe(parent))
	}
	if c.m.Node(s.ID()) != s {
		c.fail(errors.KindMalformedTree, s, "statement does not belong to the method arena")
	}

	for st := Monitor; st <= c.stage; st++ {
		for _, k := range leftovers[st] {
			if s.Kind() == k {
				c.fail(errors.KindLeftover, s, "%s statement after %s", k, st)
			}
		}
	}

	switch n := s.(type) {
	case *ast.Try:
		if c.stage >= Finally && n.Finally != nil {
			c.fail(errors.KindLeftover, s, "finally block after %s", c.stage)
		}
		if len(n.Catches) == 0 && n.Finally == nil {
			c.fail(errors.KindMalformedTree, s, "try without catch or finally")
		}
	case *ast.Labeled:
		if prev, ok := c.names[n.Name]; ok {
			c.fail(errors.KindDuplicateLabel, s, "label %q already used by %s", n.Name, ast.Describe(prev))
		} else {
			c.names[n.Name] = n
		}
	case *ast.Goto:
		c.target(s, "target", n.Target)
	}

	for _, h := range s.Handlers() {
		c.target(s, "handler target", h.Target)
	}

	ast.Children(s, func(child ast.Stmt) { c.walk(child, s) })
}

func (c *checker) target(s ast.Stmt, what string, l *ast.Labeled) {
	switch {
	case l == nil:
		c.fail(errors.KindDanglingGoto, s, "%s is missing", what)
	case !c.m.Attached(l):
		c.fail(errors.KindDanglingGoto, s, "%s %s is not in the method", what, ast.Describe(l))
	}
}
