// Package fixture loads method scenarios written in YAML.
//
// A scenario file lists methods, each with a statement tree and the cases
// to run it with:
//
//	name: finally
//	types:
//	  A: java.lang.Exception
//	methods:
//	  - name: returnInFinally2
//	    returns: int
//	    body:
//	      - try:
//	          body:
//	            - throw: new A()
//	          finally:
//	            - return: 2
//	    cases:
//	      - expect: {return: 2}
//
// Statements are one-key maps (expr, var, if, while, do, for, label, break,
// continue, return, throw, try, sync, switch, block, lock, unlock) or the
// bare words break, continue and return. Expressions are parsed by
// ParseExpr.
package fixture

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
	"github.com/wippyai/jlower/interp"
)

// DefaultClass names the class of methods that do not set one.
const DefaultClass = "Test"

// File is one scenario file.
type File struct {
	Path string `yaml:"-"`
	Name string `yaml:"name"`
	// Types maps exception types to their superclass.
	Types   map[string]string `yaml:"types"`
	Methods []*Method         `yaml:"methods"`
}

// Method describes one method and its cases.
type Method struct {
	Name    string      `yaml:"name"`
	Class   string      `yaml:"class"`
	Returns string      `yaml:"returns"`
	Params  []Param     `yaml:"params"`
	Body    []yaml.Node `yaml:"body"`
	Cases   []Case      `yaml:"cases"`
}

// Param is a method parameter.
type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Case is one invocation and its expected outcome.
type Case struct {
	Name   string `yaml:"name"`
	Args   []any  `yaml:"args"`
	Expect Expect `yaml:"expect"`
}

// Expect is the expected outcome of a case. An empty Trace is not checked.
type Expect struct {
	Return any      `yaml:"return"`
	Thrown string   `yaml:"thrown"`
	Trace  []string `yaml:"trace"`
}

// Outcome renders the expectation the way interp.Result.Outcome does.
func (e Expect) Outcome() string {
	if e.Thrown != "" {
		return "throw " + e.Thrown
	}
	return "return " + interp.Format(value(e.Return))
}

// Load reads and parses one scenario file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a scenario file. The statement trees are decoded later, by
// Method.Build.
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.PhaseDecode, errors.KindInvalidInput, err, "parse "+path)
	}
	f.Path = path
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	seen := make(map[string]bool, len(f.Methods))
	for i, m := range f.Methods {
		if m.Name == "" {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
				Detail("%s: method %d has no name", path, i).
				Build()
		}
		if seen[m.Name] {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
				Method(m.Name).
				Detail("%s: duplicate method %s", path, m.Name).
				Build()
		}
		seen[m.Name] = true
		if m.Class == "" {
			m.Class = DefaultClass
		}
	}
	return &f, nil
}

// LoadDir loads every .yaml file under dir, in lexical order.
func LoadDir(dir string) ([]*File, error) {
	var files []*File
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}
		f, err := Load(path)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Env returns the interpreter environment for c.
func (f *File) Env(c Case) interp.Env {
	env := interp.Env{Args: make([]any, len(c.Args))}
	for i, a := range c.Args {
		env.Args[i] = value(a)
	}
	if len(f.Types) > 0 {
		env.Supers = make(map[ast.Type]ast.Type, len(f.Types))
		for t, super := range f.Types {
			env.Supers[ast.Type(t)] = ast.Type(super)
		}
	}
	return env
}

// value converts a decoded YAML scalar to an interpreter value.
func value(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	}
	return v
}

// Build decodes the statement tree into a fresh method. Each call returns
// an independent tree.
func (m *Method) Build() (out *ast.Method, err error) {
	defer errors.Recover(&err)
	b := &builder{
		m:     ast.NewMethod(m.Class, m.Name, ast.Type(m.Returns)),
		scope: Scope{},
	}
	for _, p := range m.Params {
		b.scope[p.Name] = b.m.NewParam(p.Name, ast.Type(p.Type))
	}
	b.m.SetBody(b.block(m.Body))
	return b.m, nil
}

type builder struct {
	m     *ast.Method
	scope Scope
}

func (b *builder) fail(n *yaml.Node, format string, args ...any) {
	errors.New(errors.PhaseDecode, errors.KindInvalidInput).
		Method(b.m.String()).
		Detail("line %d: "+format, append([]any{n.Line}, args...)...).
		Fail()
}

func (b *builder) decode(n *yaml.Node, v any) {
	if err := n.Decode(v); err != nil {
		errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Method(b.m.String()).
			Cause(err).
			Detail("line %d: %v", n.Line, err).
			Fail()
	}
}

func (b *builder) expr(n *yaml.Node, src string) ast.Expr {
	e, err := ParseExpr(src, b.scope)
	if err != nil {
		b.fail(n, "%v", err)
	}
	return e
}

// optExpr parses src, or returns nil when it is empty.
func (b *builder) optExpr(n *yaml.Node, src string) ast.Expr {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	return b.expr(n, src)
}

// block decodes a statement list. Locals declared inside go out of scope
// at its end.
func (b *builder) block(nodes []yaml.Node) *ast.Block {
	saved := maps.Clone(b.scope)
	defer func() { b.scope = saved }()

	stmts := make([]ast.Stmt, 0, len(nodes))
	for i := range nodes {
		stmts = append(stmts, b.stmt(&nodes[i]))
	}
	return b.m.NewBlock(stmts...)
}

type (
	varSpec struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
		Init string `yaml:"init"`
	}
	ifSpec struct {
		Cond string      `yaml:"cond"`
		Then []yaml.Node `yaml:"then"`
		Else []yaml.Node `yaml:"else"`
	}
	loopSpec struct {
		Init   []yaml.Node `yaml:"init"`
		Cond   string      `yaml:"cond"`
		Update []yaml.Node `yaml:"update"`
		Body   []yaml.Node `yaml:"body"`
	}
	labelSpec struct {
		Name string      `yaml:"name"`
		Body []yaml.Node `yaml:"body"`
	}
	trySpec struct {
		Body    []yaml.Node `yaml:"body"`
		Catch   []catchSpec `yaml:"catch"`
		Finally []yaml.Node `yaml:"finally"`
	}
	catchSpec struct {
		Types []string    `yaml:"types"`
		Var   string      `yaml:"var"`
		Body  []yaml.Node `yaml:"body"`
	}
	syncSpec struct {
		Lock string      `yaml:"lock"`
		Body []yaml.Node `yaml:"body"`
	}
	switchSpec struct {
		Tag   string     `yaml:"tag"`
		Cases []caseSpec `yaml:"cases"`
	}
	caseSpec struct {
		Value   string      `yaml:"value"`
		Default bool        `yaml:"default"`
		Body    []yaml.Node `yaml:"body"`
	}
)

func (b *builder) stmt(n *yaml.Node) ast.Stmt {
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "break":
			return b.m.NewBreak("")
		case "continue":
			return b.m.NewContinue("")
		case "return":
			return b.m.NewReturn(nil)
		}
		b.fail(n, "unknown statement %q", n.Value)
	}
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		b.fail(n, "statement must be a map with one key")
	}
	key, v := n.Content[0].Value, n.Content[1]

	switch key {
	case "expr":
		return b.m.NewExprStmt(b.expr(v, v.Value))

	case "var":
		var s varSpec
		b.decode(v, &s)
		if s.Name == "" || s.Type == "" {
			b.fail(v, "var needs a name and a type")
		}
		init := b.optExpr(v, s.Init)
		l := b.m.NewLocal(s.Name, ast.Type(s.Type))
		b.scope[s.Name] = l
		return b.m.NewExprStmt(&ast.Decl{Local: l, Init: init})

	case "if":
		var s ifSpec
		b.decode(v, &s)
		var els *ast.Block
		if s.Else != nil {
			els = b.block(s.Else)
		}
		return b.m.NewIf(b.expr(v, s.Cond), b.block(s.Then), els)

	case "while":
		var s loopSpec
		b.decode(v, &s)
		return b.m.NewWhile(b.optExpr(v, s.Cond), b.block(s.Body))

	case "do":
		var s loopSpec
		b.decode(v, &s)
		body := b.block(s.Body)
		return b.m.NewDoWhile(body, b.optExpr(v, s.Cond))

	case "for":
		var s loopSpec
		b.decode(v, &s)
		saved := maps.Clone(b.scope)
		defer func() { b.scope = saved }()
		init := b.m.NewBlock(b.list(s.Init)...)
		cond := b.optExpr(v, s.Cond)
		update := b.m.NewBlock(b.list(s.Update)...)
		return b.m.NewFor(init, cond, update, b.block(s.Body))

	case "label":
		var s labelSpec
		b.decode(v, &s)
		if s.Name == "" {
			b.fail(v, "label needs a name")
		}
		return b.m.NewLabeled(s.Name, b.block(s.Body))

	case "break":
		return b.m.NewBreak(v.Value)

	case "continue":
		return b.m.NewContinue(v.Value)

	case "return":
		if v.Tag == "!!null" {
			return b.m.NewReturn(nil)
		}
		return b.m.NewReturn(b.expr(v, v.Value))

	case "throw":
		return b.m.NewThrow(b.expr(v, v.Value))

	case "try":
		return b.try(v)

	case "sync":
		var s syncSpec
		b.decode(v, &s)
		return b.m.NewSynchronized(b.expr(v, s.Lock), b.block(s.Body))

	case "switch":
		var s switchSpec
		b.decode(v, &s)
		tag := b.expr(v, s.Tag)
		var body []ast.Stmt
		for _, c := range s.Cases {
			var label ast.Expr
			if !c.Default {
				label = b.expr(v, c.Value)
			}
			body = append(body, b.m.NewCase(label))
			body = append(body, b.list(c.Body)...)
		}
		return b.m.NewSwitch(tag, b.m.NewBlock(body...))

	case "block":
		var s []yaml.Node
		b.decode(v, &s)
		return b.block(s)

	case "lock":
		return b.m.NewLock(b.expr(v, v.Value))

	case "unlock":
		return b.m.NewUnlock(b.expr(v, v.Value))
	}

	b.fail(n, "unknown statement %q", key)
	return nil
}

// list decodes statements into the current scope.
func (b *builder) list(nodes []yaml.Node) []ast.Stmt {
	var out []ast.Stmt
	for i := range nodes {
		out = append(out, b.stmt(&nodes[i]))
	}
	return out
}

func (b *builder) try(v *yaml.Node) *ast.Try {
	var s trySpec
	b.decode(v, &s)
	if len(s.Catch) == 0 && s.Finally == nil {
		b.fail(v, "try needs a catch or a finally")
	}

	body := b.block(s.Body)
	catches := make([]*ast.Catch, 0, len(s.Catch))
	for _, c := range s.Catch {
		types := make([]ast.Type, len(c.Types))
		for i, t := range c.Types {
			types[i] = ast.Type(t)
		}
		if len(types) == 0 {
			types = []ast.Type{ast.Throwable}
		}
		name := c.Var
		if name == "" {
			name = "e"
		}

		saved := maps.Clone(b.scope)
		l := b.m.NewLocal(name, types[0])
		b.scope[name] = l
		catches = append(catches, b.m.NewCatch(types, l, b.block(c.Body)))
		b.scope = saved
	}

	var fin *ast.Block
	if s.Finally != nil {
		fin = b.block(s.Finally)
	}
	return b.m.NewTry(body, catches, fin)
}
