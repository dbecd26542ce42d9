package ast

import (
	"fmt"
	"strconv"
)

// Method is the statement tree of one method body and the arena that owns
// its statements, locals and label names.
//
// A Method is not safe for concurrent use. Distinct methods share nothing
// and may be lowered in parallel.
type Method struct {
	Body       *Block
	labels     map[string]int
	Class      string
	Name       string
	ReturnType Type
	Params     []*Local
	nodes      []Stmt
	locals     []*Local
}

// NewMethod creates an empty method. ReturnType is empty for void methods.
func NewMethod(class, name string, ret Type) *Method {
	m := &Method{
		Class:      class,
		Name:       name,
		ReturnType: ret,
		labels:     make(map[string]int),
	}
	m.Body = m.NewBlock()
	return m
}

// String returns the qualified method name.
func (m *Method) String() string {
	if m.Class == "" {
		return m.Name
	}
	return m.Class + "." + m.Name
}

// SetBody installs b as the method root and links every parent pointer
// beneath it.
func (m *Method) SetBody(b *Block) {
	b.parent = nil
	m.Body = b
	link(b, nil)
}

// Node returns the statement with the given ID, or nil.
func (m *Method) Node(id ID) Stmt {
	if int(id) >= len(m.nodes) {
		return nil
	}
	return m.nodes[id]
}

// NodeCount returns the number of statements ever allocated, attached or not.
func (m *Method) NodeCount() int { return len(m.nodes) }

// Locals returns every local allocated for the method, parameters included.
func (m *Method) Locals() []*Local { return m.locals }

// NewParam declares a parameter.
func (m *Method) NewParam(name string, t Type) *Local {
	l := m.NewLocal(name, t)
	m.Params = append(m.Params, l)
	return l
}

// NewLocal allocates a local. The name is made unique within the method.
func (m *Method) NewLocal(name string, t Type) *Local {
	l := &Local{ID: len(m.locals), Name: m.uniqueLocalName(name), Type: t}
	m.locals = append(m.locals, l)
	return l
}

func (m *Method) uniqueLocalName(name string) string {
	used := func(n string) bool {
		for _, l := range m.locals {
			if l.Name == n {
				return true
			}
		}
		return false
	}
	if !used(name) {
		return name
	}
	for i := len(m.locals); ; i++ {
		if n := name + "$" + strconv.Itoa(i); !used(n) {
			return n
		}
	}
}

// UniqueLabel returns a label name starting with prefix that no other label
// of the method uses.
func (m *Method) UniqueLabel(prefix string) string {
	n, taken := m.labels[prefix]
	if !taken {
		m.labels[prefix] = 0
		return prefix
	}
	for {
		n++
		name := prefix + "_" + strconv.Itoa(n)
		if _, used := m.labels[name]; !used {
			m.labels[prefix] = n
			m.labels[name] = 0
			return name
		}
	}
}

func (m *Method) alloc(s Stmt) {
	s.base().id = ID(len(m.nodes))
	m.nodes = append(m.nodes, s)
}

// NewBlock creates a block holding stmts.
func (m *Method) NewBlock(stmts ...Stmt) *Block {
	b := &Block{stmts: append([]Stmt(nil), stmts...)}
	m.alloc(b)
	return b
}

// NewIf creates a conditional. els may be nil.
func (m *Method) NewIf(cond Expr, then, els *Block) *If {
	s := &If{Cond: cond, Then: then, Else: els}
	m.alloc(s)
	return s
}

// NewWhile creates a pre-tested loop.
func (m *Method) NewWhile(cond Expr, body *Block) *While {
	s := &While{Cond: cond, Body: body}
	m.alloc(s)
	return s
}

// NewDoWhile creates a post-tested loop.
func (m *Method) NewDoWhile(body *Block, cond Expr) *DoWhile {
	s := &DoWhile{Body: body, Cond: cond}
	m.alloc(s)
	return s
}

// NewFor creates a three-clause loop. init, cond and update may be nil.
func (m *Method) NewFor(init *Block, cond Expr, update, body *Block) *For {
	s := &For{Init: init, Cond: cond, Update: update, Body: body}
	m.alloc(s)
	return s
}

// NewLabeled creates a labeled statement named after source. A nil body is
// replaced by an empty block.
func (m *Method) NewLabeled(source string, body *Block) *Labeled {
	return m.newLabeled(m.UniqueLabel(source), source, body)
}

// NewSyntheticLabel creates a compiler-generated labeled statement that
// labeled break and continue cannot name.
func (m *Method) NewSyntheticLabel(prefix string, body *Block) *Labeled {
	return m.newLabeled(m.UniqueLabel(prefix), "", body)
}

func (m *Method) newLabeled(name, source string, body *Block) *Labeled {
	if body == nil {
		body = m.NewBlock()
	}
	s := &Labeled{Name: name, Source: source, Body: body}
	m.alloc(s)
	return s
}

// NewGoto creates a branch to target.
func (m *Method) NewGoto(target *Labeled) *Goto {
	s := &Goto{Target: target}
	m.alloc(s)
	return s
}

// NewReturn creates a return. value is nil for void returns.
func (m *Method) NewReturn(value Expr) *Return {
	s := &Return{Value: value}
	m.alloc(s)
	return s
}

// NewThrow creates a throw.
func (m *Method) NewThrow(value Expr) *Throw {
	s := &Throw{Value: value}
	m.alloc(s)
	return s
}

// NewBreak creates a break. label is empty for unlabeled breaks.
func (m *Method) NewBreak(label string) *Break {
	s := &Break{Label: label}
	m.alloc(s)
	return s
}

// NewContinue creates a continue. label is empty for unlabeled continues.
func (m *Method) NewContinue(label string) *Continue {
	s := &Continue{Label: label}
	m.alloc(s)
	return s
}

// NewTry creates a try-construct. finally may be nil.
func (m *Method) NewTry(body *Block, catches []*Catch, finally *Block) *Try {
	s := &Try{Body: body, Catches: catches, Finally: finally}
	m.alloc(s)
	return s
}

// NewCatch creates a catch clause binding v.
func (m *Method) NewCatch(types []Type, v *Local, body *Block) *Catch {
	return &Catch{Types: types, Var: v, Body: body}
}

// NewSynchronized creates a synchronized statement.
func (m *Method) NewSynchronized(lock Expr, body *Block) *Synchronized {
	s := &Synchronized{Lock: lock, Body: body}
	m.alloc(s)
	return s
}

// NewLock creates a monitor enter.
func (m *Method) NewLock(x Expr) *Lock {
	s := &Lock{X: x}
	m.alloc(s)
	return s
}

// NewUnlock creates a monitor exit.
func (m *Method) NewUnlock(x Expr) *Unlock {
	s := &Unlock{X: x}
	m.alloc(s)
	return s
}

// NewSwitch creates a switch over tag.
func (m *Method) NewSwitch(tag Expr, body *Block) *Switch {
	s := &Switch{Tag: tag, Body: body}
	m.alloc(s)
	return s
}

// NewCase creates a case entry. A nil value is the default case.
func (m *Method) NewCase(value Expr) *Case {
	s := &Case{Value: value}
	m.alloc(s)
	return s
}

// NewExprStmt creates an expression statement.
func (m *Method) NewExprStmt(x Expr) *ExprStmt {
	s := &ExprStmt{X: x}
	m.alloc(s)
	return s
}

// Describe returns a short human-readable name for s, used in diagnostics.
func Describe(s Stmt) string {
	if s == nil {
		return "<nil>"
	}
	if l, ok := s.(*Labeled); ok {
		return fmt.Sprintf("%s#%d(%s)", s.Kind(), s.ID(), l.Name)
	}
	return fmt.Sprintf("%s#%d", s.Kind(), s.ID())
}
