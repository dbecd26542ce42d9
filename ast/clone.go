package ast

import "fmt"

// CloneMap records the correspondence between an original subtree and its
// clone.
type CloneMap struct {
	Stmts  map[Stmt]Stmt
	Locals map[*Local]*Local
}

// Stmt returns the clone of s, or s itself when s was not cloned.
func (cm *CloneMap) Stmt(s Stmt) Stmt {
	if c, ok := cm.Stmts[s]; ok {
		return c
	}
	return s
}

// CloneBlock deep-copies b into m. See Clone.
func (m *Method) CloneBlock(b *Block) (*Block, *CloneMap) {
	c, cm := m.Clone(b)
	return c.(*Block), cm
}

// Clone deep-copies the subtree rooted at s into m.
//
// Every statement of the copy is freshly allocated. Locals declared inside
// the subtree, by a Decl or as a catch variable, are replaced by fresh
// locals; locals declared outside are shared. Labels get fresh unique names
// and gotos aimed inside the subtree are retargeted to the copy. The copy is
// detached: its root has no parent.
func (m *Method) Clone(s Stmt) (Stmt, *CloneMap) {
	cm := &CloneMap{
		Stmts:  make(map[Stmt]Stmt),
		Locals: make(map[*Local]*Local),
	}

	Inspect(s, func(n Stmt) bool {
		StmtExprs(n, func(e Expr) {
			WalkExpr(e, func(x Expr) {
				if d, ok := x.(*Decl); ok {
					cm.declare(m, d.Local)
				}
			})
		})
		if t, ok := n.(*Try); ok {
			for _, c := range t.Catches {
				if c.Var != nil {
					cm.declare(m, c.Var)
				}
			}
		}
		return true
	})

	c := m.cloneStmt(s, cm)
	for orig, dup := range cm.Stmts {
		if g, ok := orig.(*Goto); ok {
			if t, ok := cm.Stmts[g.Target]; ok {
				dup.(*Goto).Target = t.(*Labeled)
			}
		}
	}
	link(c, nil)
	return c, cm
}

func (cm *CloneMap) declare(m *Method, l *Local) {
	if _, ok := cm.Locals[l]; !ok {
		cm.Locals[l] = m.NewLocal(l.Name, l.Type)
	}
}

func (m *Method) cloneBlock(b *Block, cm *CloneMap) *Block {
	if b == nil {
		return nil
	}
	return m.cloneStmt(b, cm).(*Block)
}

func (m *Method) cloneStmt(s Stmt, cm *CloneMap) Stmt {
	x := func(e Expr) Expr { return CloneExpr(e, cm.Locals) }
	var c Stmt
	switch n := s.(type) {
	case *Block:
		stmts := make([]Stmt, len(n.stmts))
		for i, child := range n.stmts {
			stmts[i] = m.cloneStmt(child, cm)
		}
		c = m.NewBlock(stmts...)
	case *If:
		c = m.NewIf(x(n.Cond), m.cloneBlock(n.Then, cm), m.cloneBlock(n.Else, cm))
	case *While:
		c = m.NewWhile(x(n.Cond), m.cloneBlock(n.Body, cm))
	case *DoWhile:
		c = m.NewDoWhile(m.cloneBlock(n.Body, cm), x(n.Cond))
	case *For:
		c = m.NewFor(m.cloneBlock(n.Init, cm), x(n.Cond), m.cloneBlock(n.Update, cm), m.cloneBlock(n.Body, cm))
	case *Labeled:
		c = m.newLabeled(m.UniqueLabel(n.Name), n.Source, m.cloneBlock(n.Body, cm))
	case *Goto:
		c = m.NewGoto(n.Target)
	case *Return:
		c = m.NewReturn(x(n.Value))
	case *Throw:
		c = m.NewThrow(x(n.Value))
	case *Break:
		c = m.NewBreak(n.Label)
	case *Continue:
		c = m.NewContinue(n.Label)
	case *Try:
		catches := make([]*Catch, len(n.Catches))
		for i, cc := range n.Catches {
			v := cc.Var
			if nv, ok := cm.Locals[v]; ok {
				v = nv
			}
			catches[i] = m.NewCatch(append([]Type(nil), cc.Types...), v, m.cloneBlock(cc.Body, cm))
		}
		c = m.NewTry(m.cloneBlock(n.Body, cm), catches, m.cloneBlock(n.Finally, cm))
	case *Synchronized:
		c = m.NewSynchronized(x(n.Lock), m.cloneBlock(n.Body, cm))
	case *Lock:
		c = m.NewLock(x(n.X))
	case *Unlock:
		c = m.NewUnlock(x(n.X))
	case *Switch:
		c = m.NewSwitch(x(n.Tag), m.cloneBlock(n.Body, cm))
	case *Case:
		c = m.NewCase(x(n.Value))
	case *ExprStmt:
		c = m.NewExprStmt(x(n.X))
	default:
		panic(fmt.Sprintf("ast: unexpected statement %T", s))
	}
	cm.Stmts[s] = c
	return c
}

// StmtExprs calls fn for each expression held directly by s.
func StmtExprs(s Stmt, fn func(Expr)) {
	var e Expr
	switch n := s.(type) {
	case *If:
		e = n.Cond
	case *While:
		e = n.Cond
	case *DoWhile:
		e = n.Cond
	case *For:
		e = n.Cond
	case *Return:
		e = n.Value
	case *Throw:
		e = n.Value
	case *Synchronized:
		e = n.Lock
	case *Lock:
		e = n.X
	case *Unlock:
		e = n.X
	case *Switch:
		e = n.Tag
	case *Case:
		e = n.Value
	case *ExprStmt:
		e = n.X
	}
	if e != nil {
		fn(e)
	}
}

// WalkExpr calls fn for e and every subexpression, outermost first.
func WalkExpr(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case *Binary:
		WalkExpr(x.X, fn)
		WalkExpr(x.Y, fn)
	case *Unary:
		WalkExpr(x.X, fn)
	case *Call:
		for _, a := range x.Args {
			WalkExpr(a, fn)
		}
	case *Assign:
		WalkExpr(x.Value, fn)
	case *Decl:
		WalkExpr(x.Init, fn)
	}
}
