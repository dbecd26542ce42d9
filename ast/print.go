package ast

import (
	"fmt"
	"io"
	"strings"
)

// PrintConfig controls Fprint output.
type PrintConfig struct {
	// Handlers appends each statement's catch-clause annotation as a
	// trailing comment.
	Handlers bool
	// IDs prefixes each statement with its arena ID.
	IDs bool
	// Indent is the indentation unit; four spaces when empty.
	Indent string
}

// Fprint writes s in Java-like syntax to w.
func Fprint(w io.Writer, s Stmt, cfg *PrintConfig) error {
	if cfg == nil {
		cfg = &PrintConfig{}
	}
	p := &printer{cfg: cfg, indent: cfg.Indent}
	if p.indent == "" {
		p.indent = "    "
	}
	p.stmt(s)
	_, err := io.WriteString(w, p.b.String())
	return err
}

// Sprint returns s in Java-like syntax.
func Sprint(s Stmt) string {
	var b strings.Builder
	_ = Fprint(&b, s, nil)
	return b.String()
}

// FprintMethod writes the signature and body of m to w.
func FprintMethod(w io.Writer, m *Method, cfg *PrintConfig) error {
	ret := "void"
	if m.ReturnType != "" {
		ret = string(m.ReturnType)
	}
	params := make([]string, len(m.Params))
	for i, l := range m.Params {
		params[i] = string(l.Type) + " " + l.Name
	}
	if _, err := fmt.Fprintf(w, "%s %s(%s) ", ret, m, strings.Join(params, ", ")); err != nil {
		return err
	}
	return Fprint(w, m.Body, cfg)
}

type printer struct {
	cfg    *PrintConfig
	indent string
	b      strings.Builder
	depth  int
}

func (p *printer) line(s Stmt, format string, args ...any) {
	p.open(s, format, args...)
	p.b.WriteByte('\n')
}

// open writes an indented line without terminating it.
func (p *printer) open(s Stmt, format string, args ...any) {
	p.b.WriteString(strings.Repeat(p.indent, p.depth))
	if p.cfg.IDs && s != nil {
		fmt.Fprintf(&p.b, "/*%d*/ ", s.ID())
	}
	fmt.Fprintf(&p.b, format, args...)
	if p.cfg.Handlers && s != nil && len(s.Handlers()) > 0 {
		p.b.WriteString(" // handlers: ")
		p.b.WriteString(FormatHandlers(s.Handlers()))
	}
}

// body writes " {", the block's children one level deeper, and the closing
// brace at the current level.
func (p *printer) body(b *Block, closer string) {
	p.b.WriteString(" {\n")
	p.depth++
	for _, c := range b.stmts {
		p.stmt(c)
	}
	p.depth--
	p.b.WriteString(strings.Repeat(p.indent, p.depth))
	p.b.WriteString("}" + closer)
}

func (p *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case *Block:
		p.open(nil, "")
		p.b.WriteString("{\n")
		p.depth++
		for _, c := range n.stmts {
			p.stmt(c)
		}
		p.depth--
		p.b.WriteString(strings.Repeat(p.indent, p.depth) + "}\n")
	case *If:
		p.open(s, "if (%s)", n.Cond)
		if n.Else == nil {
			p.body(n.Then, "\n")
			return
		}
		p.body(n.Then, " else")
		p.body(n.Else, "\n")
	case *While:
		p.open(s, "while (%s)", n.Cond)
		p.body(n.Body, "\n")
	case *DoWhile:
		p.open(s, "do")
		p.body(n.Body, fmt.Sprintf(" while (%s);\n", n.Cond))
	case *For:
		cond := ""
		if n.Cond != nil {
			cond = n.Cond.String()
		}
		p.open(s, "for (%s; %s; %s)", inline(n.Init), cond, inline(n.Update))
		p.body(n.Body, "\n")
	case *Labeled:
		p.open(s, "%s:", n.Name)
		p.body(n.Body, "\n")
	case *Goto:
		p.line(s, "goto %s;", n.Target.Name)
	case *Return:
		if n.Value == nil {
			p.line(s, "return;")
		} else {
			p.line(s, "return %s;", n.Value)
		}
	case *Throw:
		p.line(s, "throw %s;", n.Value)
	case *Break:
		p.line(s, "%s;", strings.TrimSpace("break "+n.Label))
	case *Continue:
		p.line(s, "%s;", strings.TrimSpace("continue "+n.Label))
	case *Try:
		p.open(s, "try")
		closer := "\n"
		if len(n.Catches) > 0 || n.Finally != nil {
			closer = ""
		}
		p.body(n.Body, closer)
		for i, c := range n.Catches {
			types := make([]string, len(c.Types))
			for j, t := range c.Types {
				types[j] = string(t)
			}
			closer = "\n"
			if i < len(n.Catches)-1 || n.Finally != nil {
				closer = ""
			}
			fmt.Fprintf(&p.b, " catch (%s %s)", strings.Join(types, " | "), c.Var)
			p.body(c.Body, closer)
		}
		if n.Finally != nil {
			p.b.WriteString(" finally")
			p.body(n.Finally, "\n")
		}
	case *Synchronized:
		p.open(s, "synchronized (%s)", n.Lock)
		p.body(n.Body, "\n")
	case *Lock:
		p.line(s, "lock %s;", n.X)
	case *Unlock:
		p.line(s, "unlock %s;", n.X)
	case *Switch:
		p.open(s, "switch (%s)", n.Tag)
		p.body(n.Body, "\n")
	case *Case:
		if n.Value == nil {
			p.line(s, "default:")
		} else {
			p.line(s, "case %s:", n.Value)
		}
	case *ExprStmt:
		p.line(s, "%s;", n.X)
	default:
		panic(fmt.Sprintf("ast: unexpected statement %T", s))
	}
}

// inline renders the expression statements of a for-loop clause.
func inline(b *Block) string {
	if b == nil {
		return ""
	}
	parts := make([]string, 0, len(b.stmts))
	for _, s := range b.stmts {
		if e, ok := s.(*ExprStmt); ok {
			parts = append(parts, e.X.String())
		} else {
			parts = append(parts, strings.TrimSpace(Sprint(s)))
		}
	}
	return strings.Join(parts, ", ")
}

// FormatHandlers renders an annotation as "label(T1|T2), ...".
func FormatHandlers(hs []Handler) string {
	parts := make([]string, len(hs))
	for i, h := range hs {
		types := make([]string, len(h.Types))
		for j, t := range h.Types {
			types[j] = string(t)
		}
		name := "?"
		if h.Target != nil {
			name = h.Target.Name
		}
		parts[i] = name + "(" + strings.Join(types, "|") + ")"
	}
	return strings.Join(parts, ", ")
}
