package fixture

import (
	"strconv"
	"strings"
	"text/scanner"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
)

// Scope resolves local names in expressions.
type Scope map[string]*ast.Local

var binaryPrec = map[string]int{
	"=":  1,
	"||": 2,
	"&&": 3,
	"==": 4, "!=": 4,
	"<": 5, "<=": 5, ">": 5, ">=": 5,
	"+": 6, "-": 6,
	"*": 7, "/": 7, "%": 7,
}

type exprParser struct {
	scope Scope
	src   string
	text  string
	s     scanner.Scanner
	tok   rune
}

// ParseExpr parses a Java-like expression. Identifiers must name locals in
// scope, except for the literals true, false and null, the caught
// exception `caught`, allocations `new T()` and calls `f(a, b)`.
func ParseExpr(src string, scope Scope) (e ast.Expr, err error) {
	defer errors.Recover(&err)
	p := &exprParser{scope: scope, src: src}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings
	p.s.Error = func(_ *scanner.Scanner, msg string) { p.fail("%s", msg) }
	p.next()

	e = p.expr(1)
	if p.tok != scanner.EOF {
		p.fail("unexpected %q", p.text)
	}
	return e, nil
}

func (p *exprParser) fail(format string, args ...any) {
	errors.New(errors.PhaseDecode, errors.KindInvalidInput).
		Value(p.src).
		Detail("expression %q: "+format, append([]any{p.src}, args...)...).
		Fail()
}

func (p *exprParser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
	switch p.tok {
	case '=', '!', '<', '>':
		if p.s.Peek() == '=' {
			p.s.Next()
			p.text += "="
		}
	case '&', '|':
		if p.s.Peek() == p.tok {
			p.s.Next()
			p.text += p.text
		}
	}
}

// op returns the current token as an operator, or "" for operands.
func (p *exprParser) op() string {
	switch p.tok {
	case scanner.EOF, scanner.Ident, scanner.Int, scanner.String:
		return ""
	}
	return p.text
}

func (p *exprParser) expect(text string) {
	if p.op() != text {
		p.fail("expected %q, found %q", text, p.text)
	}
	p.next()
}

func (p *exprParser) expr(min int) ast.Expr {
	x := p.unary()
	for {
		op := p.op()
		prec := binaryPrec[op]
		if prec == 0 || prec < min {
			return x
		}
		p.next()
		if op == "=" {
			ref, ok := x.(*ast.LocalRef)
			if !ok {
				p.fail("cannot assign to %s", x)
			}
			x = &ast.Assign{Target: ref.Local, Value: p.expr(prec)}
			continue
		}
		x = &ast.Binary{Op: op, X: x, Y: p.expr(prec + 1)}
	}
}

func (p *exprParser) unary() ast.Expr {
	switch op := p.op(); op {
	case "!", "-":
		p.next()
		x := p.unary()
		if lit, ok := x.(*ast.Literal); ok && op == "-" {
			if v, ok := lit.Value.(int64); ok {
				return ast.Int(-v)
			}
		}
		return &ast.Unary{Op: op, X: x}
	}
	return p.primary()
}

func (p *exprParser) primary() ast.Expr {
	switch p.tok {
	case scanner.Int:
		v, err := strconv.ParseInt(p.text, 0, 64)
		if err != nil {
			p.fail("bad integer %s", p.text)
		}
		p.next()
		return ast.Int(v)
	case scanner.String:
		v, err := strconv.Unquote(p.text)
		if err != nil {
			p.fail("bad string %s", p.text)
		}
		p.next()
		return &ast.Literal{Value: v}
	case scanner.Ident:
		return p.ident()
	}
	if p.op() == "(" {
		p.next()
		x := p.expr(1)
		p.expect(")")
		return x
	}
	p.fail("unexpected %q", p.text)
	return nil
}

func (p *exprParser) ident() ast.Expr {
	name := p.text
	p.next()
	switch name {
	case "true":
		return ast.Bool(true)
	case "false":
		return ast.Bool(false)
	case "null":
		return &ast.Literal{}
	case "caught":
		return &ast.CaughtException{Type: ast.Throwable}
	case "new":
		t := p.qualified()
		p.expect("(")
		p.expect(")")
		return &ast.New{Type: t}
	}

	if p.op() == "(" {
		p.next()
		var args []ast.Expr
		for p.op() != ")" {
			args = append(args, p.expr(2))
			if p.op() != "," {
				break
			}
			p.next()
		}
		p.expect(")")
		return &ast.Call{Name: name, Args: args}
	}

	l, ok := p.scope[name]
	if !ok {
		p.fail("undefined local %s", name)
	}
	return ast.Ref(l)
}

// qualified parses a dotted type name.
func (p *exprParser) qualified() ast.Type {
	if p.tok != scanner.Ident {
		p.fail("expected type name, found %q", p.text)
	}
	parts := []string{p.text}
	p.next()
	for p.op() == "." {
		p.next()
		if p.tok != scanner.Ident {
			p.fail("expected type name, found %q", p.text)
		}
		parts = append(parts, p.text)
		p.next()
	}
	return ast.Type(strings.Join(parts, "."))
}
