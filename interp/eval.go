package interp

import (
	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
)

// eval computes e. A non-nil Object is an exception raised by e.
func (x *machine) eval(e ast.Expr) (any, *Object) {
	switch e := e.(type) {
	case nil:
		return nil, nil
	case *ast.Literal:
		if i, ok := e.Value.(int); ok {
			return int64(i), nil
		}
		return e.Value, nil
	case *ast.LocalRef:
		return x.locals[e.Local], nil
	case *ast.Assign:
		v, exc := x.eval(e.Value)
		if exc != nil {
			return nil, exc
		}
		x.locals[e.Target] = v
		return v, nil
	case *ast.Decl:
		v, exc := x.eval(e.Init)
		if exc != nil {
			return nil, exc
		}
		x.locals[e.Local] = v
		return v, nil
	case *ast.New:
		return &Object{Type: e.Type}, nil
	case *ast.CaughtException:
		return x.caught, nil
	case *ast.Unary:
		v, exc := x.eval(e.X)
		if exc != nil {
			return nil, exc
		}
		switch e.Op {
		case "!":
			b, ok := v.(bool)
			if !ok {
				x.typeError(e, v)
			}
			return !b, nil
		case "-":
			i, ok := v.(int64)
			if !ok {
				x.typeError(e, v)
			}
			return -i, nil
		}
	case *ast.Binary:
		return x.binary(e)
	case *ast.Call:
		return x.call(e)
	}
	errors.New(errors.PhaseExec, errors.KindUnsupported).
		Method(x.method).
		Detail("cannot evaluate %s", e).
		Fail()
	return nil, nil
}

func (x *machine) typeError(e ast.Expr, v any) {
	errors.New(errors.PhaseExec, errors.KindUnsupported).
		Method(x.method).
		Value(v).
		Detail("operand of %s has type %T", e, v).
		Fail()
}

func (x *machine) truth(s ast.Stmt, v any) bool {
	b, ok := v.(bool)
	if !ok {
		x.fail(errors.KindUnsupported, s, "condition has type %T", v)
	}
	return b
}

func (x *machine) binary(e *ast.Binary) (any, *Object) {
	l, exc := x.eval(e.X)
	if exc != nil {
		return nil, exc
	}
	switch e.Op {
	case "&&", "||":
		lb, ok := l.(bool)
		if !ok {
			x.typeError(e, l)
		}
		if lb == (e.Op == "||") {
			return lb, nil
		}
		r, exc := x.eval(e.Y)
		if exc != nil {
			return nil, exc
		}
		rb, ok := r.(bool)
		if !ok {
			x.typeError(e, r)
		}
		return rb, nil
	}

	r, exc := x.eval(e.Y)
	if exc != nil {
		return nil, exc
	}
	switch e.Op {
	case "==":
		return l == r, nil
	case "!=":
		return l != r, nil
	case "+":
		if ls, ok := l.(string); ok {
			return ls + Format(r), nil
		}
		if rs, ok := r.(string); ok {
			return Format(l) + rs, nil
		}
	}

	li, lok := l.(int64)
	ri, rok := r.(int64)
	if !lok || !rok {
		x.typeError(e, l)
	}
	switch e.Op {
	case "+":
		return li + ri, nil
	case "-":
		return li - ri, nil
	case "*":
		return li * ri, nil
	case "/", "%":
		if ri == 0 {
			return nil, &Object{Type: ArithmeticException}
		}
		if e.Op == "/" {
			return li / ri, nil
		}
		return li % ri, nil
	case "<":
		return li < ri, nil
	case "<=":
		return li <= ri, nil
	case ">":
		return li > ri, nil
	case ">=":
		return li >= ri, nil
	}
	x.typeError(e, l)
	return nil, nil
}

// Builtin calls. Anything else is looked up in Env.Funcs, or traced.
const (
	builtinLog     = "log"
	builtinRaise   = "raise"
	builtinRaiseIf = "raiseIf"
)

func (x *machine) call(e *ast.Call) (any, *Object) {
	args := make([]any, len(e.Args))
	for i, a := range e.Args {
		v, exc := x.eval(a)
		if exc != nil {
			return nil, exc
		}
		args[i] = v
	}

	switch e.Name {
	case builtinLog:
		x.record("log:" + formatArgs(args))
		return nil, nil
	case builtinRaise:
		return nil, &Object{Type: x.exceptionType(e, args, 0)}
	case builtinRaiseIf:
		if len(args) != 2 {
			x.typeError(e, args)
		}
		if b, ok := args[0].(bool); ok && b {
			return nil, &Object{Type: x.exceptionType(e, args, 1)}
		}
		return nil, nil
	}

	if fn, ok := x.env.Funcs[e.Name]; ok {
		return fn(args)
	}
	x.record(e.Name + "(" + formatArgs(args) + ")")
	return nil, nil
}

func (x *machine) exceptionType(e *ast.Call, args []any, i int) ast.Type {
	if i >= len(args) {
		x.typeError(e, nil)
	}
	s, ok := args[i].(string)
	if !ok {
		x.typeError(e, args[i])
	}
	return ast.Type(s)
}
