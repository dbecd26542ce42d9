package interp

import (
	"strings"
	"testing"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
)

func bin(op string, x, y ast.Expr) *ast.Binary { return &ast.Binary{Op: op, X: x, Y: y} }

func logStmt(m *ast.Method, v ast.Expr) *ast.ExprStmt {
	return m.NewExprStmt(&ast.Call{Name: "log", Args: []ast.Expr{v}})
}

func TestRun_LoopWithBreakAndContinue(t *testing.T) {
	m := ast.NewMethod("T", "sum", "int")
	n := m.NewParam("n", "int")
	i := m.NewLocal("i", "int")
	s := m.NewLocal("s", "int")
	m.SetBody(m.NewBlock(
		m.NewExprStmt(&ast.Decl{Local: s, Init: ast.Int(0)}),
		m.NewFor(
			m.NewBlock(m.NewExprStmt(&ast.Decl{Local: i, Init: ast.Int(0)})),
			bin("<", ast.Ref(i), ast.Ref(n)),
			m.NewBlock(m.NewExprStmt(&ast.Assign{Target: i, Value: bin("+", ast.Ref(i), ast.Int(1))})),
			m.NewBlock(
				m.NewIf(bin("==", ast.Ref(i), ast.Int(2)), m.NewBlock(m.NewContinue("")), nil),
				m.NewIf(bin("==", ast.Ref(i), ast.Int(5)), m.NewBlock(m.NewBreak("")), nil),
				m.NewExprStmt(&ast.Assign{Target: s, Value: bin("+", ast.Ref(s), ast.Ref(i))}),
			),
		),
		m.NewReturn(ast.Ref(s)),
	))

	tests := []struct {
		n    int64
		want int64
	}{
		{0, 0},
		{3, 1},
		{10, 8}, // 0+1+3+4
	}
	for _, tt := range tests {
		res, err := Run(m, Env{Args: []any{tt.n}})
		if err != nil {
			t.Fatalf("Run(%d) error = %v", tt.n, err)
		}
		if res.Value != tt.want {
			t.Errorf("Run(%d) = %v, want %d", tt.n, res.Value, tt.want)
		}
	}
}

func TestRun_LabeledContinue(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	i := m.NewLocal("i", "int")
	inner := m.NewWhile(ast.Bool(true), m.NewBlock(
		logStmt(m, ast.Ref(i)),
		m.NewContinue("outer"),
	))
	loop := m.NewFor(
		m.NewBlock(m.NewExprStmt(&ast.Decl{Local: i, Init: ast.Int(0)})),
		bin("<", ast.Ref(i), ast.Int(2)),
		m.NewBlock(m.NewExprStmt(&ast.Assign{Target: i, Value: bin("+", ast.Ref(i), ast.Int(1))})),
		m.NewBlock(inner),
	)
	m.SetBody(m.NewBlock(m.NewLabeled("outer", m.NewBlock(loop))))

	res, err := Run(m, Env{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Join(res.Trace, ","); got != "log:0,log:1" {
		t.Errorf("trace = %s", got)
	}
}

func TestRun_TryCatchFinally(t *testing.T) {
	m := ast.NewMethod("T", "f", "int")
	fail := m.NewParam("fail", "boolean")
	e := m.NewLocal("e", "java.lang.Exception")
	m.SetBody(m.NewBlock(m.NewTry(
		m.NewBlock(
			m.NewIf(ast.Ref(fail), m.NewBlock(m.NewThrow(&ast.New{Type: "java.lang.IllegalStateException"})), nil),
			m.NewReturn(ast.Int(1)),
		),
		[]*ast.Catch{m.NewCatch([]ast.Type{"java.lang.Exception"}, e, m.NewBlock(
			logStmt(m, ast.Ref(e)),
			m.NewReturn(ast.Int(2)),
		))},
		m.NewBlock(logStmt(m, &ast.Literal{Value: "fin"})),
	)))

	res, err := Run(m, Env{Args: []any{false}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Value != int64(1) || strings.Join(res.Trace, ",") != "log:fin" {
		t.Errorf("no throw: got %v %v", res.Value, res.Trace)
	}

	res, err = Run(m, Env{Args: []any{true}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "log:new java.lang.IllegalStateException,log:fin"
	if res.Value != int64(2) || strings.Join(res.Trace, ",") != want {
		t.Errorf("throw: got %v %v", res.Value, res.Trace)
	}
}

func TestRun_FinallyOverridesReturn(t *testing.T) {
	m := ast.NewMethod("T", "returnInFinally2", "int")
	m.SetBody(m.NewBlock(m.NewTry(
		m.NewBlock(m.NewThrow(&ast.New{Type: "java.lang.RuntimeException"})),
		nil,
		m.NewBlock(m.NewReturn(ast.Int(2))),
	)))

	res, err := Run(m, Env{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Thrown != nil || res.Value != int64(2) {
		t.Errorf("outcome = %s, want return 2", res.Outcome())
	}
}

func TestRun_FlattenedDispatch(t *testing.T) {
	m := ast.NewMethod("T", "f", "int")
	e := m.NewLocal("e", "java.lang.Exception")
	handler := m.NewSyntheticLabel("catch", m.NewBlock(
		m.NewExprStmt(&ast.Assign{Target: e, Value: &ast.CaughtException{Type: "java.lang.Exception"}}),
		logStmt(m, ast.Ref(e)),
		m.NewReturn(ast.Int(-1)),
	))
	div := m.NewReturn(bin("/", ast.Int(1), ast.Int(0)))
	m.SetBody(m.NewBlock(div, handler))

	req := ast.NewRequest(m)
	req.Annotate(div, []ast.Handler{{Target: handler, Block: handler.Body, Types: []ast.Type{"java.lang.Exception"}}})
	if err := req.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	res, err := Run(m, Env{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Value != int64(-1) {
		t.Errorf("outcome = %s, want return -1", res.Outcome())
	}
	if len(res.Trace) != 1 || res.Trace[0] != "log:new "+string(ArithmeticException) {
		t.Errorf("trace = %v", res.Trace)
	}
}

func TestRun_HandlerTypeMismatch(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	handler := m.NewSyntheticLabel("catch", m.NewBlock(m.NewReturn(nil)))
	raise := m.NewExprStmt(&ast.Call{Name: "raise", Args: []ast.Expr{&ast.Literal{Value: "java.lang.Error"}}})
	m.SetBody(m.NewBlock(raise, m.NewReturn(nil), handler))

	req := ast.NewRequest(m)
	req.Annotate(raise, []ast.Handler{{Target: handler, Block: handler.Body, Types: []ast.Type{"java.lang.Exception"}}})
	if err := req.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	res, err := Run(m, Env{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Outcome() != "throw java.lang.Error" {
		t.Errorf("outcome = %s", res.Outcome())
	}
}

func TestRun_SynchronizedUnlocksOnThrow(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	m.SetBody(m.NewBlock(m.NewSynchronized(&ast.Literal{Value: "mon"}, m.NewBlock(
		m.NewThrow(&ast.New{Type: "X"}),
	))))

	res, err := Run(m, Env{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Join(res.Trace, ","); got != "lock:mon,unlock:mon" {
		t.Errorf("trace = %s", got)
	}
	if res.Outcome() != "throw X" {
		t.Errorf("outcome = %s", res.Outcome())
	}
}

func TestRun_Switch(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	x := m.NewParam("x", "int")
	m.SetBody(m.NewBlock(m.NewSwitch(ast.Ref(x), m.NewBlock(
		m.NewCase(ast.Int(1)), logStmt(m, ast.Int(1)),
		m.NewCase(ast.Int(2)), logStmt(m, ast.Int(2)), m.NewBreak(""),
		m.NewCase(nil), logStmt(m, &ast.Literal{Value: "default"}),
	))))

	tests := []struct {
		x    int64
		want string
	}{
		{1, "log:1,log:2"},
		{2, "log:2"},
		{7, "log:default"},
	}
	for _, tt := range tests {
		res, err := Run(m, Env{Args: []any{tt.x}})
		if err != nil {
			t.Fatalf("Run(%d) error = %v", tt.x, err)
		}
		if got := strings.Join(res.Trace, ","); got != tt.want {
			t.Errorf("Run(%d) trace = %s, want %s", tt.x, got, tt.want)
		}
	}
}

func TestRun_StepLimit(t *testing.T) {
	m := ast.NewMethod("T", "spin", "")
	m.SetBody(m.NewBlock(m.NewWhile(ast.Bool(true), m.NewBlock())))

	_, err := Run(m, Env{MaxSteps: 50})
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindStepLimit {
		t.Fatalf("error = %v, want step limit", err)
	}
}
