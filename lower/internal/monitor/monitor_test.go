package monitor

import (
	"testing"

	"github.com/wippyai/jlower/ast"
)

func TestRun_LowersSynchronized(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	obj := m.NewParam("o", "java.lang.Object")
	body := m.NewBlock(m.NewExprStmt(&ast.Call{Name: "work"}))
	m.SetBody(m.NewBlock(m.NewSynchronized(ast.Ref(obj), body)))

	st, err := Run(m, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.Lowered != 1 {
		t.Errorf("Lowered = %d, want 1", st.Lowered)
	}

	stmts := m.Body.Stmts()
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	decl, ok := stmts[0].(*ast.ExprStmt).X.(*ast.Decl)
	if !ok {
		t.Fatalf("expected lock temporary, got %s", ast.Describe(stmts[0]))
	}
	if decl.Init.(*ast.LocalRef).Local != obj {
		t.Error("temporary not initialized from the lock expression")
	}
	lock, ok := stmts[1].(*ast.Lock)
	if !ok || lock.X.(*ast.LocalRef).Local != decl.Local {
		t.Fatalf("expected lock of temporary, got %s", ast.Describe(stmts[1]))
	}
	try, ok := stmts[2].(*ast.Try)
	if !ok {
		t.Fatalf("expected try, got %s", ast.Describe(stmts[2]))
	}
	if try.Body != body {
		t.Error("synchronized body should become the try body")
	}
	if len(try.Catches) != 0 || try.Finally == nil {
		t.Fatal("expected try/finally without catches")
	}
	unlock, ok := try.Finally.Stmts()[0].(*ast.Unlock)
	if !ok || unlock.X.(*ast.LocalRef).Local != decl.Local {
		t.Error("finally must unlock the temporary")
	}
}

func TestRun_Nested(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	a := m.NewParam("a", "java.lang.Object")
	b := m.NewParam("b", "java.lang.Object")
	inner := m.NewSynchronized(ast.Ref(b), m.NewBlock(m.NewReturn(nil)))
	m.SetBody(m.NewBlock(m.NewSynchronized(ast.Ref(a), m.NewBlock(inner))))

	st, err := Run(m, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.Lowered != 2 {
		t.Errorf("Lowered = %d, want 2", st.Lowered)
	}
	if ast.ContainsKind(m.Body, ast.KindSynchronized) {
		t.Error("synchronized statement left behind")
	}
	outer := m.Body.Stmts()[2].(*ast.Try)
	if len(outer.Body.Stmts()) != 3 {
		t.Errorf("inner synchronized not expanded in place: %d statements", len(outer.Body.Stmts()))
	}
}

func TestRun_NoSynchronized(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	m.SetBody(m.NewBlock(m.NewReturn(nil)))

	st, err := Run(m, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st.Lowered != 0 || m.Body.Len() != 1 {
		t.Error("method without synchronized should be unchanged")
	}
}
