package finally

import (
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
	"github.com/wippyai/jlower/lower/internal/marker"
)

func call(m *ast.Method, name string) *ast.ExprStmt {
	return m.NewExprStmt(&ast.Call{Name: name})
}

func run(t *testing.T, m *ast.Method) (*marker.Table, Stats) {
	t.Helper()
	tab := marker.NewTable()
	st, err := Run(m, tab, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ast.ContainsKind(m.Body, ast.KindTry) {
		ast.Inspect(m.Body, func(s ast.Stmt) bool {
			if tr, ok := s.(*ast.Try); ok && tr.Finally != nil {
				t.Errorf("%s still has a finally block", ast.Describe(tr))
			}
			return true
		})
	}
	return tab, st
}

func checkPrint(t *testing.T, m *ast.Method, want string) {
	t.Helper()
	if got := ast.Sprint(m.Body); got != want {
		t.Errorf("inlined tree mismatch (-want +got):\n%s", diff.Diff(want, got))
	}
}

// countCalls counts calls to name in the attached tree.
func countCalls(m *ast.Method, name string) int {
	n := 0
	ast.Inspect(m.Body, func(s ast.Stmt) bool {
		ast.StmtExprs(s, func(e ast.Expr) {
			ast.WalkExpr(e, func(x ast.Expr) {
				if c, ok := x.(*ast.Call); ok && c.Name == name {
					n++
				}
			})
		})
		return true
	})
	return n
}

func TestRun_TryFinallyWithoutCatches(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	try := m.NewTry(m.NewBlock(call(m, "a")), nil, m.NewBlock(call(m, "fin")))
	m.SetBody(m.NewBlock(try, m.NewReturn(nil)))

	tab, st := run(t, m)
	if st.Tries != 1 || st.Copies != 2 {
		t.Errorf("unexpected stats %+v", st)
	}

	checkPrint(t, m, `{
    try {
        a();
        {
            fin();
        }
    } catch (java.lang.Throwable $finally_ex) {
        {
            fin();
        }
        throw $finally_ex;
    }
    return;
}
`)

	host := m.Body.Stmts()[0].(*ast.Try)
	if host.Body != try.Body {
		t.Error("try block should be reused as the host body")
	}
	bodyCopy := host.Body.Stmts()[1].(*ast.Block)
	handlerCopy := host.Catches[0].Body.Stmts()[0].(*ast.Block)

	mk, ok := tab.Get(bodyCopy)
	if !ok || mk.Origin != host || mk.Host != host || mk.CatchIntoFinally {
		t.Errorf("body copy marker = %+v, %v", mk, ok)
	}
	mk, ok = tab.Get(handlerCopy)
	if !ok || mk.Origin != host || !mk.CatchIntoFinally {
		t.Errorf("handler copy marker = %+v, %v", mk, ok)
	}
}

func TestRun_TryCatchFinally(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	e := m.NewLocal("e", "java.lang.Exception")
	try := m.NewTry(
		m.NewBlock(call(m, "a")),
		[]*ast.Catch{m.NewCatch([]ast.Type{"java.lang.Exception"}, e, m.NewBlock(call(m, "b")))},
		m.NewBlock(call(m, "fin")),
	)
	m.SetBody(m.NewBlock(try))

	tab, st := run(t, m)
	if st.Copies != 3 {
		t.Errorf("Copies = %d, want 3", st.Copies)
	}

	checkPrint(t, m, `{
    try {
        try {
            a();
            {
                fin();
            }
        } catch (java.lang.Exception e) {
            b();
            {
                fin();
            }
        }
    } catch (java.lang.Throwable $finally_ex) {
        {
            fin();
        }
        throw $finally_ex;
    }
}
`)

	host := m.Body.Stmts()[0].(*ast.Try)
	origin := host.Body.Stmts()[0].(*ast.Try)
	catchCopy := origin.Catches[0].Body.Stmts()[1].(*ast.Block)
	mk, ok := tab.Get(catchCopy)
	if !ok || mk.Origin != origin || mk.Host != host || !mk.CatchIntoFinally {
		t.Errorf("catch copy marker = %+v, %v", mk, ok)
	}
	bodyCopy := origin.Body.Stmts()[1].(*ast.Block)
	if mk, _ := tab.Get(bodyCopy); mk.CatchIntoFinally || mk.Origin != origin {
		t.Errorf("body copy marker = %+v", mk)
	}
}

func TestRun_ReturnCapturesValue(t *testing.T) {
	m := ast.NewMethod("T", "f", "int")
	x := m.NewParam("x", "int")
	try := m.NewTry(
		m.NewBlock(m.NewReturn(ast.Ref(x))),
		nil,
		m.NewBlock(m.NewExprStmt(&ast.Assign{Target: x, Value: ast.Int(0)})),
	)
	m.SetBody(m.NewBlock(try))

	_, st := run(t, m)
	if st.Temps != 1 {
		t.Errorf("Temps = %d, want 1", st.Temps)
	}

	checkPrint(t, m, `{
    try {
        int $ret = x;
        {
            x = 0;
        }
        return $ret;
    } catch (java.lang.Throwable $finally_ex) {
        {
            x = 0;
        }
        throw $finally_ex;
    }
}
`)
}

func TestRun_LiteralReturnNotCaptured(t *testing.T) {
	m := ast.NewMethod("T", "f", "int")
	m.SetBody(m.NewBlock(m.NewTry(
		m.NewBlock(m.NewReturn(ast.Int(1))),
		nil,
		m.NewBlock(call(m, "fin")),
	)))

	_, st := run(t, m)
	if st.Temps != 0 {
		t.Errorf("Temps = %d, want 0", st.Temps)
	}
	host := m.Body.Stmts()[0].(*ast.Try)
	stmts := host.Body.Stmts()
	if len(stmts) != 2 {
		t.Fatalf("expected copy and return, got %d statements", len(stmts))
	}
	if _, ok := stmts[1].(*ast.Return); !ok {
		t.Errorf("expected return after copy, got %s", ast.Describe(stmts[1]))
	}
}

func TestRun_FinallyReturnWins(t *testing.T) {
	m := ast.NewMethod("T", "returnInFinally2", "int")
	m.SetBody(m.NewBlock(m.NewTry(
		m.NewBlock(m.NewReturn(&ast.Call{Name: "g"})),
		nil,
		m.NewBlock(m.NewReturn(ast.Int(2))),
	)))

	_, st := run(t, m)
	if st.Temps != 0 {
		t.Errorf("Temps = %d, want 0 when finally overrides", st.Temps)
	}

	checkPrint(t, m, `{
    try {
        g();
        {
            return 2;
        }
    } catch (java.lang.Throwable $finally_ex) {
        {
            return 2;
        }
    }
}
`)
}

func TestRun_GotoLeavingTry(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	out := m.NewSyntheticLabel("out", nil)
	inside := m.NewSyntheticLabel("inside", m.NewBlock(call(m, "a")))
	try := m.NewTry(
		m.NewBlock(m.NewGoto(inside), inside, m.NewGoto(out)),
		nil,
		m.NewBlock(call(m, "fin")),
	)
	m.SetBody(m.NewBlock(try, out))

	_, st := run(t, m)
	// goto out, exceptional exit. The try block ends in a goto.
	if st.Copies != 2 {
		t.Errorf("Copies = %d, want 2", st.Copies)
	}

	checkPrint(t, m, `{
    try {
        goto inside;
        inside: {
            a();
        }
        {
            fin();
        }
        goto out;
    } catch (java.lang.Throwable $finally_ex) {
        {
            fin();
        }
        throw $finally_ex;
    }
    out: {
    }
}
`)
}

func TestRun_GotoInFinallyOverrides(t *testing.T) {
	m := ast.NewMethod("T", "f", "int")
	out := m.NewSyntheticLabel("out", m.NewBlock(m.NewReturn(ast.Int(0))))
	m.SetBody(m.NewBlock(
		m.NewTry(m.NewBlock(m.NewReturn(ast.Int(1))), nil, m.NewBlock(m.NewGoto(out))),
		out,
	))

	run(t, m)
	host := m.Body.Stmts()[0].(*ast.Try)
	if len(host.Catches[0].Body.Stmts()) != 1 {
		t.Error("rethrow must be dropped when finally branches away")
	}
	body := host.Body.Stmts()
	if len(body) != 1 {
		t.Fatalf("return should be replaced by the copy, got %d statements", len(body))
	}
	if g, ok := body[0].(*ast.Block).Stmts()[0].(*ast.Goto); !ok || g.Target != out {
		t.Error("copy should branch to the original target")
	}
}

func TestRun_NestedCoverage(t *testing.T) {
	m := ast.NewMethod("T", "f", "int")
	inner := m.NewTry(
		m.NewBlock(m.NewReturn(ast.Int(1))),
		nil,
		m.NewBlock(call(m, "innerFin")),
	)
	outer := m.NewTry(
		m.NewBlock(inner, call(m, "after")),
		nil,
		m.NewBlock(call(m, "outerFin")),
	)
	m.SetBody(m.NewBlock(outer, m.NewReturn(ast.Int(0))))

	tab, st := run(t, m)
	if st.Tries != 2 {
		t.Errorf("Tries = %d, want 2", st.Tries)
	}

	// inner: before return, catch-all. outer: before return, end of body,
	// catch-all.
	if got := countCalls(m, "innerFin"); got != 2 {
		t.Errorf("innerFin copies = %d, want 2", got)
	}
	if got := countCalls(m, "outerFin"); got != 3 {
		t.Errorf("outerFin copies = %d, want 3", got)
	}
	if tab.Len() != 5 {
		t.Errorf("markers = %d, want 5", tab.Len())
	}

	// The return inside the inner try runs the inner finally, then the
	// outer one.
	innerHost := m.Body.Stmts()[0].(*ast.Try).Body.Stmts()[0].(*ast.Try)
	stmts := innerHost.Body.Stmts()
	if len(stmts) != 3 {
		t.Fatalf("expected inner copy, outer copy and return, got %d statements", len(stmts))
	}
	first := stmts[0].(*ast.Block).Stmts()[0].(*ast.ExprStmt).X.(*ast.Call)
	second := stmts[1].(*ast.Block).Stmts()[0].(*ast.ExprStmt).X.(*ast.Call)
	if first.Name != "innerFin" || second.Name != "outerFin" {
		t.Errorf("copies out of order: %s, %s", first.Name, second.Name)
	}
}

func TestRun_NestedFinallyInsideFinallyIsRemapped(t *testing.T) {
	m := ast.NewMethod("T", "f", "")
	nested := m.NewTry(m.NewBlock(call(m, "x")), nil, m.NewBlock(call(m, "y")))
	outer := m.NewTry(m.NewBlock(call(m, "a")), nil, m.NewBlock(nested))
	m.SetBody(m.NewBlock(outer))

	tab, _ := run(t, m)

	// Two copies of the outer finally, each carrying both copies of y.
	if got := countCalls(m, "y"); got != 4 {
		t.Errorf("y copies = %d, want 4", got)
	}
	// The markers of the copies left in the discarded finally are gone.
	if tab.Len() != 6 {
		t.Errorf("markers = %d, want 6", tab.Len())
	}

	n := 0
	tab.Each(m, func(b *ast.Block, mk marker.Marker) {
		n++
		if !m.Attached(b) {
			t.Errorf("marker of detached block %s", ast.Describe(b))
		}
		if !ast.Encloses(mk.Host, b) {
			t.Errorf("marker of %s names host %s that does not enclose it", ast.Describe(b), ast.Describe(mk.Host))
		}
	})
	if n != tab.Len() {
		t.Errorf("Each visited %d of %d markers", n, tab.Len())
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(m *ast.Method) *ast.Block
		kind  errors.Kind
	}{
		{
			name: "loop in region",
			build: func(m *ast.Method) *ast.Block {
				loop := m.NewWhile(ast.Bool(true), m.NewBlock())
				return m.NewBlock(m.NewTry(m.NewBlock(loop), nil, m.NewBlock(call(m, "fin"))))
			},
			kind: errors.KindMalformedTree,
		},
		{
			name: "goto to detached label",
			build: func(m *ast.Method) *ast.Block {
				lost := m.NewSyntheticLabel("lost", nil)
				return m.NewBlock(m.NewTry(m.NewBlock(m.NewGoto(lost)), nil, m.NewBlock(call(m, "fin"))))
			},
			kind: errors.KindUnclassifiedGoto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ast.NewMethod("T", "f", "")
			m.SetBody(tt.build(m))
			before := ast.Sprint(m.Body)

			_, err := Run(m, marker.NewTable(), nil)
			e, ok := err.(*errors.Error)
			if !ok {
				t.Fatalf("error = %v, want *errors.Error", err)
			}
			if e.Kind != tt.kind || e.Phase != errors.PhaseFinally {
				t.Errorf("got %s", e)
			}
			if after := ast.Sprint(m.Body); after != before {
				t.Errorf("failed run modified the tree:\n%s", diff.Diff(before, after))
			}
		})
	}
}
