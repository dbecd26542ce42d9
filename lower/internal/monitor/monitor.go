// Package monitor lowers synchronized statements into explicit monitor
// enter/exit wrapped in try/finally.
//
//	synchronized (e) { B }
//
// becomes
//
//	T $lock = e;
//	lock $lock;
//	try { B } finally { unlock $lock; }
//
// The finally inliner then places the monitor exit on every path leaving B.
package monitor

import (
	"go.uber.org/zap"

	"github.com/wippyai/jlower/ast"
	"github.com/wippyai/jlower/errors"
)

// LockType is the declared type of the temporary holding the monitor.
const LockType ast.Type = "java.lang.Object"

// Stats reports what a run changed.
type Stats struct {
	Lowered int
}

// Run lowers every synchronized statement of m.
func Run(m *ast.Method, log *zap.Logger) (st Stats, err error) {
	defer errors.Recover(&err)
	if log == nil {
		log = zap.NewNop()
	}

	req := ast.NewRequest(m)
	ast.Inspect(m.Body, func(s ast.Stmt) bool {
		sync, ok := s.(*ast.Synchronized)
		if !ok {
			return true
		}
		if ast.EnclosingBlock(sync) == nil {
			panic(errors.MalformedTree(errors.PhaseMonitor, m.String(), ast.Describe(sync),
				"synchronized statement is not listed in a block"))
		}
		req.Replace(sync, lower(m, sync)...)
		st.Lowered++
		return true
	})

	if st.Lowered == 0 {
		return st, nil
	}
	if err := req.Commit(); err != nil {
		return st, errors.InMethod(err, m.String())
	}
	log.Debug("lowered synchronized statements",
		zap.String("method", m.String()),
		zap.Int("count", st.Lowered))
	return st, nil
}

func lower(m *ast.Method, sync *ast.Synchronized) []ast.Stmt {
	tmp := m.NewLocal("$lock", LockType)
	return []ast.Stmt{
		m.NewExprStmt(&ast.Decl{Local: tmp, Init: sync.Lock}),
		m.NewLock(ast.Ref(tmp)),
		m.NewTry(sync.Body, nil, m.NewBlock(m.NewUnlock(ast.Ref(tmp)))),
	}
}
