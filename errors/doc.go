// Package errors provides structured error types for the lowering passes.
//
// Errors are categorized by Phase (which pass detected the problem) and Kind
// (which invariant was violated). Every error reported by this module is an
// internal compiler error: input that reaches the passes has already been
// validated by the front-end, so a failure here means an upstream contract or
// a pass is broken.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseLoops, errors.KindUnresolvedTarget).
//		Method("Foo.bar").
//		Node("break#12").
//		Detail("no loop labeled %q", "outer").
//		Build()
//
// Passes fail fast with Fail, which panics with an *Error; the pass entry
// point converts it back into a returned error with Recover:
//
//	func Run(m *ast.Method) (err error) {
//		defer errors.Recover(&err)
//		...
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
