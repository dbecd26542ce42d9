// Package jlower legalizes the control flow of Java methods for a
// register-based target whose only control primitives are branches and an
// exception table.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	jlower/
//	├── ast/         Statement tree, per-method arena, batched edits, cloning, printer
//	├── lower/       Pipeline entry points: Lower, LowerUnit, Config, Stats
//	│   └── internal/
//	│       ├── monitor/  synchronized -> lock/unlock + try/finally
//	│       ├── loops/    loops, break, continue -> if/goto/label
//	│       ├── finally/  finally blocks copied onto every exit path
//	│       ├── flatten/  try/catch removed, handler annotations attached
//	│       ├── marker/   side table linking finally copies to their try
//	│       └── verify/   structural checks after each stage
//	├── interp/      Reference interpreter for structured and flattened trees
//	├── fixture/     YAML scenario files and an expression parser
//	├── errors/      Structured error types for debugging
//	└── cmd/jlower/  Command line front end
//
// # Quick Start
//
// Lower one method:
//
//	m := ast.NewMethod("Example", "f", "int")
//	// ... build m.Body with the Method constructors ...
//	stats, err := lower.Lower(m, lower.Config{Verify: true})
//
// Lower every method of a class in parallel:
//
//	stats, err := lower.LowerUnit(ctx, &lower.Unit{Name: "Example", Methods: methods}, lower.Config{})
//
// After lowering, every statement's Handlers method returns the catch
// clauses that protect it, innermost first. The exception table builder
// reads them directly.
//
// # Checking scenarios
//
//	jlower check testdata/scenarios
//	jlower lower --stage finally --handlers testdata/scenarios/finally.yaml
//
// # Logging
//
// The pipeline logs through zap. It is silent unless a logger is
// installed:
//
//	lower.SetLogger(zap.Must(zap.NewDevelopment()))
package jlower
