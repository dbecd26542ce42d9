// Package lower legalizes the control flow of Java method bodies for a
// register machine that only has branches and an exception table.
//
// The pipeline runs four stages over an [ast.Method]:
//
//  1. monitor: synchronized statements become lock/unlock around a
//     try/finally.
//  2. loops: loops, break and continue become if/goto/label form.
//  3. finally: finally blocks are copied onto every exit path and the
//     exceptional exit is hosted by a catch-all that rethrows.
//  4. flatten: try statements are removed and each statement is annotated
//     with the handlers that protect it, innermost first.
//
// The output contains only blocks, if, goto, labeled statements,
// lock/unlock, expression statements, return, throw, switch and case.
// [ast.Stmt.Handlers] carries the annotation read by the exception table
// builder.
//
// Failures are internal invariant violations reported as *errors.Error. A
// failing edit is never applied, and a method whose stage fails is not
// passed to later stages.
//
// Methods share nothing, so [LowerUnit] lowers the methods of a unit in
// parallel.
package lower
