// Package ast defines the per-method statement tree rewritten by the
// control-flow lowering passes.
//
// A Method is the arena for one method body: it allocates statement IDs,
// locals and unique label names. Statements form a closed set of variants
// dispatched with type switches; each statement except the root block has
// exactly one parent.
//
// # Editing
//
// Passes never mutate a tree they are traversing. Edits are recorded in a
// Request and applied with Commit, which either installs every edit or none:
//
//	req := ast.NewRequest(m)
//	req.Replace(loop, lowered...)
//	req.InsertAfter(stmt, label)
//	if err := req.Commit(); err != nil {
//	    return err
//	}
//
// # Cloning
//
// Clone copies a subtree with fresh statement identities, fresh locals for
// every local declared inside the subtree and fresh label names. Gotos that
// target a label inside the subtree are retargeted to the cloned label.
//
// # Handler annotations
//
// After try/catch flattening every statement exposes Handlers: the ordered
// catch clauses active at that statement, innermost first. The instruction
// encoder turns consecutive statements sharing a handler into exception
// table ranges.
package ast
