package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which pass detected the error
type Phase string

const (
	PhaseMonitor Phase = "monitor" // synchronized lowering
	PhaseLoops   Phase = "loops"   // loop and break/continue normalization
	PhaseFinally Phase = "finally" // finally inlining
	PhaseFlatten Phase = "flatten" // try/catch flattening
	PhaseCommit  Phase = "commit"  // transformation request commit
	PhaseVerify  Phase = "verify"  // post-pass structural checks
	PhaseDecode  Phase = "decode"  // fixture decoding
	PhaseExec    Phase = "exec"    // reference interpreter
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedTree    Kind = "malformed_tree"
	KindUnresolvedTarget Kind = "unresolved_target"
	KindUnclassifiedGoto Kind = "unclassified_goto"
	KindOrphanedMarker   Kind = "orphaned_marker"
	KindStaleEdit        Kind = "stale_edit"
	KindDanglingGoto     Kind = "dangling_goto"
	KindDuplicateLabel   Kind = "duplicate_label"
	KindAliasedNode      Kind = "aliased_node"
	KindLeftover         Kind = "leftover_construct"
	KindInvalidInput     Kind = "invalid_input"
	KindUnsupported      Kind = "unsupported"
	KindStepLimit        Kind = "step_limit"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Method string
	Node   string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Method != "" {
		b.WriteString(" in ")
		b.WriteString(e.Method)
	}

	if e.Node != "" {
		b.WriteString(" at ")
		b.WriteString(e.Node)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Method sets the qualified name of the method being lowered
func (b *Builder) Method(name string) *Builder {
	b.err.Method = name
	return b
}

// Node sets the description of the offending statement
func (b *Builder) Node(desc string) *Builder {
	b.err.Node = desc
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Fail panics with the constructed error. Pass entry points recover it with
// Recover.
func (b *Builder) Fail() {
	panic(b.Build())
}

// Convenience constructors for common error patterns

// UnresolvedTarget creates an error for a break, continue or goto whose
// target cannot be found
func UnresolvedTarget(phase Phase, method, node, label string) *Error {
	detail := "no enclosing target"
	if label != "" {
		detail = fmt.Sprintf("no enclosing target labeled %q", label)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindUnresolvedTarget,
		Method: method,
		Node:   node,
		Detail: detail,
		Value:  label,
	}
}

// OrphanedMarker creates an error for an inlined-finally marker whose origin
// try is not on the scope stack
func OrphanedMarker(method, node, origin string) *Error {
	return &Error{
		Phase:  PhaseFlatten,
		Kind:   KindOrphanedMarker,
		Method: method,
		Node:   node,
		Detail: fmt.Sprintf("origin %s is not an enclosing scope", origin),
	}
}

// MalformedTree creates an error for input violating a pass precondition
func MalformedTree(phase Phase, method, node, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedTree,
		Method: method,
		Node:   node,
		Detail: detail,
	}
}

// StaleEdit creates an error for a recorded edit whose anchor no longer
// lives where it was recorded
func StaleEdit(node, detail string) *Error {
	return &Error{
		Phase:  PhaseCommit,
		Kind:   KindStaleEdit,
		Node:   node,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// InMethod returns err with its method name set, if err is an *Error
// without one.
func InMethod(err error, method string) error {
	if e, ok := err.(*Error); ok && e.Method == "" {
		cp := *e
		cp.Method = method
		return &cp
	}
	return err
}

// Recover converts a panic carrying an *Error into a returned error. Other
// panics are re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*Error); ok {
		*errp = e
		return
	}
	panic(r)
}
