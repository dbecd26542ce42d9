package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseLoops,
				Kind:   KindUnresolvedTarget,
				Method: "Foo.bar",
				Node:   "break#12",
				Detail: "no enclosing target",
			},
			contains: []string{"[loops]", "unresolved_target", "in Foo.bar", "at break#12", "no enclosing target"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseFlatten,
				Kind:  KindOrphanedMarker,
			},
			contains: []string{"[flatten]", "orphaned_marker"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCommit,
				Kind:   KindStaleEdit,
				Detail: "anchor moved",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[commit]", "stale_edit", "anchor moved", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseVerify,
		Kind:  KindDanglingGoto,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseFinally,
		Kind:   KindUnclassifiedGoto,
		Method: "A.b",
	}

	if !err.Is(&Error{Phase: PhaseFinally, Kind: KindUnclassifiedGoto}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseFlatten, Kind: KindUnclassifiedGoto}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseFinally, Kind: KindMalformedTree}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseFinally, Kind: KindUnclassifiedGoto}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseFlatten, KindOrphanedMarker).
		Method("A.b").
		Node("block#7").
		Value(42).
		Cause(cause).
		Detail("origin %s missing", "try#3").
		Build()

	if err.Phase != PhaseFlatten {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseFlatten)
	}
	if err.Kind != KindOrphanedMarker {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOrphanedMarker)
	}
	if err.Method != "A.b" {
		t.Errorf("Method = %v, want 'A.b'", err.Method)
	}
	if err.Node != "block#7" {
		t.Errorf("Node = %v, want 'block#7'", err.Node)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "origin try#3 missing" {
		t.Errorf("Detail = %v, want 'origin try#3 missing'", err.Detail)
	}
}

func TestBuilder_FailAndRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		New(PhaseLoops, KindUnresolvedTarget).Detail("boom").Fail()
		return nil
	}

	err := run()
	if err == nil {
		t.Fatal("expected error")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Detail != "boom" {
		t.Errorf("Detail = %q, want boom", e.Detail)
	}
}

func TestRecover_RepanicsForeignValues(t *testing.T) {
	defer func() {
		if r := recover(); r != "other" {
			t.Errorf("recovered %v, want other", r)
		}
	}()

	func() {
		var err error
		defer Recover(&err)
		panic("other")
	}()
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnresolvedTarget", func(t *testing.T) {
		err := UnresolvedTarget(PhaseLoops, "A.b", "continue#4", "outer")
		if err.Kind != KindUnresolvedTarget {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnresolvedTarget)
		}
		if !strings.Contains(err.Detail, `"outer"`) {
			t.Errorf("Detail = %v, should name the label", err.Detail)
		}
	})

	t.Run("UnresolvedTarget unlabeled", func(t *testing.T) {
		err := UnresolvedTarget(PhaseLoops, "A.b", "break#4", "")
		if err.Detail != "no enclosing target" {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("OrphanedMarker", func(t *testing.T) {
		err := OrphanedMarker("A.b", "block#9", "try#2")
		if err.Phase != PhaseFlatten || err.Kind != KindOrphanedMarker {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("MalformedTree", func(t *testing.T) {
		err := MalformedTree(PhaseFinally, "A.b", "while#1", "loops must be normalized first")
		if err.Kind != KindMalformedTree {
			t.Errorf("Kind = %v, want %v", err.Kind, KindMalformedTree)
		}
	})

	t.Run("StaleEdit", func(t *testing.T) {
		err := StaleEdit("return#5", "anchor not found")
		if err.Phase != PhaseCommit {
			t.Errorf("Phase = %v, want %v", err.Phase, PhaseCommit)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("io")
		err := Wrap(PhaseDecode, KindInvalidInput, cause, "read fixture")
		if !errors.Is(err, cause) {
			t.Error("Wrap should keep cause")
		}
	})
}

func TestInMethod(t *testing.T) {
	base := StaleEdit("goto#1", "gone")
	got := InMethod(base, "A.b")

	var e *Error
	if !errors.As(got, &e) {
		t.Fatalf("expected *Error, got %T", got)
	}
	if e.Method != "A.b" {
		t.Errorf("Method = %q, want A.b", e.Method)
	}
	if base.Method != "" {
		t.Error("InMethod must not modify its argument")
	}

	plain := errors.New("plain")
	if InMethod(plain, "A.b") != plain {
		t.Error("non-structured errors pass through unchanged")
	}
}
