package verify

import "testing"

func TestIDSet_AddHas(t *testing.T) {
	s := NewIDSet(100)

	if s.Has(42) {
		t.Error("new set should not have 42")
	}
	if !s.Add(42) {
		t.Error("first Add should report a new ID")
	}
	if s.Add(42) {
		t.Error("second Add should report a duplicate")
	}
	if !s.Has(42) {
		t.Error("set should have 42 after Add")
	}
}

func TestIDSet_Grows(t *testing.T) {
	s := NewIDSet(10)

	s.Add(200)
	s.Add(5)
	if !s.Has(200) || !s.Has(5) {
		t.Error("set should have 5 and 200")
	}
	if s.Has(199) {
		t.Error("set should not have 199")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
