package verify

import (
	"math/bits"

	"github.com/wippyai/jlower/ast"
)

// IDSet is a set of statement IDs backed by a bitmap. Arena IDs are dense,
// so one bit per allocated statement is enough.
type IDSet struct {
	words []uint64
}

// NewIDSet creates a set sized for IDs below n.
func NewIDSet(n int) *IDSet {
	return &IDSet{words: make([]uint64, (n+63)/64)}
}

// Add inserts id and reports whether it was absent.
func (s *IDSet) Add(id ast.ID) bool {
	w := int(id / 64)
	if w >= len(s.words) {
		s.grow(w + 1)
	}
	mask := uint64(1) << (id % 64)
	if s.words[w]&mask != 0 {
		return false
	}
	s.words[w] |= mask
	return true
}

// Has reports whether id is in the set.
func (s *IDSet) Has(id ast.ID) bool {
	w := int(id / 64)
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<(id%64)) != 0
}

// Len returns the number of IDs in the set.
func (s *IDSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// grow expands the set to n words. Callers guarantee n > len(s.words).
func (s *IDSet) grow(n int) {
	words := make([]uint64, n)
	copy(words, s.words)
	s.words = words
}
