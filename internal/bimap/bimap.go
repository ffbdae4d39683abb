// Package bimap provides a bidirectional map whose two sides are always exact inverses.
package bimap

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// BiMap is a bijection between lefts and rights. Every mutation updates both sides
// together, so a left maps to a right if and only if that right maps to that left.
//
// BiMap instances are not safe for concurrent writes.
type BiMap[L constraints.Ordered, R constraints.Ordered] struct {
	rights map[L]R
	lefts  map[R]L
}

// Pair is one binding in a bimap.
type Pair[L constraints.Ordered, R constraints.Ordered] struct {
	Left  L
	Right R
}

// New returns an empty bimap with room for size bindings.
func New[L constraints.Ordered, R constraints.Ordered](size int) *BiMap[L, R] {
	return &BiMap[L, R]{rights: make(map[L]R, size), lefts: make(map[R]L, size)}
}

// GetByLeft returns the right bound to the left, if any.
func (m *BiMap[L, R]) GetByLeft(l L) (r R, ok bool) {
	r, ok = m.rights[l]
	return
}

// GetByRight returns the left bound to the right, if any.
func (m *BiMap[L, R]) GetByRight(r R) (l L, ok bool) {
	l, ok = m.lefts[r]
	return
}

// Insert binds the left and the right. It refuses, returning false, if either is already
// bound to something else; rebinding an existing pair is a no-op that returns true.
func (m *BiMap[L, R]) Insert(l L, r R) (ok bool) {
	extantR, lbound := m.rights[l]
	extantL, rbound := m.lefts[r]
	switch {
	case lbound && rbound:
		return extantR == r && extantL == l
	case lbound || rbound:
		return false
	}
	m.rights[l] = r
	m.lefts[r] = l
	return true
}

// RemoveLeft removes the binding of the left, returning the right it was bound to.
func (m *BiMap[L, R]) RemoveLeft(l L) (r R, ok bool) {
	r, ok = m.rights[l]
	if ok {
		delete(m.rights, l)
		delete(m.lefts, r)
	}
	return
}

// Len returns the number of bindings.
func (m *BiMap[L, R]) Len() int {
	return len(m.rights)
}

// Clone returns a copy that may be changed without affecting the original.
func (m *BiMap[L, R]) Clone() *BiMap[L, R] {
	return &BiMap[L, R]{rights: maps.Clone(m.rights), lefts: maps.Clone(m.lefts)}
}

// Pairs returns the bindings in ascending order of their lefts.
func (m *BiMap[L, R]) Pairs() (pairs []Pair[L, R]) {
	lefts := maps.Keys(m.rights)
	slices.Sort(lefts)
	pairs = make([]Pair[L, R], len(lefts))
	for i, l := range lefts {
		pairs[i] = Pair[L, R]{Left: l, Right: m.rights[l]}
	}
	return
}
