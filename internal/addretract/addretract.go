// Package addretract classifies the assertions and retractions witnessed in a transaction.
package addretract

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Pair is the retracted and asserted value of a key altered in one transaction.
type Pair[V any] struct {
	Old V
	New V
}

// Set partitions witnessed keys into those only asserted, those only retracted, and
// those both asserted and retracted. A key is in at most one of the three maps.
//
// A key witnessed more than once in the same direction keeps the last value witnessed.
type Set[K comparable, V any] struct {
	Asserted  map[K]V
	Retracted map[K]V
	Altered   map[K]Pair[V]
}

// New returns an empty set.
func New[K comparable, V any]() *Set[K, V] {
	return &Set[K, V]{
		Asserted:  map[K]V{},
		Retracted: map[K]V{},
		Altered:   map[K]Pair[V]{},
	}
}

// Witness records the assertion, if added, or retraction of the value for the key.
func (set *Set[K, V]) Witness(key K, value V, added bool) {
	if added {
		if old, ok := set.Retracted[key]; ok {
			delete(set.Retracted, key)
			set.Altered[key] = Pair[V]{Old: old, New: value}
		} else if pair, ok := set.Altered[key]; ok {
			pair.New = value
			set.Altered[key] = pair
		} else {
			set.Asserted[key] = value
		}
		return
	}
	if asserted, ok := set.Asserted[key]; ok {
		delete(set.Asserted, key)
		set.Altered[key] = Pair[V]{Old: value, New: asserted}
	} else if pair, ok := set.Altered[key]; ok {
		pair.Old = value
		set.Altered[key] = pair
	} else {
		set.Retracted[key] = value
	}
}

// IsEmpty returns true if nothing was witnessed.
func (set *Set[K, V]) IsEmpty() bool {
	return len(set.Asserted) == 0 && len(set.Retracted) == 0 && len(set.Altered) == 0
}

// SortedKeys returns the keys of the map ordered by the less function.
func SortedKeys[K comparable, X any](m map[K]X, less func(K, K) bool) (keys []K) {
	keys = maps.Keys(m)
	slices.SortFunc(keys, less)
	return
}
