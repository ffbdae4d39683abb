package addretract

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWitness(t *testing.T) {
	t.Run("assert only", func(t *testing.T) {
		set := New[int, string]()
		set.Witness(1, "a", true)
		assert.Equal(t, map[int]string{1: "a"}, set.Asserted)
		assert.Empty(t, set.Retracted)
		assert.Empty(t, set.Altered)
	})

	t.Run("retract only", func(t *testing.T) {
		set := New[int, string]()
		set.Witness(1, "a", false)
		assert.Empty(t, set.Asserted)
		assert.Equal(t, map[int]string{1: "a"}, set.Retracted)
		assert.Empty(t, set.Altered)
	})

	t.Run("retract then assert alters", func(t *testing.T) {
		set := New[int, string]()
		set.Witness(1, "old", false)
		set.Witness(1, "new", true)
		assert.Empty(t, set.Asserted)
		assert.Empty(t, set.Retracted)
		assert.Equal(t, map[int]Pair[string]{1: {Old: "old", New: "new"}}, set.Altered)
	})

	t.Run("assert then retract alters", func(t *testing.T) {
		set := New[int, string]()
		set.Witness(1, "new", true)
		set.Witness(1, "old", false)
		assert.Equal(t, map[int]Pair[string]{1: {Old: "old", New: "new"}}, set.Altered)
	})

	t.Run("repeats keep the last value", func(t *testing.T) {
		set := New[int, string]()
		set.Witness(1, "a", true)
		set.Witness(1, "b", true)
		assert.Equal(t, map[int]string{1: "b"}, set.Asserted)
		set.Witness(1, "x", false)
		set.Witness(1, "y", false)
		set.Witness(1, "c", true)
		assert.Equal(t, map[int]Pair[string]{1: {Old: "y", New: "c"}}, set.Altered)
	})
}

func TestPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		set := New[int, int]()
		seen := map[int]struct{}{}
		for i := 0; i < 40; i++ {
			key := rng.Intn(12)
			seen[key] = struct{}{}
			set.Witness(key, rng.Intn(100), rng.Intn(2) == 0)
		}
		for key := range seen {
			n := 0
			if _, ok := set.Asserted[key]; ok {
				n++
			}
			if _, ok := set.Retracted[key]; ok {
				n++
			}
			if _, ok := set.Altered[key]; ok {
				n++
			}
			assert.Equal(t, 1, n, "key %d must be in exactly one bucket", key)
		}
		assert.Equal(t, len(seen), len(set.Asserted)+len(set.Retracted)+len(set.Altered))
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[int]bool{3: true, 1: false, 2: true}
	assert.Equal(t, []int{1, 2, 3}, SortedKeys(m, func(a, b int) bool { return a < b }))
	assert.True(t, New[int, int]().IsEmpty())
}
