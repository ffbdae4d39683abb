package bimap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertInverse[L, R string | int](t *testing.T, m *BiMap[L, R]) {
	t.Helper()
	assert.Equal(t, len(m.rights), len(m.lefts))
	for l, r := range m.rights {
		back, ok := m.lefts[r]
		assert.True(t, ok)
		assert.Equal(t, l, back)
	}
}

func TestBiMap(t *testing.T) {
	m := New[int, string](4)

	t.Run("insert binds both sides", func(t *testing.T) {
		assert.True(t, m.Insert(1, "one"))
		assert.True(t, m.Insert(2, "two"))
		r, ok := m.GetByLeft(1)
		assert.True(t, ok)
		assert.Equal(t, "one", r)
		l, ok := m.GetByRight("two")
		assert.True(t, ok)
		assert.Equal(t, 2, l)
		assertInverse(t, m)
	})

	t.Run("insert refuses conflicting bindings", func(t *testing.T) {
		assert.False(t, m.Insert(1, "uno"))
		assert.False(t, m.Insert(3, "one"))
		assert.False(t, m.Insert(1, "two"))
		assert.True(t, m.Insert(1, "one"))
		assert.Equal(t, 2, m.Len())
		assertInverse(t, m)
	})

	t.Run("remove unbinds both sides", func(t *testing.T) {
		r, ok := m.RemoveLeft(1)
		assert.True(t, ok)
		assert.Equal(t, "one", r)
		_, ok = m.GetByRight("one")
		assert.False(t, ok)
		r, ok = m.RemoveLeft(2)
		assert.True(t, ok)
		assert.Equal(t, "two", r)
		_, ok = m.GetByRight("two")
		assert.False(t, ok)
		_, ok = m.RemoveLeft(9)
		assert.False(t, ok)
		assert.Zero(t, m.Len())
		assertInverse(t, m)
	})

	t.Run("clones are independent", func(t *testing.T) {
		m.Insert(5, "five")
		clone := m.Clone()
		clone.Insert(6, "six")
		clone.RemoveLeft(5)
		_, ok := m.GetByLeft(6)
		assert.False(t, ok)
		_, ok = m.GetByLeft(5)
		assert.True(t, ok)
		assertInverse(t, clone)
	})

	t.Run("pairs are ordered by left", func(t *testing.T) {
		m.Insert(3, "three")
		m.Insert(4, "four")
		assert.Equal(t, []Pair[int, string]{{3, "three"}, {4, "four"}, {5, "five"}}, m.Pairs())
	})
}
