package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

func newAllocator() func() ID {
	nextID := sys.FirstUserID
	return func() (id ID) {
		id = nextID
		nextID++
		return
	}
}

func TestIndex(t *testing.T) {
	allocate := newAllocator()
	a := allocate()
	idx := New(32, EAVIndex)
	e := allocate()
	tx := allocate()
	d1 := Datum{E: e, A: a, V: String("donald"), T: tx}
	d2 := Datum{E: e, A: a, V: String("Donald"), T: tx}

	assert.False(t, idx.Insert(d1))
	assert.True(t, idx.Insert(d1))
	assert.True(t, idx.Find(d1))
	assert.False(t, idx.Find(d2))

	assert.False(t, idx.Insert(d2))
	assert.True(t, idx.Insert(d2))
	assert.Equal(t, 2, idx.Len())

	assert.True(t, idx.Find(d1))
	assert.True(t, idx.Find(d2))

	assert.Equal(t, []Datum{d2, d1}, idx.Select(EA, Datum{E: e, A: a}).Drain())
	assert.Equal(t, []Datum{}, idx.Select(EA, Datum{E: e - 1, A: a}).Drain())
	assert.Equal(t, []Datum{}, idx.Select(EA, Datum{E: e + 1, A: a}).Drain())

	assert.True(t, idx.Delete(d1))
	assert.False(t, idx.Find(d1))

	clone := idx.Clone()
	assert.True(t, clone.Find(d2))
	assert.True(t, idx.Delete(d2))
	assert.False(t, idx.Find(d2))
	assert.True(t, clone.Find(d2))
}

func TestIndexTimeProperties(t *testing.T) {
	allocate := newAllocator()
	a := allocate()
	idx := New(32, EAVIndex)
	e := allocate()
	t1 := allocate()
	t2 := allocate()
	d1 := Datum{E: e, A: a, V: Int(7), T: t1}
	d2 := Datum{E: e, A: a, V: Int(7), T: t2}

	assert.False(t, idx.Insert(d1))
	assert.True(t, idx.Insert(d2))
	match, ok := idx.First(EA, Datum{E: e, A: a})
	assert.True(t, ok)
	assert.Equal(t, t1, match.T)
	assert.True(t, idx.Find(d2))
	match, ok = idx.Get(d2)
	assert.True(t, ok)
	assert.Equal(t, d1, match)
	_, ok = idx.Get(Datum{E: e, A: a, V: Int(8)})
	assert.False(t, ok)
}

func TestIndexTypes(t *testing.T) {
	allocate := newAllocator()
	name := allocate()
	friend := allocate()
	alice := allocate()
	bob := allocate()
	tx := allocate()
	datums := []Datum{
		{E: alice, A: name, V: String("alice"), T: tx},
		{E: bob, A: name, V: String("bob"), T: tx},
		{E: alice, A: friend, V: bob, T: tx},
		{E: bob, A: friend, V: alice, T: tx},
		{E: alice, A: friend, V: alice, T: tx},
	}
	eav := New(8, EAVIndex)
	aev := New(8, AEVIndex)
	ave := New(8, AVEIndex)
	vae := New(8, VAEIndex)
	for _, idx := range []*BTreeIndex{eav, aev, ave, vae} {
		for _, datum := range datums {
			idx.Insert(datum)
		}
		assert.Equal(t, len(datums), idx.Len())
	}

	t.Run("eav", func(t *testing.T) {
		assert.Equal(t, []Datum{datums[0], datums[4], datums[2]}, eav.Select(E, Datum{E: alice}).Drain())
		assert.Equal(t, []Datum{datums[4], datums[2]}, eav.Select(EA, Datum{E: alice, A: friend}).Drain())
	})

	t.Run("aev", func(t *testing.T) {
		assert.Equal(t, []Datum{datums[0], datums[1]}, aev.Select(A, Datum{A: name}).Drain())
		assert.Equal(t, []Datum{datums[3]}, aev.Select(AE, Datum{A: friend, E: bob}).Drain())
	})

	t.Run("ave", func(t *testing.T) {
		match, ok := ave.First(AV, Datum{A: name, V: String("bob")})
		assert.True(t, ok)
		assert.Equal(t, datums[1], match)
		_, ok = ave.First(AV, Datum{A: name, V: String("carol")})
		assert.False(t, ok)
		assert.Equal(t, []Datum{datums[4], datums[3]}, ave.Select(AV, Datum{A: friend, V: alice}).Drain())
	})

	t.Run("vae", func(t *testing.T) {
		assert.Equal(t, []Datum{datums[4], datums[3]}, vae.Select(V, Datum{V: alice}).Drain())
		assert.Equal(t, []Datum{datums[2]}, vae.Select(VA, Datum{V: bob, A: friend}).Drain())
	})

	t.Run("unsupported partial", func(t *testing.T) {
		assert.Panics(t, func() { eav.Select(AV, Datum{A: name, V: String("bob")}) })
	})

	t.Run("each", func(t *testing.T) {
		var es []ID
		eav.Each(func(datum Datum) bool {
			es = append(es, datum.E)
			return len(es) < 2
		})
		assert.Equal(t, []ID{alice, alice}, es)
	})
}

func TestCompare(t *testing.T) {
	d1 := Datum{E: 1, A: 2, V: Int(3)}
	d2 := Datum{E: 1, A: 2, V: String("a")}
	assert.Equal(t, -1, CompareEAV(d1, d2))
	assert.Equal(t, 0, CompareEA(d1, d2))
	assert.Equal(t, -1, CompareV(Datum{}, d1))
	assert.Equal(t, 1, CompareV(d1, Datum{}))
	assert.Equal(t, 0, CompareV(Datum{}, Datum{}))
}
