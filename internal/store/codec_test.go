package store

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/dball/topograph/internal/types"
)

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestValueEncodingOrder(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	groups := [][]Value{
		{ID(1), ID(2), ID(1 << 40)},
		{Bool(false), Bool(true)},
		{Int(math.MinInt64), Int(-2), Int(0), Int(3), Int(math.MaxInt64)},
		{Float(math.Inf(-1)), Float(-1.5), Float(0), Float(0.25), Float(1e300), Float(math.Inf(1))},
		{String(""), String("a"), String("ab"), String("b")},
		{Keyword("a/b"), Keyword("a/c")},
		{Inst(time.Time{}), Inst(at.Add(-time.Hour)), Inst(at), Inst(at.Add(time.Nanosecond))},
		{UUID(uuid.MustParse("00000000-0000-0000-0000-000000000001")), UUID(uuid.MustParse("ffffffff-0000-0000-0000-000000000000"))},
	}
	var all []Value
	for _, group := range groups {
		all = append(all, group...)
	}
	for _, v1 := range all {
		for _, v2 := range all {
			encoded := bytes.Compare(appendValue(nil, v1), appendValue(nil, v2))
			assert.Equal(t, sign(Compare(v1, v2)), sign(encoded), "%v %v", v1, v2)
		}
		decoded, err := readValue(appendValue(nil, v1))
		require.NoError(t, err)
		assert.Equal(t, 0, Compare(v1, decoded), "%v", v1)
	}
}

func TestDatumKeys(t *testing.T) {
	key := datumKey(7, 8, String("x"))
	datum, err := decodeDatum(KV{Key: key, Value: appendID(nil, 9)})
	require.NoError(t, err)
	assert.Equal(t, D(7, 8, String("x"), 9), datum)

	_, err = decodeDatum(KV{Key: nextIDKey, Value: appendID(nil, 9)})
	assert.Error(t, err)
	_, err = readValue([]byte{byte(TypeInt), 1, 2})
	assert.Error(t, err)
	_, err = readValue([]byte{99})
	assert.Error(t, err)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("e"), prefixEnd([]byte("d")))
	assert.Equal(t, []byte{1, 3}, prefixEnd([]byte{1, 2, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}
