package sys

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/dball/topograph/internal/types"
)

func TestMarkers(t *testing.T) {
	for _, vt := range []ValueType{TypeRef, TypeBool, TypeInt, TypeFloat, TypeString, TypeKeyword, TypeInst, TypeUUID} {
		id, ok := TypeID(vt)
		assert.True(t, ok, "%v", vt)
		actual, ok := ValueTypeFor(id)
		assert.True(t, ok)
		assert.Equal(t, vt, actual)
	}
	for _, u := range []Unique{UniqueValue, UniqueIdentity} {
		actual, ok := UniqueFor(UniqueID(u))
		assert.True(t, ok)
		assert.Equal(t, u, actual)
	}
	_, ok := UniqueFor(AttrIndex)
	assert.False(t, ok)
	_, ok = ValueTypeFor(AttrCardinalityOne)
	assert.False(t, ok)
	assert.Equal(t, AttrCardinalityMany, CardinalityID(true))
	assert.Equal(t, AttrCardinalityOne, CardinalityID(false))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsSchemaAttr(AttrNoHistory))
	assert.False(t, IsSchemaAttr(DbIdent))
	assert.True(t, MightUpdateMetadata(DbIdent))
	assert.False(t, MightUpdateMetadata(TxAt))
	assert.False(t, ValidUserIdent("sys/db/ident"))
	assert.True(t, ValidUserIdent("person/name"))
	assert.True(t, ValidValue(TypeInt, Int(1)))
	assert.False(t, ValidValue(TypeInt, String("1")))
	assert.False(t, ValidValue(TypeInt, nil))
}

func TestDatums(t *testing.T) {
	idents := map[ID]Keyword{}
	for _, datum := range Datums {
		assert.Less(t, datum.E, FirstUserID)
		assert.Equal(t, Tx, datum.T)
		if datum.A == DbIdent {
			idents[datum.E] = datum.V.(Keyword)
		}
	}
	assert.Equal(t, Keyword("sys/db/ident"), idents[DbIdent])
	assert.Equal(t, Keyword("sys/attr/type"), idents[AttrType])
}
