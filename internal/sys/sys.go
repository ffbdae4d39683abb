// Package sys defines the system attributes and the datums that bootstrap them.
package sys

import (
	"time"

	. "github.com/dball/topograph/internal/types"
)

const (
	DbIdent             = ID(1)
	AttrType            = ID(2)
	AttrUnique          = ID(3)
	AttrCardinality     = ID(4)
	Tx                  = ID(5)
	TxAt                = ID(6)
	AttrUniqueIdentity  = ID(7)
	AttrUniqueValue     = ID(8)
	AttrCardinalityOne  = ID(9)
	AttrCardinalityMany = ID(10)
	AttrTypeRef         = ID(11)
	AttrTypeString      = ID(12)
	AttrTypeInt         = ID(13)
	AttrTypeBool        = ID(14)
	AttrTypeInst        = ID(15)
	AttrTypeFloat       = ID(16)
	AttrIndex           = ID(17)
	AttrFulltext        = ID(18)
	AttrComponent       = ID(19)
	AttrNoHistory       = ID(20)
	AttrTypeKeyword     = ID(21)
	AttrTypeUUID        = ID(22)
	DbDoc               = ID(23)
	FirstUserID         = ID(0x100000)
)

var epoch time.Time

func ident(e ID, name string) Datum {
	return Datum{E: e, A: DbIdent, V: Keyword(name), T: Tx}
}

func attr(e ID, a ID, v Value) Datum {
	return Datum{E: e, A: a, V: v, T: Tx}
}

// Datums bootstrap an empty database.
var Datums []Datum = []Datum{
	ident(DbIdent, "sys/db/ident"),
	attr(DbIdent, AttrType, AttrTypeKeyword),
	attr(DbIdent, AttrCardinality, AttrCardinalityOne),
	attr(DbIdent, AttrUnique, AttrUniqueIdentity),
	attr(DbIdent, AttrIndex, Bool(true)),
	ident(AttrType, "sys/attr/type"),
	attr(AttrType, AttrType, AttrTypeRef),
	attr(AttrType, AttrCardinality, AttrCardinalityOne),
	ident(AttrUnique, "sys/attr/unique"),
	attr(AttrUnique, AttrType, AttrTypeRef),
	attr(AttrUnique, AttrCardinality, AttrCardinalityOne),
	ident(AttrCardinality, "sys/attr/cardinality"),
	attr(AttrCardinality, AttrType, AttrTypeRef),
	attr(AttrCardinality, AttrCardinality, AttrCardinalityOne),
	ident(AttrIndex, "sys/attr/index"),
	attr(AttrIndex, AttrType, AttrTypeBool),
	attr(AttrIndex, AttrCardinality, AttrCardinalityOne),
	ident(AttrFulltext, "sys/attr/fulltext"),
	attr(AttrFulltext, AttrType, AttrTypeBool),
	attr(AttrFulltext, AttrCardinality, AttrCardinalityOne),
	ident(AttrComponent, "sys/attr/component"),
	attr(AttrComponent, AttrType, AttrTypeBool),
	attr(AttrComponent, AttrCardinality, AttrCardinalityOne),
	ident(AttrNoHistory, "sys/attr/nohistory"),
	attr(AttrNoHistory, AttrType, AttrTypeBool),
	attr(AttrNoHistory, AttrCardinality, AttrCardinalityOne),
	ident(TxAt, "sys/tx/at"),
	attr(TxAt, AttrType, AttrTypeInst),
	attr(TxAt, AttrCardinality, AttrCardinalityOne),
	attr(TxAt, AttrIndex, Bool(true)),
	ident(DbDoc, "sys/db/doc"),
	attr(DbDoc, AttrType, AttrTypeString),
	attr(DbDoc, AttrCardinality, AttrCardinalityOne),
	attr(DbDoc, AttrNoHistory, Bool(true)),
	ident(AttrUniqueIdentity, "sys/attr/unique/identity"),
	ident(AttrUniqueValue, "sys/attr/unique/value"),
	ident(AttrCardinalityOne, "sys/attr/cardinality/one"),
	ident(AttrCardinalityMany, "sys/attr/cardinality/many"),
	ident(AttrTypeRef, "sys/attr/type/ref"),
	ident(AttrTypeString, "sys/attr/type/string"),
	ident(AttrTypeInt, "sys/attr/type/int"),
	ident(AttrTypeBool, "sys/attr/type/bool"),
	ident(AttrTypeInst, "sys/attr/type/inst"),
	ident(AttrTypeFloat, "sys/attr/type/float"),
	ident(AttrTypeKeyword, "sys/attr/type/keyword"),
	ident(AttrTypeUUID, "sys/attr/type/uuid"),
	ident(Tx, "sys/tx"),
	attr(Tx, TxAt, Inst(epoch)),
}

var typesByID = map[ID]ValueType{
	AttrTypeRef:     TypeRef,
	AttrTypeString:  TypeString,
	AttrTypeInt:     TypeInt,
	AttrTypeBool:    TypeBool,
	AttrTypeInst:    TypeInst,
	AttrTypeFloat:   TypeFloat,
	AttrTypeKeyword: TypeKeyword,
	AttrTypeUUID:    TypeUUID,
}

var idsByType = map[ValueType]ID{
	TypeRef:     AttrTypeRef,
	TypeString:  AttrTypeString,
	TypeInt:     AttrTypeInt,
	TypeBool:    AttrTypeBool,
	TypeInst:    AttrTypeInst,
	TypeFloat:   AttrTypeFloat,
	TypeKeyword: AttrTypeKeyword,
	TypeUUID:    AttrTypeUUID,
}

// ValueTypeFor returns the value type named by the type marker id.
func ValueTypeFor(id ID) (vt ValueType, ok bool) {
	vt, ok = typesByID[id]
	return
}

// TypeID returns the type marker id for the value type.
func TypeID(vt ValueType) (id ID, ok bool) {
	id, ok = idsByType[vt]
	return
}

// UniqueFor returns the uniqueness named by the unique marker id.
func UniqueFor(id ID) (unique Unique, ok bool) {
	switch id {
	case AttrUniqueIdentity:
		unique, ok = UniqueIdentity, true
	case AttrUniqueValue:
		unique, ok = UniqueValue, true
	}
	return
}

// UniqueID returns the unique marker id for the uniqueness, or zero for none.
func UniqueID(unique Unique) (id ID) {
	switch unique {
	case UniqueIdentity:
		id = AttrUniqueIdentity
	case UniqueValue:
		id = AttrUniqueValue
	}
	return
}

// CardinalityID returns the cardinality marker id.
func CardinalityID(multival bool) ID {
	if multival {
		return AttrCardinalityMany
	}
	return AttrCardinalityOne
}

func ValidValue(typ ValueType, value Value) (ok bool) {
	if value == nil {
		return
	}
	ok = value.Type() == typ
	return
}
