package schema

import (
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// fieldHandler applies the assertion or retraction of one schema attribute to a builder.
// The handlers return false when the value does not have the expected shape or, for
// retractions, is not the attribute's current value.
type fieldHandler struct {
	expected string
	assert   func(b *Builder, v Value) bool
	// retract is nil for fields that may only be altered by asserting a new value.
	retract func(b *Builder, v Value) bool
}

var fields = map[ID]fieldHandler{
	sys.AttrType: {
		expected: "a ref to sys/attr/type/*",
		assert: func(b *Builder, v Value) bool {
			id, ok := v.(ID)
			if !ok {
				return false
			}
			vt, ok := sys.ValueTypeFor(id)
			if ok {
				b.ValueType(vt)
			}
			return ok
		},
	},
	sys.AttrCardinality: {
		expected: "a ref to sys/attr/cardinality/one or sys/attr/cardinality/many",
		assert: func(b *Builder, v Value) bool {
			switch v {
			case sys.AttrCardinalityOne:
				b.Multival(false)
			case sys.AttrCardinalityMany:
				b.Multival(true)
			default:
				return false
			}
			return true
		},
	},
	sys.AttrUnique: {
		expected: "a ref to sys/attr/unique/value or sys/attr/unique/identity",
		assert: func(b *Builder, v Value) bool {
			id, ok := v.(ID)
			if !ok {
				return false
			}
			unique, ok := sys.UniqueFor(id)
			if ok {
				b.Unique(unique)
			}
			return ok
		},
		retract: func(b *Builder, v Value) bool {
			id, ok := v.(ID)
			if !ok {
				return false
			}
			unique, ok := sys.UniqueFor(id)
			if !ok || b.uniqueOp != UniqueAssigned || b.unique != unique {
				return false
			}
			b.NonUnique()
			return true
		},
	},
	sys.AttrIndex:     boolField((*Builder).Index),
	sys.AttrFulltext:  boolField((*Builder).Fulltext),
	sys.AttrNoHistory: boolField((*Builder).NoHistory),
	sys.AttrComponent: {
		expected: "a bool",
		assert:   boolField((*Builder).Component).assert,
		retract: func(b *Builder, v Value) bool {
			x, ok := v.(Bool)
			if !ok || !b.component.is(bool(x)) {
				return false
			}
			b.Component(false)
			return true
		},
	},
}

func boolField(set func(*Builder, bool) *Builder) fieldHandler {
	return fieldHandler{
		expected: "a bool",
		assert: func(b *Builder, v Value) bool {
			x, ok := v.(Bool)
			if ok {
				set(b, bool(x))
			}
			return ok
		},
	}
}

func assertField(b *Builder, triple Triple) (err error) {
	handler, ok := fields[triple.A]
	if !ok {
		err = NewError(ErrUnknownSchemaAttr, "e", triple.E, "a", triple.A)
		return
	}
	if !handler.assert(b, triple.V) {
		err = NewError(ErrInvalidValue, "e", triple.E, "a", triple.A, "v", triple.V, "expected", handler.expected)
	}
	return
}

func retractField(b *Builder, triple Triple) (err error) {
	handler, ok := fields[triple.A]
	switch {
	case !ok:
		err = NewError(ErrUnknownSchemaAttr, "e", triple.E, "a", triple.A)
	case handler.retract == nil:
		err = NewError(ErrRetractNotPermitted, "e", triple.E, "a", triple.A, "v", triple.V)
	case !handler.retract(b, triple.V):
		err = NewError(ErrRetractWrongValue, "e", triple.E, "a", triple.A, "v", triple.V)
	}
	return
}
