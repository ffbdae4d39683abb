// Package types defines the core system types.
package types

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
)

// Void is used for values in maps used as sets.
type Void struct{}

// ValueType is the type of the values to which an attribute refers.
type ValueType uint8

// These are the value types, in their sort order.
const (
	TypeRef ValueType = iota + 1
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeKeyword
	TypeInst
	TypeUUID
)

func (vt ValueType) String() string {
	switch vt {
	case TypeRef:
		return "ref"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeKeyword:
		return "keyword"
	case TypeInst:
		return "inst"
	case TypeUUID:
		return "uuid"
	}
	return fmt.Sprintf("#type(%d)", uint8(vt))
}

// Value is an immutable scalar. Nil is not a valid value.
type Value interface {
	IsEmpty() bool
	Type() ValueType
}

// ID is issued by the system and never reused. 0 is not a valid id.
type ID uint64

func (id ID) String() string {
	return fmt.Sprintf("#id(%d)", uint64(id))
}

// String is a string.
type String string

func (s String) String() string {
	return fmt.Sprintf("#str(%q)", string(s))
}

// Keyword is a namespaced symbolic name used as a value, e.g. the value of an ident datum.
type Keyword string

func (k Keyword) String() string {
	return ":" + string(k)
}

// Int is a signed integer.
type Int int64

func (i Int) String() string {
	return fmt.Sprintf("#int(%d)", int64(i))
}

// Bool is a boolean.
type Bool bool

func (b Bool) String() string {
	if bool(b) {
		return "#t"
	} else {
		return "#f"
	}
}

// Inst is a instant in time.
type Inst time.Time

func (inst Inst) String() string {
	return fmt.Sprintf("#inst(\"%s\")", time.Time(inst).Format(time.RFC3339Nano))
}

// Float is a floating-point number.
type Float float64

func (f Float) String() string {
	return fmt.Sprintf("#float(%v)", float64(f))
}

// UUID is a universally unique identifier.
type UUID uuid.UUID

func (u UUID) String() string {
	return fmt.Sprintf("#uuid(\"%s\")", uuid.UUID(u).String())
}

// These are the system values.

func (x ID) IsEmpty() bool      { return uint64(x) == 0 }
func (x String) IsEmpty() bool  { return string(x) == "" }
func (x Keyword) IsEmpty() bool { return string(x) == "" }
func (x Int) IsEmpty() bool     { return int64(x) == 0 }
func (x Bool) IsEmpty() bool    { return !bool(x) }
func (x Inst) IsEmpty() bool    { return time.Time(x).IsZero() }
func (x Float) IsEmpty() bool   { return float64(x) == 0 }
func (x UUID) IsEmpty() bool    { return uuid.UUID(x) == uuid.Nil }

func (ID) Type() ValueType      { return TypeRef }
func (String) Type() ValueType  { return TypeString }
func (Keyword) Type() ValueType { return TypeKeyword }
func (Int) Type() ValueType     { return TypeInt }
func (Bool) Type() ValueType    { return TypeBool }
func (Inst) Type() ValueType    { return TypeInst }
func (Float) Type() ValueType   { return TypeFloat }
func (UUID) Type() ValueType    { return TypeUUID }

// Compare totally orders values, first by type and then by value within a type.
// NaN floats sort before all other floats.
func Compare(v1 Value, v2 Value) (diff int) {
	t1, t2 := v1.Type(), v2.Type()
	switch {
	case t1 < t2:
		return -1
	case t1 > t2:
		return 1
	}
	switch x := v1.(type) {
	case ID:
		diff = cmpOrdered(x, v2.(ID))
	case Bool:
		diff = cmpOrdered(boolRank(x), boolRank(v2.(Bool)))
	case Int:
		diff = cmpOrdered(x, v2.(Int))
	case Float:
		y := v2.(Float)
		xnan, ynan := math.IsNaN(float64(x)), math.IsNaN(float64(y))
		switch {
		case xnan && ynan:
			diff = 0
		case xnan:
			diff = -1
		case ynan:
			diff = 1
		default:
			diff = cmpOrdered(x, y)
		}
	case String:
		diff = strings.Compare(string(x), string(v2.(String)))
	case Keyword:
		diff = strings.Compare(string(x), string(v2.(Keyword)))
	case Inst:
		y := time.Time(v2.(Inst))
		switch {
		case time.Time(x).Before(y):
			diff = -1
		case time.Time(x).After(y):
			diff = 1
		}
	case UUID:
		y := v2.(UUID)
		diff = bytes.Compare(x[:], y[:])
	}
	return
}

func boolRank(b Bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpOrdered[X constraints.Ordered](x X, y X) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Datum is the fundamental data model.
type Datum struct {
	// E is the entity id.
	E ID
	// A is the attribute id.
	A ID
	// V is the value.
	V Value
	// T is the transaction id.
	T ID
}

func (d Datum) String() string {
	return fmt.Sprintf("#d[%s, %s, %s, %s]", d.E, d.A, d.V, d.T)
}

// D is a convenience function for building a datum.
func D(e ID, a ID, v Value, t ID) Datum {
	return Datum{e, a, v, t}
}

// Ident is a globally unique system identifier for an entity, generally used for attributes.
type Ident string

// Namespace returns the part of the ident before the last slash, if any.
func (ident Ident) Namespace() string {
	i := strings.LastIndexByte(string(ident), '/')
	if i < 0 {
		return ""
	}
	return string(ident[:i])
}

// IDRef is a value that may resolve to an attribute id.
type IDRef interface {
	IsIDRef()
}

func (ID) IsIDRef()    {}
func (Ident) IsIDRef() {}
