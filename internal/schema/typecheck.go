package schema

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	. "github.com/dball/topograph/internal/types"
)

// ToTypedValue converts a raw value, as decoded from JSON or YAML or given by a caller,
// to a value of the given type. Refs may be given as entity ids or as idents bound in
// the topograph.
func (topo *Topograph) ToTypedValue(raw any, vt ValueType) (v Value, err error) {
	if value, ok := raw.(Value); ok && value.Type() == vt {
		v = value
		return
	}
	ok := false
	switch vt {
	case TypeRef:
		var ident Ident
		switch x := raw.(type) {
		case Ident:
			ident = x
		case Keyword:
			ident = Ident(x)
		case string:
			ident = Ident(strings.TrimPrefix(x, ":"))
		default:
			var n int64
			n, ok = integral(raw)
			ok = ok && n > 0
			v = ID(n)
		}
		if ident != "" {
			var e ID
			e, err = topo.RequireEntity(ident)
			if err != nil {
				return
			}
			v, ok = e, true
		}
	case TypeBool:
		var x bool
		x, ok = raw.(bool)
		v = Bool(x)
	case TypeInt:
		var n int64
		n, ok = integral(raw)
		v = Int(n)
	case TypeFloat:
		switch x := raw.(type) {
		case float64:
			v, ok = Float(x), true
		case float32:
			v, ok = Float(x), true
		case int:
			v, ok = Float(x), true
		case int64:
			v, ok = Float(x), true
		}
	case TypeString:
		var x string
		x, ok = raw.(string)
		v = String(x)
	case TypeKeyword:
		switch x := raw.(type) {
		case string:
			v, ok = Keyword(strings.TrimPrefix(x, ":")), x != ""
		case Ident:
			v, ok = Keyword(x), true
		}
	case TypeInst:
		switch x := raw.(type) {
		case time.Time:
			v, ok = Inst(x), true
		case string:
			t, perr := time.Parse(time.RFC3339Nano, x)
			v, ok = Inst(t), perr == nil
		}
	case TypeUUID:
		switch x := raw.(type) {
		case uuid.UUID:
			v, ok = UUID(x), true
		case string:
			u, perr := uuid.Parse(x)
			v, ok = UUID(u), perr == nil
		}
	}
	if !ok {
		v = nil
		err = NewError(ErrInvalidValue, "v", raw, "expected", vt.String())
	}
	return
}

// integral returns the raw value as an int64 if it is a whole number.
func integral(raw any) (n int64, ok bool) {
	switch x := raw.(type) {
	case int:
		n, ok = int64(x), true
	case int64:
		n, ok = x, true
	case int32:
		n, ok = int64(x), true
	case uint64:
		n, ok = int64(x), x <= math.MaxInt64
	case ID:
		n, ok = int64(x), uint64(x) <= math.MaxInt64
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			n, ok = int64(x), true
		}
	}
	return
}
