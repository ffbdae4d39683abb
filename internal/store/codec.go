package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	. "github.com/dball/topograph/internal/types"
)

// Keys are laid out so that byte order follows datum order:
//
//	d | e | a | type | value  ->  t          the current datums
//	l | t | e | a | type | value  ->  added  the transaction log
//	m name  ->  value                        metadata
const (
	datumPrefix = 'd'
	logPrefix   = 'l'
	metaPrefix  = 'm'
)

var nextIDKey = append([]byte{metaPrefix}, "next-id"...)

func appendID(key []byte, id ID) []byte {
	return binary.BigEndian.AppendUint64(key, uint64(id))
}

func readID(key []byte) (id ID, rest []byte, err error) {
	if len(key) < 8 {
		err = fmt.Errorf("short id in key %x", key)
		return
	}
	id = ID(binary.BigEndian.Uint64(key))
	rest = key[8:]
	return
}

// appendValue appends the value's type tag and an encoding whose byte order follows
// the value order within the type. Instants are encoded to the nanosecond without
// their location and decode in UTC.
func appendValue(key []byte, v Value) []byte {
	key = append(key, byte(v.Type()))
	switch x := v.(type) {
	case ID:
		key = appendID(key, x)
	case Bool:
		if x {
			key = append(key, 1)
		} else {
			key = append(key, 0)
		}
	case Int:
		key = binary.BigEndian.AppendUint64(key, uint64(x)^(1<<63))
	case Float:
		bits := math.Float64bits(float64(x))
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		key = binary.BigEndian.AppendUint64(key, bits)
	case String:
		key = append(key, x...)
	case Keyword:
		key = append(key, x...)
	case Inst:
		at := time.Time(x)
		key = binary.BigEndian.AppendUint64(key, uint64(at.Unix())^(1<<63))
		key = binary.BigEndian.AppendUint32(key, uint32(at.Nanosecond()))
	case UUID:
		key = append(key, x[:]...)
	}
	return key
}

func readValue(key []byte) (v Value, err error) {
	if len(key) < 1 {
		err = fmt.Errorf("missing value type in key")
		return
	}
	vt, data := ValueType(key[0]), key[1:]
	fixed := func(n int) bool {
		if len(data) != n {
			err = fmt.Errorf("invalid %s value %x", vt, data)
			return false
		}
		return true
	}
	switch vt {
	case TypeRef:
		if fixed(8) {
			v = ID(binary.BigEndian.Uint64(data))
		}
	case TypeBool:
		if fixed(1) {
			v = Bool(data[0] == 1)
		}
	case TypeInt:
		if fixed(8) {
			v = Int(binary.BigEndian.Uint64(data) ^ (1 << 63))
		}
	case TypeFloat:
		if fixed(8) {
			bits := binary.BigEndian.Uint64(data)
			if bits&(1<<63) != 0 {
				bits &^= 1 << 63
			} else {
				bits = ^bits
			}
			v = Float(math.Float64frombits(bits))
		}
	case TypeString:
		v = String(data)
	case TypeKeyword:
		v = Keyword(data)
	case TypeInst:
		if fixed(12) {
			sec := int64(binary.BigEndian.Uint64(data) ^ (1 << 63))
			nsec := int64(binary.BigEndian.Uint32(data[8:]))
			v = Inst(time.Unix(sec, nsec).UTC())
		}
	case TypeUUID:
		if fixed(16) {
			var u uuid.UUID
			copy(u[:], data)
			v = UUID(u)
		}
	default:
		err = fmt.Errorf("unknown value type %d in key", vt)
	}
	return
}

func appendEAV(key []byte, e ID, a ID, v Value) []byte {
	return appendValue(appendID(appendID(key, e), a), v)
}

func readEAV(key []byte) (e ID, a ID, v Value, err error) {
	e, key, err = readID(key)
	if err != nil {
		return
	}
	a, key, err = readID(key)
	if err != nil {
		return
	}
	v, err = readValue(key)
	return
}

func datumKey(e ID, a ID, v Value) []byte {
	return appendEAV(append(make([]byte, 0, 32), datumPrefix), e, a, v)
}

func decodeDatum(kv KV) (datum Datum, err error) {
	if len(kv.Key) < 1 || kv.Key[0] != datumPrefix {
		err = fmt.Errorf("not a datum key %x", kv.Key)
		return
	}
	datum.E, datum.A, datum.V, err = readEAV(kv.Key[1:])
	if err != nil {
		return
	}
	datum.T, _, err = readID(kv.Value)
	return
}

func logKey(t ID, e ID, a ID, v Value) []byte {
	return appendEAV(appendID(append(make([]byte, 0, 40), logPrefix), t), e, a, v)
}

func txPrefix(t ID) []byte {
	return appendID([]byte{logPrefix}, t)
}

// prefixEnd returns the least key greater than every key with the prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
