// Package shredder deconstructs structs into claims.
package shredder

import (
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dball/topograph/internal/structs/models"
	. "github.com/dball/topograph/internal/types"
)

// These are the shredder error codes.
const (
	ErrNilStruct           ErrorCode = "shredder.nilStruct"
	ErrInvalidStruct       ErrorCode = "shredder.invalidStruct"
	ErrUnexportedField     ErrorCode = "shredder.unexportedField"
	ErrUnidentifiedRetract ErrorCode = "shredder.unidentifiedRetract"
)

// Document contains the lists of structs to assert or retract.
type Document struct {
	Retractions []any
	Assertions  []any
}

// Confetti are the results of shredding a document. Confetti may be inconsistent
// or invalid, the transactor is the judge of that.
type Confetti struct {
	Claims []*Claim
	// Entities are the entity refs of the assertions, in order.
	Entities []ERef
	// Pointers are the struct pointers given as or reachable from the assertions,
	// by their temp ids.
	Pointers map[TempID]reflect.Value
}

type pointerKey struct {
	typ  reflect.Type
	addr uintptr
}

type shredder struct {
	analyzer models.Analyzer
	nextID   uint64
	pointers map[pointerKey]ERef
	confetti *Confetti
}

// Shred deconstructs the structs in the document into claims. Structs given by pointer
// are shredded once however often they are reached. Structs without an id field value
// are asserted under fresh temp ids.
//
// Zero field values are not asserted, unless the field is a pointer.
func Shred(analyzer models.Analyzer, doc Document) (confetti *Confetti, err error) {
	s := &shredder{
		analyzer: analyzer,
		nextID:   1,
		pointers: map[pointerKey]ERef{},
		confetti: &Confetti{
			Claims:   make([]*Claim, 0, len(doc.Assertions)+len(doc.Retractions)),
			Entities: make([]ERef, 0, len(doc.Assertions)),
			Pointers: map[TempID]reflect.Value{},
		},
	}
	for _, x := range doc.Retractions {
		err = s.retract(x)
		if err != nil {
			return
		}
	}
	for _, x := range doc.Assertions {
		var e ERef
		e, err = s.assert(reflect.ValueOf(x))
		if err != nil {
			return
		}
		s.confetti.Entities = append(s.confetti.Entities, e)
	}
	confetti = s.confetti
	return
}

func (s *shredder) nextTempID() TempID {
	id := s.nextID
	s.nextID++
	return TempID(strconv.FormatUint(id, 10))
}

// deref returns the struct value of x, and whether it was given by pointer.
func deref(x reflect.Value) (fields reflect.Value, ptr bool, err error) {
	switch x.Kind() {
	case reflect.Struct:
		fields = x
	case reflect.Pointer:
		if x.IsNil() {
			err = NewError(ErrNilStruct, "type", x.Type())
			return
		}
		fields = x.Elem()
		ptr = true
		if fields.Kind() != reflect.Struct {
			err = NewError(ErrInvalidStruct, "type", x.Type())
		}
	case reflect.Invalid:
		err = NewError(ErrNilStruct)
	default:
		err = NewError(ErrInvalidStruct, "type", x.Type())
	}
	return
}

func entityID(model models.StructModel, fields reflect.Value) ID {
	if model.IDField < 0 {
		return 0
	}
	return ID(fields.Field(model.IDField).Uint())
}

func (s *shredder) assert(x reflect.Value) (e ERef, err error) {
	fields, isPtr, err := deref(x)
	if err != nil {
		return
	}
	var key pointerKey
	if isPtr {
		key = pointerKey{typ: x.Type(), addr: x.Pointer()}
		extant, ok := s.pointers[key]
		if ok {
			e = extant
			return
		}
	}
	model, err := s.analyzer.Analyze(fields.Type())
	if err != nil {
		return
	}
	if eid := entityID(model, fields); eid != 0 {
		e = eid
	} else {
		tempID := s.nextTempID()
		e = tempID
		if isPtr {
			s.confetti.Pointers[tempID] = x
		}
	}
	if isPtr {
		s.pointers[key] = e
	}
	for _, attr := range model.AttrFields {
		var vs []VRef
		vs, err = s.values(model, attr, fields, s.assert)
		if err != nil {
			return
		}
		for _, v := range vs {
			s.confetti.Claims = append(s.confetti.Claims, &Claim{E: e, A: attr.Ident, V: v})
		}
	}
	return
}

func (s *shredder) retract(x any) (err error) {
	fields, _, err := deref(reflect.ValueOf(x))
	if err != nil {
		return
	}
	model, err := s.analyzer.Analyze(fields.Type())
	if err != nil {
		return
	}
	e := entityID(model, fields)
	if e == 0 {
		err = NewError(ErrUnidentifiedRetract, "type", model.Type)
		return
	}
	// Referents are retracted by reference only.
	ref := func(x reflect.Value) (ERef, error) {
		fields, _, err := deref(x)
		if err != nil {
			return nil, err
		}
		model, err := s.analyzer.Analyze(fields.Type())
		if err != nil {
			return nil, err
		}
		referent := entityID(model, fields)
		if referent == 0 {
			return nil, NewError(ErrUnidentifiedRetract, "type", model.Type)
		}
		return referent, nil
	}
	for _, attr := range model.AttrFields {
		var vs []VRef
		vs, err = s.values(model, attr, fields, ref)
		if err != nil {
			return
		}
		for _, v := range vs {
			s.confetti.Claims = append(s.confetti.Claims, &Claim{E: e, A: attr.Ident, V: v, Retract: true})
		}
	}
	return
}

// values returns the values of the attr field, using ref to resolve referenced structs.
func (s *shredder) values(model models.StructModel, attr models.AttrFieldModel, fields reflect.Value, ref func(reflect.Value) (ERef, error)) (vs []VRef, err error) {
	if sf := model.Type.Field(attr.Index); !sf.IsExported() {
		err = NewError(ErrUnexportedField, "type", model.Type, "field", sf.Name)
		return
	}
	field := fields.Field(attr.Index)
	if attr.Attr.Multival && field.Kind() == reflect.Slice {
		vs = make([]VRef, 0, field.Len())
		for i := 0; i < field.Len(); i++ {
			var v VRef
			v, err = s.value(attr, field.Index(i), ref)
			if err != nil {
				return
			}
			if v != nil {
				vs = append(vs, v)
			}
		}
		return
	}
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return
		}
	} else if field.IsZero() {
		return
	}
	v, err := s.value(attr, field, ref)
	if v != nil {
		vs = []VRef{v}
	}
	return
}

func (s *shredder) value(attr models.AttrFieldModel, field reflect.Value, ref func(reflect.Value) (ERef, error)) (v VRef, err error) {
	if attr.Ref != nil {
		var e ERef
		e, err = ref(field)
		if err != nil {
			return
		}
		v = e.(VRef)
		return
	}
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return
		}
		field = field.Elem()
	}
	switch attr.Attr.Type {
	case TypeInst:
		v = Inst(field.Interface().(time.Time))
	case TypeUUID:
		v = UUID(field.Interface().(uuid.UUID))
	case TypeKeyword:
		v = Keyword(field.String())
	case TypeRef:
		v = ID(field.Uint())
	case TypeBool:
		v = Bool(field.Bool())
	case TypeInt:
		v = Int(field.Int())
	case TypeString:
		v = String(field.String())
	case TypeFloat:
		v = Float(field.Float())
	}
	return
}
