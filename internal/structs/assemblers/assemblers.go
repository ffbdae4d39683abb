// Package assemblers provides for the construction of structs from the datums of entities.
package assemblers

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/dball/topograph/internal/structs/models"
	"github.com/dball/topograph/internal/types"
)

// These are the assembler error codes.
const (
	ErrInvalidPointer  types.ErrorCode = "assemblers.invalidPointer"
	ErrUnexportedField types.ErrorCode = "assemblers.unexportedField"
	ErrInvalidValue    types.ErrorCode = "assemblers.invalidValue"
)

// Source provides the datums of entities.
type Source interface {
	// Entity returns the datums of the entity in attribute order.
	Entity(e types.ID) []types.Datum
	// Ident returns the ident bound to the entity.
	Ident(e types.ID) (types.Ident, bool)
}

type instanceKey struct {
	id  types.ID
	typ reflect.Type
}

// An assembler allocates one instance per id and struct type, so references among
// the entities it assembles are shared and cycles are preserved.
type assembler struct {
	analyzer models.Analyzer
	source   Source
	// instances are pointers to the at least partially realized entities
	instances map[instanceKey]reflect.Value
	// assembling are the entities being assembled into struct values
	assembling map[types.ID]bool
}

// Assemble populates the struct to which ptr points with the entity's attribute values.
// Referenced entities are assembled into the fields' struct types. Found is false if
// the entity has no datums.
func Assemble(analyzer models.Analyzer, source Source, e types.ID, ptr any) (found bool, err error) {
	val := reflect.ValueOf(ptr)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		err = types.NewError(ErrInvalidPointer, "type", reflect.TypeOf(ptr))
		return
	}
	a := &assembler{
		analyzer:   analyzer,
		source:     source,
		instances:  map[instanceKey]reflect.Value{{id: e, typ: val.Type()}: val},
		assembling: map[types.ID]bool{},
	}
	found, err = a.assemble(e, val.Elem())
	return
}

func (a *assembler) assemble(e types.ID, value reflect.Value) (found bool, err error) {
	model, err := a.analyzer.Analyze(value.Type())
	if err != nil {
		return
	}
	datums := a.source.Entity(e)
	if len(datums) == 0 {
		return
	}
	found = true
	a.assembling[e] = true
	defer delete(a.assembling, e)
	if model.IDField >= 0 {
		value.Field(model.IDField).SetUint(uint64(e))
	}
	for _, datum := range datums {
		ident, ok := a.source.Ident(datum.A)
		if !ok {
			continue
		}
		attr, ok := model.Attr(ident)
		if !ok {
			continue
		}
		field := value.Field(attr.Index)
		if !field.CanSet() {
			err = types.NewError(ErrUnexportedField, "type", model.Type, "field", model.Type.Field(attr.Index).Name)
			return
		}
		if field.Kind() == reflect.Slice && attr.Attr.Multival {
			elem := reflect.New(field.Type().Elem()).Elem()
			err = a.set(attr, elem, datum.V)
			if err != nil {
				return
			}
			field.Set(reflect.Append(field, elem))
			continue
		}
		err = a.set(attr, field, datum.V)
		if err != nil {
			return
		}
	}
	return
}

func (a *assembler) set(attr models.AttrFieldModel, target reflect.Value, v types.Value) (err error) {
	if attr.Ref != nil {
		err = a.setRef(target, v)
		return
	}
	if target.Kind() == reflect.Pointer {
		alloc := reflect.New(target.Type().Elem())
		err = a.set(attr, alloc.Elem(), v)
		if err != nil {
			return
		}
		target.Set(alloc)
		return
	}
	invalid := func() error {
		return types.NewError(ErrInvalidValue, "ident", attr.Ident, "type", target.Type(), "value", v)
	}
	switch x := v.(type) {
	case types.String:
		if target.Kind() != reflect.String {
			return invalid()
		}
		target.SetString(string(x))
	case types.Keyword:
		if target.Kind() != reflect.String {
			return invalid()
		}
		target.SetString(string(x))
	case types.Int:
		if !target.CanInt() || target.OverflowInt(int64(x)) {
			return invalid()
		}
		target.SetInt(int64(x))
	case types.Bool:
		if target.Kind() != reflect.Bool {
			return invalid()
		}
		target.SetBool(bool(x))
	case types.Float:
		if !target.CanFloat() {
			return invalid()
		}
		target.SetFloat(float64(x))
	case types.ID:
		if !target.CanUint() {
			return invalid()
		}
		target.SetUint(uint64(x))
	case types.Inst:
		tv := reflect.ValueOf(time.Time(x))
		if tv.Type() != target.Type() {
			return invalid()
		}
		target.Set(tv)
	case types.UUID:
		uv := reflect.ValueOf(uuid.UUID(x))
		if uv.Type() != target.Type() {
			return invalid()
		}
		target.Set(uv)
	default:
		return invalid()
	}
	return
}

func (a *assembler) setRef(target reflect.Value, v types.Value) (err error) {
	id, ok := v.(types.ID)
	if !ok {
		err = types.NewError(ErrInvalidValue, "type", target.Type(), "value", v)
		return
	}
	if target.Kind() == reflect.Struct {
		// Struct values cannot share instances, so cycles through them are cut.
		if a.assembling[id] {
			return
		}
		_, err = a.assemble(id, target)
		return
	}
	key := instanceKey{id: id, typ: target.Type()}
	ptr, ok := a.instances[key]
	if ok {
		target.Set(ptr)
		return
	}
	ptr = reflect.New(target.Type().Elem())
	a.instances[key] = ptr
	target.Set(ptr)
	_, err = a.assemble(id, ptr.Elem())
	return
}
