// Package models provides models of structs whose fields are bound to attributes.
package models

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	. "github.com/dball/topograph/internal/types"
)

// IDIdent binds a uint64 or ID field to the entity id rather than to an attribute.
const IDIdent = Ident("sys/db/id")

// These are the model error codes.
const (
	ErrNotStruct         ErrorCode = "models.notStruct"
	ErrInvalidType       ErrorCode = "models.invalidType"
	ErrInvalidDirective  ErrorCode = "models.invalidDirective"
	ErrDuplicateUnique   ErrorCode = "models.duplicateUniqueDirective"
	ErrInvalidIdentField ErrorCode = "models.invalidIdentField"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	keywordType = reflect.TypeOf(Keyword(""))
	idType      = reflect.TypeOf(ID(0))
)

// StructModel models a struct that has fields bound to attributes, whose instances
// correspond to entities.
type StructModel struct {
	// Type is the struct type, whose kind must be a struct.
	Type reflect.Type
	// IDField is the position of the entity id field, or -1 if there is none.
	IDField int
	// AttrFields are the fields bound to attributes, in field order.
	AttrFields []AttrFieldModel
}

// Attr returns the attribute field model with the given ident, if any.
func (model StructModel) Attr(ident Ident) (attr AttrFieldModel, ok bool) {
	for _, a := range model.AttrFields {
		if a.Ident == ident {
			attr = a
			ok = true
			break
		}
	}
	return
}

// AttrFieldModel models a field bound to an attribute.
type AttrFieldModel struct {
	// Ident is the ident of the attr.
	Ident Ident
	// Index is the position of the field in the struct.
	Index int
	// FieldType is the field's go type.
	FieldType reflect.Type
	// Attr is the attribute the field declares.
	Attr Attr
	// Ref is the struct type of the referenced entities, if the field refers to structs.
	Ref reflect.Type
}

// Analyze builds a struct model for the given type.
func Analyze(typ reflect.Type) (model StructModel, err error) {
	if typ.Kind() != reflect.Struct {
		err = NewError(ErrNotStruct, "type", typ)
		return
	}
	model.Type = typ
	model.IDField = -1
	n := typ.NumField()
	attrFields := make([]AttrFieldModel, 0, n)
	for i := 0; i < n; i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("attr")
		if !ok {
			continue
		}
		if tag == string(IDIdent) {
			if field.Type.Kind() != reflect.Uint64 {
				err = NewError(ErrInvalidIdentField, "type", typ, "field", field.Name)
				return
			}
			model.IDField = i
			continue
		}
		var attr AttrFieldModel
		attr, err = parseAttrField(field, tag)
		if err != nil {
			return
		}
		attr.Index = i
		attrFields = append(attrFields, attr)
	}
	model.AttrFields = attrFields
	return
}

// ScalarType returns the value type of a scalar go type.
func ScalarType(typ reflect.Type) (vt ValueType, ok bool) {
	ok = true
	switch {
	case typ == timeType:
		vt = TypeInst
	case typ == uuidType:
		vt = TypeUUID
	case typ == keywordType:
		vt = TypeKeyword
	case typ == idType:
		vt = TypeRef
	default:
		switch typ.Kind() {
		case reflect.Bool:
			vt = TypeBool
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			vt = TypeInt
		case reflect.String:
			vt = TypeString
		case reflect.Float32, reflect.Float64:
			vt = TypeFloat
		default:
			ok = false
		}
	}
	return
}

// elemType returns the value type of a field or slice element, and the struct type it
// refers to, if any.
func elemType(typ reflect.Type) (vt ValueType, ref reflect.Type, ok bool) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	vt, ok = ScalarType(typ)
	if ok {
		return
	}
	if typ.Kind() == reflect.Struct {
		vt, ref, ok = TypeRef, typ, true
	}
	return
}

func parseAttrField(field reflect.StructField, tag string) (attr AttrFieldModel, err error) {
	attr, err = parseAttrTag(tag)
	if err != nil {
		return
	}
	attr.FieldType = field.Type
	typ := field.Type
	if typ.Kind() == reflect.Slice && typ.Elem().Kind() != reflect.Uint8 {
		attr.Attr.Multival = true
		typ = typ.Elem()
	}
	vt, ref, ok := elemType(typ)
	if !ok {
		err = NewError(ErrInvalidType, "tag", tag, "type", field.Type, "kind", field.Type.Kind())
		return
	}
	attr.Attr.Type = vt
	attr.Ref = ref
	return
}

func parseAttrTag(tag string) (attr AttrFieldModel, err error) {
	parts := strings.Split(tag, ",")
	attr.Ident = Ident(parts[0])
	unique := func(u Unique) error {
		if attr.Attr.Unique != UniqueNone {
			return NewError(ErrDuplicateUnique, "tag", tag)
		}
		// Unique attributes must be indexed.
		attr.Attr.Unique = u
		attr.Attr.Index = true
		return nil
	}
	for _, part := range parts[1:] {
		switch part {
		case "identity":
			err = unique(UniqueIdentity)
		case "unique":
			err = unique(UniqueValue)
		case "index":
			attr.Attr.Index = true
		case "fulltext":
			attr.Attr.Fulltext = true
			attr.Attr.Index = true
		case "component":
			attr.Attr.Component = true
		case "nohistory":
			attr.Attr.NoHistory = true
		case "many":
			attr.Attr.Multival = true
		default:
			err = NewError(ErrInvalidDirective, "tag", tag, "directive", part)
		}
		if err != nil {
			return
		}
	}
	return
}

// Analyzer returns struct models.
type Analyzer interface {
	Analyze(typ reflect.Type) (StructModel, error)
}

type cachingAnalyzer struct {
	lock   sync.RWMutex
	models map[reflect.Type]StructModel
}

// BuildCachingAnalyzer returns an analyzer that analyzes each type once.
func BuildCachingAnalyzer() Analyzer {
	return &cachingAnalyzer{models: map[reflect.Type]StructModel{}}
}

func (analyzer *cachingAnalyzer) Analyze(typ reflect.Type) (model StructModel, err error) {
	analyzer.lock.RLock()
	model, ok := analyzer.models[typ]
	analyzer.lock.RUnlock()
	if ok {
		return
	}
	model, err = Analyze(typ)
	if err != nil {
		return
	}
	analyzer.lock.Lock()
	analyzer.models[typ] = model
	analyzer.lock.Unlock()
	return
}
