// Package schemas provides for declaring the attributes of structs.
package schemas

import (
	"reflect"

	"github.com/dball/topograph/internal/database"
	"github.com/dball/topograph/internal/structs/models"
	. "github.com/dball/topograph/internal/types"
)

// ErrConflictingAttr rejects structs that declare one ident as different attributes.
const ErrConflictingAttr ErrorCode = "schemas.conflictingAttr"

// Analyze returns the declarations of the attributes of the struct type and of the
// struct types its fields refer to, in the order they are found.
func Analyze(analyzer models.Analyzer, typ reflect.Type) (decls []database.Declaration, err error) {
	declared := map[Ident]Attr{}
	done := map[reflect.Type]Void{typ: {}}
	todo := []reflect.Type{typ}
	for len(todo) > 0 {
		typ, todo = todo[0], todo[1:]
		model, modelErr := analyzer.Analyze(typ)
		if modelErr != nil {
			err = modelErr
			return
		}
		for _, field := range model.AttrFields {
			extant, ok := declared[field.Ident]
			switch {
			case !ok:
				declared[field.Ident] = field.Attr
				decls = append(decls, database.Declaration{Ident: field.Ident, Attr: field.Attr})
			case extant != field.Attr:
				err = NewError(ErrConflictingAttr, "ident", field.Ident, "type", typ, "attr", field.Attr, "other", extant)
				return
			}
			if field.Ref == nil {
				continue
			}
			if _, ok := done[field.Ref]; !ok {
				done[field.Ref] = Void{}
				todo = append(todo, field.Ref)
			}
		}
	}
	return
}

// Claims returns the claims that install the attributes of the struct types.
func Claims(analyzer models.Analyzer, types ...reflect.Type) (claims []*Claim, err error) {
	var all []database.Declaration
	seen := map[Ident]Void{}
	for _, typ := range types {
		var decls []database.Declaration
		decls, err = Analyze(analyzer, typ)
		if err != nil {
			return
		}
		for _, decl := range decls {
			if _, ok := seen[decl.Ident]; ok {
				continue
			}
			seen[decl.Ident] = Void{}
			all = append(all, decl)
		}
	}
	claims = database.DeclarationClaims(all...)
	return
}
