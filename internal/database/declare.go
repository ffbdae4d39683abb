package database

import (
	"strconv"

	"github.com/dball/topograph/internal/schema"
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// Declaration names an attribute to install.
type Declaration struct {
	Ident Ident
	Attr  Attr
	Doc   string
}

// Declare installs the attributes in one transaction.
//
// This is purely a helper function for brevity, callers are free to write claims
// asserting attributes directly.
func Declare(db *Database, decls ...Declaration) (res Response) {
	res = db.Write(Request{Claims: DeclarationClaims(decls...)})
	return
}

// DeclarationClaims returns the claims that install the attributes. The attributes'
// temp ids are their idents. Identity and fulltext attributes are always indexed.
func DeclarationClaims(decls ...Declaration) (claims []*Claim) {
	claims = make([]*Claim, 0, len(decls)*4)
	for i, decl := range decls {
		e := TempID(decl.Ident)
		if e == "" {
			e = TempID(strconv.Itoa(i))
		}
		attr := declaredAttr(decl.Attr)
		vt, _ := sys.TypeID(attr.Type)
		claims = append(claims,
			&Claim{E: e, A: sys.DbIdent, V: Keyword(decl.Ident)},
			&Claim{E: e, A: sys.AttrType, V: vt},
			&Claim{E: e, A: sys.AttrCardinality, V: sys.CardinalityID(attr.Multival)},
		)
		if attr.Unique != UniqueNone {
			claims = append(claims, &Claim{E: e, A: sys.AttrUnique, V: sys.UniqueID(attr.Unique)})
		}
		flags := []struct {
			a  ID
			on bool
		}{
			{sys.AttrIndex, attr.Index},
			{sys.AttrFulltext, attr.Fulltext},
			{sys.AttrComponent, attr.Component},
			{sys.AttrNoHistory, attr.NoHistory},
		}
		for _, flag := range flags {
			if flag.on {
				claims = append(claims, &Claim{E: e, A: flag.a, V: Bool(true)})
			}
		}
		if decl.Doc != "" {
			claims = append(claims, &Claim{E: e, A: sys.DbDoc, V: String(decl.Doc)})
		}
	}
	return
}

func declaredAttr(attr Attr) Attr {
	return schema.HelpfulBuilder().
		ValueType(attr.Type).
		Multival(attr.Multival).
		Index(attr.Index).
		Unique(attr.Unique).
		Fulltext(attr.Fulltext).
		Component(attr.Component).
		NoHistory(attr.NoHistory).
		Build()
}
