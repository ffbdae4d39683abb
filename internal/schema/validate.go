package schema

import (
	. "github.com/dball/topograph/internal/types"
)

// ValidateAttr ensures the attribute's fields are consistent with one another.
func ValidateAttr(e ID, attr Attr) (err error) {
	switch {
	case attr.Unique != UniqueNone && !attr.Index:
		err = NewError(ErrUniqueWithoutIndex, "e", e, "unique", attr.Unique)
	case attr.Fulltext && attr.Type != TypeString:
		err = NewError(ErrFulltextWithoutString, "e", e, "type", attr.Type)
	case attr.Fulltext && !attr.Index:
		err = NewError(ErrFulltextWithoutIndex, "e", e)
	case attr.Component && attr.Type != TypeRef:
		err = NewError(ErrComponentWithoutRef, "e", e, "type", attr.Type)
	}
	return
}
