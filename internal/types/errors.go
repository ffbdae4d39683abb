package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of an error.
type ErrorCode string

// These are the schema assertion error codes.
const (
	// ErrMissingValueType rejects a new attribute without a value type.
	ErrMissingValueType ErrorCode = "schema.install.missingValueType"
	// ErrAlterValueType rejects a value type assertion on an installed attribute.
	ErrAlterValueType ErrorCode = "schema.alter.valueType"
	// ErrAlterFulltext rejects a fulltext assertion on an installed attribute.
	ErrAlterFulltext ErrorCode = "schema.alter.fulltext"
	// ErrRetractNotPermitted rejects the bare retraction of a field that may only be altered.
	ErrRetractNotPermitted ErrorCode = "schema.retract.notPermitted"
	// ErrRetractWrongValue rejects the retraction of a value the attribute does not have.
	ErrRetractWrongValue ErrorCode = "schema.retract.wrongValue"
	// ErrInvalidValue rejects a value whose shape does not suit its schema attribute.
	ErrInvalidValue ErrorCode = "schema.assert.invalidValue"
	// ErrUnknownSchemaAttr rejects a schema mutation through an unrecognized attribute.
	ErrUnknownSchemaAttr ErrorCode = "schema.unknownAttr"
	// ErrSchemaRetraction rejects the retraction of defining attributes without the ident.
	ErrSchemaRetraction ErrorCode = "schema.retract.withoutIdent"
	// ErrUniqueWithoutIndex rejects a unique attribute that is not indexed.
	ErrUniqueWithoutIndex ErrorCode = "schema.attr.uniqueWithoutIndex"
	// ErrFulltextWithoutString rejects a fulltext attribute whose values are not strings.
	ErrFulltextWithoutString ErrorCode = "schema.attr.fulltextWithoutString"
	// ErrFulltextWithoutIndex rejects a fulltext attribute that is not indexed.
	ErrFulltextWithoutIndex ErrorCode = "schema.attr.fulltextWithoutIndex"
	// ErrComponentWithoutRef rejects a component attribute whose values are not refs.
	ErrComponentWithoutRef ErrorCode = "schema.attr.componentWithoutRef"
	// ErrInvalidIdent rejects an ident datum whose value is not a keyword.
	ErrInvalidIdent ErrorCode = "schema.ident.invalid"
	// ErrIdentConflict rejects an ident already bound to another entity.
	ErrIdentConflict ErrorCode = "schema.ident.conflict"
	// ErrUnknownIdent reports an ident bound to no entity.
	ErrUnknownIdent ErrorCode = "schema.ident.unknown"
	// ErrUnknownAttr reports an entity that is not an attribute.
	ErrUnknownAttr ErrorCode = "schema.attr.unknown"
)

// These are the transaction error codes.
const (
	// ErrInvalidEntity rejects a claim whose entity does not resolve.
	ErrInvalidEntity ErrorCode = "database.write.invalidE"
	// ErrInvalidAttr rejects a claim whose attribute does not resolve to an attribute.
	ErrInvalidAttr ErrorCode = "database.write.invalidA"
	// ErrInvalidClaimValue rejects a claim whose value does not resolve.
	ErrInvalidClaimValue ErrorCode = "database.write.invalidV"
	// ErrInconsistentValue rejects a claim whose value does not have the attribute's type.
	ErrInconsistentValue ErrorCode = "database.write.inconsistentAV"
	// ErrSystemEntity rejects a claim about a system entity.
	ErrSystemEntity ErrorCode = "database.write.systemEntity"
	// ErrReservedIdent rejects a user ident in the reserved sys namespace.
	ErrReservedIdent ErrorCode = "database.write.reservedIdent"
	// ErrUniqueConflict rejects a unique value already asserted on another entity.
	ErrUniqueConflict ErrorCode = "database.write.uniqueConflict"
	// ErrCardinalityConflict rejects a cardinality one alteration of an attribute with
	// many values on some entity.
	ErrCardinalityConflict ErrorCode = "database.write.cardinalityConflict"
	// ErrAttrInUse rejects the removal of an attribute that still has datums.
	ErrAttrInUse ErrorCode = "database.write.attrInUse"
)

// Error is a failure identified by its code, with context for the humans reading it.
type Error struct {
	Code    ErrorCode
	Context map[string]any
}

func (err Error) Error() string {
	return fmt.Sprintf("%+v: %+v", err.Code, err.Context)
}

// Is matches errors with the same code, ignoring their context.
func (err Error) Is(target error) bool {
	other, ok := target.(Error)
	return ok && other.Code == err.Code
}

func NewError(code ErrorCode, args ...any) Error {
	n := len(args)
	if n%2 != 0 {
		panic("Invalid error context args")
	}
	err := Error{Code: code, Context: make(map[string]any, n/2)}
	for i := 0; i < n; i += 2 {
		s, ok := args[i].(string)
		if !ok {
			panic("Invalid error context args")
		}
		err.Context[s] = args[i+1]
	}
	return err
}

// HasCode returns true if err is or wraps an Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var typed Error
	return errors.As(err, &typed) && typed.Code == code
}
