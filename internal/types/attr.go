package types

// Unique specifies the uniqueness of an attribute's values.
type Unique uint8

const (
	// UniqueNone attributes may have the same value on many entities.
	UniqueNone Unique = iota
	// UniqueValue attributes reject a value already asserted on another entity.
	UniqueValue
	// UniqueIdentity attributes resolve a value already asserted on another entity to that entity.
	UniqueIdentity
)

func (u Unique) String() string {
	switch u {
	case UniqueNone:
		return "none"
	case UniqueValue:
		return "value"
	case UniqueIdentity:
		return "identity"
	}
	return "unknown"
}

// Attr is a convenient represention of the attributes of an attribute.
//
// The zero value is a cardinality one, non-unique, unindexed attribute with no
// value type, which is not itself a valid attribute.
type Attr struct {
	// Type specifies the type of values to which the attribute refers. It may not
	// change once the attribute is installed.
	Type ValueType
	// Multival is true when the attribute may have many values on a given entity.
	Multival bool
	// Unique specifies the uniqueness of the attribute's value.
	Unique Unique
	// Index is true when the attribute's values are indexed for lookup.
	Index bool
	// Fulltext is true when string values are indexed for text search. It may not
	// change once the attribute is installed.
	Fulltext bool
	// Component is true when referenced entities are owned by the referring entity.
	Component bool
	// NoHistory is true when retracted values need not be retained.
	NoHistory bool
}
