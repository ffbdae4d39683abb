package schema

import (
	. "github.com/dball/topograph/internal/types"
)

// UniqueOp describes what a builder does to an attribute's uniqueness.
type UniqueOp uint8

const (
	// UniqueUntouched leaves the uniqueness as it is.
	UniqueUntouched UniqueOp = iota
	// UniqueCleared makes the attribute non-unique.
	UniqueCleared
	// UniqueAssigned sets the uniqueness to the builder's kind.
	UniqueAssigned
)

type option[T comparable] struct {
	value T
	set   bool
}

func some[T comparable](value T) option[T] {
	return option[T]{value: value, set: true}
}

func (opt option[T]) is(value T) bool {
	return opt.set && opt.value == value
}

// Builder accumulates changes to an attribute witnessed in a transaction. Unset fields
// were not touched by the transaction.
type Builder struct {
	helpful   bool
	valueType option[ValueType]
	multival  option[bool]
	uniqueOp  UniqueOp
	unique    Unique
	index     option[bool]
	fulltext  option[bool]
	component option[bool]
	noHistory option[bool]
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// HelpfulBuilder returns an empty builder that indexes identity and fulltext attributes.
func HelpfulBuilder() *Builder {
	return &Builder{helpful: true}
}

// ModifyBuilder returns a builder seeded with the fields of an installed attribute
// whose current values a retraction may unset.
func ModifyBuilder(attr Attr) *Builder {
	b := &Builder{
		multival:  some(attr.Multival),
		component: some(attr.Component),
		unique:    attr.Unique,
	}
	if attr.Unique == UniqueNone {
		b.uniqueOp = UniqueCleared
	} else {
		b.uniqueOp = UniqueAssigned
	}
	return b
}

func (b *Builder) ValueType(vt ValueType) *Builder {
	b.valueType = some(vt)
	return b
}

func (b *Builder) Multival(multival bool) *Builder {
	b.multival = some(multival)
	return b
}

func (b *Builder) Unique(unique Unique) *Builder {
	if unique == UniqueNone {
		return b.NonUnique()
	}
	if b.helpful && unique == UniqueIdentity {
		b.index = some(true)
	}
	b.uniqueOp = UniqueAssigned
	b.unique = unique
	return b
}

func (b *Builder) NonUnique() *Builder {
	b.uniqueOp = UniqueCleared
	b.unique = UniqueNone
	return b
}

func (b *Builder) Index(index bool) *Builder {
	b.index = some(index)
	return b
}

func (b *Builder) Fulltext(fulltext bool) *Builder {
	b.fulltext = some(fulltext)
	if b.helpful && fulltext {
		b.index = some(true)
	}
	return b
}

func (b *Builder) Component(component bool) *Builder {
	b.component = some(component)
	return b
}

func (b *Builder) NoHistory(noHistory bool) *Builder {
	b.noHistory = some(noHistory)
	return b
}

// ValidateInstall ensures the builder can define a new attribute.
func (b *Builder) ValidateInstall(e ID) (err error) {
	if !b.valueType.set {
		err = NewError(ErrMissingValueType, "e", e)
	}
	return
}

// ValidateAlter ensures the builder only changes fields an installed attribute allows
// to change.
func (b *Builder) ValidateAlter(e ID) (err error) {
	switch {
	case b.valueType.set:
		err = NewError(ErrAlterValueType, "e", e, "v", b.valueType.value)
	case b.fulltext.set:
		err = NewError(ErrAlterFulltext, "e", e, "v", b.fulltext.value)
	}
	return
}

// Build returns a new attribute with the builder's fields set.
func (b *Builder) Build() (attr Attr) {
	if b.valueType.set {
		attr.Type = b.valueType.value
	}
	if b.fulltext.set {
		attr.Fulltext = b.fulltext.value
	}
	if b.multival.set {
		attr.Multival = b.multival.value
	}
	if b.uniqueOp == UniqueAssigned {
		attr.Unique = b.unique
	}
	if b.index.set {
		attr.Index = b.index.value
	}
	if b.component.set {
		attr.Component = b.component.value
	}
	if b.noHistory.set {
		attr.NoHistory = b.noHistory.value
	}
	return
}

// Mutate changes the attribute's alterable fields to the builder's, returning the list
// of alterations that changed something.
func (b *Builder) Mutate(attr *Attr) (alterations []Alteration) {
	if b.multival.set && b.multival.value != attr.Multival {
		attr.Multival = b.multival.value
		alterations = append(alterations, AlterCardinality)
	}
	switch b.uniqueOp {
	case UniqueCleared:
		if attr.Unique != UniqueNone {
			attr.Unique = UniqueNone
			alterations = append(alterations, AlterUnique)
		}
	case UniqueAssigned:
		if attr.Unique != b.unique {
			attr.Unique = b.unique
			alterations = append(alterations, AlterUnique)
		}
	}
	if b.index.set && b.index.value != attr.Index {
		attr.Index = b.index.value
		alterations = append(alterations, AlterIndex)
	}
	if b.component.set && b.component.value != attr.Component {
		attr.Component = b.component.value
		alterations = append(alterations, AlterComponent)
	}
	if b.noHistory.set && b.noHistory.value != attr.NoHistory {
		attr.NoHistory = b.noHistory.value
		alterations = append(alterations, AlterNoHistory)
	}
	return
}
