// Package schema maintains the topograph, the live schema of idents and attributes,
// and applies the schema mutations witnessed in transactions to it.
package schema

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dball/topograph/internal/bimap"
	. "github.com/dball/topograph/internal/types"
)

// Topograph is the schema: the bijection between idents and entity ids, the attributes
// of the entities that are attributes, and the sorted ids of the component attributes.
//
// Topographs are not safe for concurrent use. Only this package changes topographs,
// always through a transaction that either applies completely or not at all.
type Topograph struct {
	idents     *bimap.BiMap[ID, Ident]
	attrs      map[ID]Attr
	components []ID
}

// New returns an empty topograph with room for the given numbers of idents and attrs.
func New(identsSize int, attrsSize int) *Topograph {
	return &Topograph{
		idents: bimap.New[ID, Ident](identsSize),
		attrs:  make(map[ID]Attr, attrsSize),
	}
}

// LookupEntity returns the entity id bound to the ident.
func (topo *Topograph) LookupEntity(ident Ident) (e ID, ok bool) {
	e, ok = topo.idents.GetByRight(ident)
	return
}

// LookupIdent returns the ident bound to the entity id.
func (topo *Topograph) LookupIdent(e ID) (ident Ident, ok bool) {
	ident, ok = topo.idents.GetByLeft(e)
	return
}

// LookupAttr returns the attribute with the entity id.
func (topo *Topograph) LookupAttr(e ID) (attr Attr, ok bool) {
	attr, ok = topo.attrs[e]
	return
}

// IsAttr returns true if the entity is an attribute.
func (topo *Topograph) IsAttr(e ID) bool {
	_, ok := topo.attrs[e]
	return ok
}

// AttrForIdent returns the attribute named by the ident and its id.
func (topo *Topograph) AttrForIdent(ident Ident) (attr Attr, e ID, ok bool) {
	e, ok = topo.LookupEntity(ident)
	if !ok {
		return
	}
	attr, ok = topo.attrs[e]
	return
}

// IdentifiesAttr returns true if the ident names an attribute.
func (topo *Topograph) IdentifiesAttr(ident Ident) bool {
	_, _, ok := topo.AttrForIdent(ident)
	return ok
}

// RequireEntity returns the entity id bound to the ident or an error.
func (topo *Topograph) RequireEntity(ident Ident) (e ID, err error) {
	e, ok := topo.LookupEntity(ident)
	if !ok {
		err = NewError(ErrUnknownIdent, "ident", ident)
	}
	return
}

// RequireAttr returns the attribute with the entity id or an error.
func (topo *Topograph) RequireAttr(e ID) (attr Attr, err error) {
	attr, ok := topo.attrs[e]
	if !ok {
		err = NewError(ErrUnknownAttr, "e", e)
	}
	return
}

// ComponentAttrs returns the ids of the component attributes in ascending order.
// The caller must not change the slice.
func (topo *Topograph) ComponentAttrs() []ID {
	return topo.components
}

// RecomputeComponentIndex rebuilds the component attribute ids from the attributes.
func (topo *Topograph) RecomputeComponentIndex() {
	components := make([]ID, 0, len(topo.components))
	for e, attr := range topo.attrs {
		if attr.Component {
			components = append(components, e)
		}
	}
	slices.Sort(components)
	topo.components = components
}

// Attrs returns the attribute ids in ascending order.
func (topo *Topograph) Attrs() (ids []ID) {
	ids = maps.Keys(topo.attrs)
	slices.Sort(ids)
	return
}

// Idents returns the ident bindings in ascending order of entity id.
func (topo *Topograph) Idents() []bimap.Pair[ID, Ident] {
	return topo.idents.Pairs()
}

// ValidateAttrs ensures every attribute is valid.
func (topo *Topograph) ValidateAttrs() (err error) {
	for _, e := range topo.Attrs() {
		err = ValidateAttr(e, topo.attrs[e])
		if err != nil {
			if ident, ok := topo.LookupIdent(e); ok {
				err.(Error).Context["ident"] = ident
			}
			return
		}
	}
	return
}

// Clone returns a copy of the topograph. Both may be changed hereafter without
// affecting the other.
func (topo *Topograph) Clone() *Topograph {
	return &Topograph{
		idents:     topo.idents.Clone(),
		attrs:      maps.Clone(topo.attrs),
		components: slices.Clone(topo.components),
	}
}
