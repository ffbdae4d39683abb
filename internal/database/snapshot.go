package database

import (
	"github.com/dball/topograph/internal/index"
	"github.com/dball/topograph/internal/iterator"
	"github.com/dball/topograph/internal/schema"
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// Snapshot is an immutable view of the database as of one transaction.
type Snapshot struct {
	eav  index.Index
	aev  index.Index
	ave  index.Index
	vae  index.Index
	topo *schema.Topograph
}

// Select returns the datums that match the given datum according to the partial index.
func (snap *Snapshot) Select(p index.PartialIndex, datum Datum) *iterator.Iterator[Datum] {
	switch p {
	case index.E, index.EA:
		return snap.eav.Select(p, datum)
	case index.A, index.AE:
		return snap.aev.Select(p, datum)
	case index.AV:
		return snap.ave.Select(p, datum)
	default:
		return snap.vae.Select(p, datum)
	}
}

// Find returns the datum with the given eav values.
func (snap *Snapshot) Find(e ID, a ID, v Value) (datum Datum, ok bool) {
	datum, ok = snap.eav.Get(Datum{E: e, A: a, V: v})
	return
}

// Entity returns the datums of the entity in attribute order.
func (snap *Snapshot) Entity(e ID) []Datum {
	return snap.eav.Select(index.E, Datum{E: e}).Drain()
}

// Value returns the first value of the entity's attribute.
func (snap *Snapshot) Value(e ID, a ID) (v Value, ok bool) {
	datum, ok := snap.eav.Select(index.EA, Datum{E: e, A: a}).First()
	if ok {
		v = datum.V
	}
	return
}

// Values returns the values of the entity's attribute.
func (snap *Snapshot) Values(e ID, a ID) []Value {
	return iterator.Map(snap.eav.Select(index.EA, Datum{E: e, A: a}), func(datum Datum) Value {
		return datum.V
	}).Drain()
}

// Lookup returns the entity with the unique attribute value.
func (snap *Snapshot) Lookup(a ID, v Value) (e ID, ok bool) {
	attr, ok := snap.topo.LookupAttr(a)
	if !ok || attr.Unique == UniqueNone {
		ok = false
		return
	}
	datum, ok := snap.ave.First(index.AV, Datum{A: a, V: v})
	e = datum.E
	return
}

// Referrers returns the datums whose values refer to the entity.
func (snap *Snapshot) Referrers(e ID) []Datum {
	return snap.vae.Select(index.V, Datum{V: e}).Drain()
}

// Components returns the entity's datums through component attributes.
func (snap *Snapshot) Components(e ID) []Datum {
	attrs := iterator.BuildIterator[ID](iterator.Slice[ID](snap.topo.ComponentAttrs()))
	iters := iterator.Map(attrs, func(a ID) *iterator.Iterator[Datum] {
		return snap.eav.Select(index.EA, Datum{E: e, A: a})
	}).Drain()
	return iterator.BuildIterator[Datum](iterator.Iterators[Datum](iters)).Drain()
}

// Entities returns the number of user entities that have datums.
func (snap *Snapshot) Entities() int {
	var last ID
	user := iterator.Filter(iterator.BuildIterator[Datum](snap.eav), func(datum Datum) bool {
		return datum.E >= sys.FirstUserID
	})
	return iterator.Reduce(user, func(n int, datum Datum) int {
		if datum.E != last {
			last = datum.E
			n++
		}
		return n
	}, 0)
}

// Topograph returns a copy of the snapshot's topograph.
func (snap *Snapshot) Topograph() *schema.Topograph {
	return snap.topo.Clone()
}

// ResolveIdent returns the entity bound to the ident.
func (snap *Snapshot) ResolveIdent(ident Ident) (ID, bool) {
	return snap.topo.LookupEntity(ident)
}

// Ident returns the ident bound to the entity.
func (snap *Snapshot) Ident(e ID) (Ident, bool) {
	return snap.topo.LookupIdent(e)
}

// Describe describes the attributes.
func (snap *Snapshot) Describe() []schema.AttrDescription {
	return snap.topo.Describe()
}

// Len returns the number of datums.
func (snap *Snapshot) Len() int {
	return snap.eav.Len()
}
