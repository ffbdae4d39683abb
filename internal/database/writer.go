package database

import (
	"time"

	"github.com/dball/topograph/internal/index"
	"github.com/dball/topograph/internal/iterator"
	"github.com/dball/topograph/internal/schema"
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// writer derives the datum changes of one transaction against clones of the indexes.
type writer struct {
	eav index.Index
	aev index.Index
	ave index.Index
	vae index.Index

	// prior is the topograph claims are resolved against. topo is the topograph
	// after the transaction's schema changes.
	prior *schema.Topograph
	topo  *schema.Topograph
	clock func() time.Time

	t      ID
	nextID ID
	newIDs map[TempID]ID

	quads   []schema.Quad
	dropped []bool
	// pending indexes the quads by datum, with T zeroed.
	pending map[Datum]int
	// originals are the extant datums removed in the transaction, by datum with T zeroed.
	originals map[Datum]Datum
	final     []schema.Quad
	report    schema.Report
}

func (db *Database) newWriter() *writer {
	w := &writer{
		eav:       db.eav.Clone(),
		aev:       db.aev.Clone(),
		ave:       db.ave.Clone(),
		vae:       db.vae.Clone(),
		prior:     db.topo,
		topo:      db.topo,
		clock:     db.clock,
		nextID:    db.nextID,
		newIDs:    map[TempID]ID{},
		pending:   map[Datum]int{},
		originals: map[Datum]Datum{},
	}
	w.t = w.allocate()
	return w
}

func (w *writer) allocate() (id ID) {
	id = w.nextID
	w.nextID++
	return
}

func (w *writer) tempID(tempID TempID) (id ID) {
	id, ok := w.newIDs[tempID]
	if !ok {
		id = w.allocate()
		w.newIDs[tempID] = id
	}
	return
}

func (w *writer) write(req Request) (err error) {
	err = w.upsert(req.Claims)
	if err != nil {
		return
	}
	for _, claim := range req.Claims {
		var datum Datum
		var attr Attr
		datum, attr, err = w.resolve(claim)
		if err != nil {
			return
		}
		if claim.Retract {
			err = w.retract(datum)
		} else {
			err = w.assert(datum, attr)
		}
		if err != nil {
			return
		}
	}
	txAt, _ := w.prior.LookupAttr(sys.TxAt)
	err = w.assert(Datum{E: w.t, A: sys.TxAt, V: Inst(w.clock().UTC()), T: w.t}, txAt)
	if err != nil {
		return
	}
	w.finish()
	err = w.checkUnique()
	if err != nil {
		return
	}
	err = w.applySchema()
	return
}

// upsert binds the temp ids of claims asserting an extant unique identity value to the
// entity that has it.
func (w *writer) upsert(claims []*Claim) (err error) {
	for _, claim := range claims {
		tempID, ok := claim.E.(TempID)
		if !ok || claim.Retract {
			continue
		}
		a, ok := w.attrID(claim.A)
		if !ok {
			continue
		}
		attr, _ := w.prior.LookupAttr(a)
		if attr.Unique != UniqueIdentity {
			continue
		}
		v, ok := w.literal(claim.V, attr)
		if !ok {
			continue
		}
		match, ok := w.ave.First(index.AV, Datum{A: a, V: v})
		if !ok {
			continue
		}
		if extant, ok := w.newIDs[tempID]; ok && extant != match.E {
			err = NewError(ErrUniqueConflict, "tempid", tempID, "e", match.E, "other", extant)
			return
		}
		w.newIDs[tempID] = match.E
	}
	return
}

func (w *writer) attrID(ref IDRef) (a ID, ok bool) {
	switch ar := ref.(type) {
	case ID:
		a = ar
	case Ident:
		a, ok = w.prior.LookupEntity(ar)
		if !ok {
			return
		}
	default:
		return
	}
	ok = w.prior.IsAttr(a)
	return
}

// literal resolves a value that needs no id allocation.
func (w *writer) literal(vref VRef, attr Attr) (v Value, ok bool) {
	switch vr := vref.(type) {
	case Ident:
		if attr.Type == TypeKeyword {
			v, ok = Keyword(vr), true
			return
		}
		var id ID
		id, ok = w.prior.LookupEntity(vr)
		v = id
	case TempID:
	case Inst:
		// Instants are stored in UTC, the form in which they are read back.
		v, ok = Inst(time.Time(vr).UTC()), true
	case Value:
		v, ok = vr, true
	}
	return
}

func (w *writer) resolve(claim *Claim) (datum Datum, attr Attr, err error) {
	datum.T = w.t
	switch e := claim.E.(type) {
	case ID:
		if e == 0 || e >= w.nextID {
			err = NewError(ErrInvalidEntity, "e", e)
			return
		}
		datum.E = e
	case Ident:
		id, ok := w.prior.LookupEntity(e)
		if !ok {
			err = NewError(ErrInvalidEntity, "ident", e)
			return
		}
		datum.E = id
	case TempID:
		if claim.Retract {
			err = NewError(ErrInvalidEntity, "tempid", e, "retract", true)
			return
		}
		datum.E = w.tempID(e)
	case TxnID:
		datum.E = w.t
	default:
		err = NewError(ErrInvalidEntity, "e", claim.E)
		return
	}
	if datum.E < sys.FirstUserID {
		err = NewError(ErrSystemEntity, "e", datum.E)
		return
	}
	a, ok := w.attrID(claim.A)
	if !ok {
		err = NewError(ErrInvalidAttr, "a", claim.A)
		return
	}
	datum.A = a
	attr, _ = w.prior.LookupAttr(a)
	if tempID, ok := claim.V.(TempID); ok && attr.Type == TypeRef && !claim.Retract {
		datum.V = w.tempID(tempID)
	} else {
		datum.V, ok = w.literal(claim.V, attr)
		if !ok {
			err = NewError(ErrInvalidClaimValue, "e", datum.E, "a", a, "v", claim.V)
			return
		}
	}
	if !sys.ValidValue(attr.Type, datum.V) {
		err = NewError(ErrInconsistentValue, "e", datum.E, "a", a, "v", datum.V, "expected", attr.Type.String())
		return
	}
	if id, ok := datum.V.(ID); ok && (id == 0 || id >= w.nextID) {
		err = NewError(ErrInvalidClaimValue, "e", datum.E, "a", a, "v", id)
		return
	}
	if a == sys.DbIdent && !claim.Retract && !sys.ValidUserIdent(datum.V.(Keyword)) {
		err = NewError(ErrReservedIdent, "e", datum.E, "v", datum.V)
	}
	return
}

func (w *writer) assert(datum Datum, attr Attr) (err error) {
	if w.eav.Find(datum) {
		return
	}
	if !attr.Multival {
		extant, ok := w.eav.First(index.EA, datum)
		if ok {
			if i, ok := w.pending[key(extant)]; ok && w.quads[i].Added && !w.dropped[i] {
				err = NewError(ErrCardinalityConflict, "e", datum.E, "a", datum.A, "v", datum.V, "other", extant.V)
				return
			}
			w.remove(extant)
		}
	}
	w.insert(datum, attr)
	return
}

func (w *writer) retract(datum Datum) (err error) {
	extant, ok := w.eav.Get(datum)
	if ok {
		w.remove(extant)
	}
	return
}

func key(datum Datum) Datum {
	datum.T = 0
	return datum
}

// record appends the change, or cancels the opposite change made earlier in the
// transaction.
func (w *writer) record(datum Datum, added bool) {
	k := key(datum)
	if i, ok := w.pending[k]; ok && !w.dropped[i] && w.quads[i].Added != added {
		w.dropped[i] = true
		delete(w.pending, k)
		return
	}
	w.pending[k] = len(w.quads)
	w.quads = append(w.quads, schema.Quad{E: datum.E, A: datum.A, V: datum.V, Added: added})
	w.dropped = append(w.dropped, false)
}

func (w *writer) insert(datum Datum, attr Attr) {
	if original, ok := w.originals[key(datum)]; ok {
		datum = original
	}
	insert(w.eav, w.aev, w.ave, w.vae, datum, attr)
	w.record(datum, true)
}

func (w *writer) remove(datum Datum) {
	w.eav.Delete(datum)
	w.aev.Delete(datum)
	w.ave.Delete(datum)
	w.vae.Delete(datum)
	if _, ok := w.originals[key(datum)]; !ok && datum.T != w.t {
		w.originals[key(datum)] = datum
	}
	w.record(datum, false)
}

func (w *writer) finish() {
	w.final = make([]schema.Quad, 0, len(w.quads))
	for i, quad := range w.quads {
		if !w.dropped[i] {
			w.final = append(w.final, quad)
		}
	}
}

func (w *writer) changes() []schema.Quad {
	return w.final
}

// checkUnique ensures every unique value asserted is held by one entity. Idents are
// left to the topograph.
func (w *writer) checkUnique() (err error) {
	for _, quad := range w.final {
		if !quad.Added || quad.A == sys.DbIdent {
			continue
		}
		attr, _ := w.prior.LookupAttr(quad.A)
		if attr.Unique == UniqueNone {
			continue
		}
		err = w.checkUniqueValue(quad.A, quad.V)
		if err != nil {
			return
		}
	}
	return
}

func (w *writer) checkUniqueValue(a ID, v Value) (err error) {
	holders := w.ave.Select(index.AV, Datum{A: a, V: v})
	defer holders.Stop()
	var first Datum
	for holders.Next() {
		datum := holders.Value()
		if first.E == 0 {
			first = datum
			continue
		}
		err = NewError(ErrUniqueConflict, "a", a, "v", v, "e", datum.E, "other", first.E)
		return
	}
	return
}

// applySchema applies the transaction's ident and schema attribute changes to a clone of
// the topograph and brings the datums into line with the altered attributes.
func (w *writer) applySchema() (err error) {
	var meta []schema.Quad
	for _, quad := range w.final {
		if sys.MightUpdateMetadata(quad.A) {
			meta = append(meta, quad)
		}
	}
	if len(meta) == 0 {
		return
	}
	topo := w.prior.Clone()
	w.report, err = schema.ApplyQuadruples(topo, meta)
	if err != nil {
		return
	}
	for e, alterations := range w.report.AttrsAltered {
		attr, _ := topo.LookupAttr(e)
		for _, alteration := range alterations {
			switch alteration {
			case schema.AlterIndex, schema.AlterUnique:
				w.reindex(e, attr)
			}
		}
	}
	for e, alterations := range w.report.AttrsAltered {
		attr, _ := topo.LookupAttr(e)
		for _, alteration := range alterations {
			switch {
			case alteration == schema.AlterCardinality && !attr.Multival:
				err = w.checkCardinality(e)
			case alteration == schema.AlterUnique && attr.Unique != UniqueNone:
				err = w.checkUniqueAttr(e)
			}
			if err != nil {
				return
			}
		}
	}
	for e := range w.report.IdentsAltered {
		if !w.prior.IsAttr(e) || topo.IsAttr(e) {
			continue
		}
		if datum, ok := w.aev.First(index.A, Datum{A: e}); ok {
			err = NewError(ErrAttrInUse, "a", e, "e", datum.E)
			return
		}
		w.retractSchema(e)
	}
	w.finish()
	w.topo = topo
	return
}

// retractSchema retracts the schema datums a removed attribute still has, so that none
// outlive its type and cardinality.
func (w *writer) retractSchema(e ID) {
	for _, datum := range w.eav.Select(index.E, Datum{E: e}).Drain() {
		if sys.IsSchemaAttr(datum.A) {
			w.remove(datum)
		}
	}
}

// reindex adds or removes the attribute's datums from the ave index to suit the attribute.
func (w *writer) reindex(a ID, attr Attr) {
	datums := w.aev.Select(index.A, Datum{A: a}).Drain()
	keep := inAVE(attr)
	for _, datum := range datums {
		if keep {
			w.ave.Insert(datum)
		} else {
			w.ave.Delete(datum)
		}
	}
}

func (w *writer) checkCardinality(a ID) (err error) {
	var prev Datum
	w.each(index.A, Datum{A: a}, func(datum Datum) bool {
		if prev.E == datum.E {
			err = NewError(ErrCardinalityConflict, "a", a, "e", datum.E, "v", datum.V, "other", prev.V)
			return false
		}
		prev = datum
		return true
	})
	return
}

func (w *writer) checkUniqueAttr(a ID) (err error) {
	var prev Datum
	iter := w.ave.Select(index.A, Datum{A: a})
	defer iter.Stop()
	for iter.Next() {
		datum := iter.Value()
		if prev.E != 0 && Compare(prev.V, datum.V) == 0 {
			err = NewError(ErrUniqueConflict, "a", a, "v", datum.V, "e", datum.E, "other", prev.E)
			return
		}
		prev = datum
	}
	return
}

func (w *writer) each(p index.PartialIndex, datum Datum, accept iterator.Accept[Datum]) {
	iter := w.aev.Select(p, datum)
	defer iter.Stop()
	for iter.Next() {
		if !accept(iter.Value()) {
			return
		}
	}
}

// noHistory returns true if the attribute keeps no history of its retractions.
func (w *writer) noHistory(a ID) bool {
	attr, ok := w.topo.LookupAttr(a)
	if !ok {
		attr, ok = w.prior.LookupAttr(a)
	}
	return ok && attr.NoHistory
}
