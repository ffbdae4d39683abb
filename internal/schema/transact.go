package schema

import (
	"github.com/dball/topograph/internal/addretract"
	"github.com/dball/topograph/internal/bimap"
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// Triple is an entity, attribute, and value.
type Triple struct {
	E ID
	A ID
	V Value
}

// Quad is a triple that was asserted, if added, or retracted in a transaction.
type Quad struct {
	E     ID
	A     ID
	V     Value
	Added bool
}

// EA is an entity and attribute pair.
type EA struct {
	E ID
	A ID
}

func lessEA(x EA, y EA) bool {
	return x.E < y.E || (x.E == y.E && x.A < y.A)
}

func lessID(x ID, y ID) bool {
	return x < y
}

// classified is the transaction split into ident changes and attribute field changes.
type classified struct {
	idents      *addretract.Set[ID, Ident]
	assertions  []Triple
	retractions []Triple
}

// pendingAttr is the validated next state of one attribute.
type pendingAttr struct {
	e           ID
	attr        Attr
	installed   bool
	alterations []Alteration
}

// plan is the complete, validated set of changes to apply to a topograph.
type plan struct {
	removed    map[ID]Void
	attrs      []pendingAttr
	idents     *bimap.BiMap[ID, Ident]
	retraction bool
	report     Report
}

// ApplyTriples installs or alters attributes from the given schema attribute triples,
// as when loading a topograph from its stored datums. Ident datums are not accepted.
//
// If this returns an error, the topograph is unchanged.
func ApplyTriples(topo *Topograph, assertions []Triple, retractions []Triple) (report Report, err error) {
	report = newReport()
	attrs, err := resolveAttrs(topo, nil, assertions, retractions, &report)
	if err != nil {
		report = Report{}
		return
	}
	p := plan{attrs: attrs, idents: topo.idents, report: report}
	p.apply(topo)
	return
}

// ApplyQuadruples applies the ident and schema attribute assertions and retractions of a
// transaction to the topograph.
//
// If this returns an error, the topograph is unchanged.
func ApplyQuadruples(topo *Topograph, quads []Quad) (report Report, err error) {
	c, err := classify(quads)
	if err != nil {
		return
	}
	p := plan{report: newReport()}
	p.removed, c.retractions, err = resolveSchemaRetractions(c.retractions, c.idents.Retracted)
	if err != nil {
		return
	}
	p.attrs, err = resolveAttrs(topo, p.removed, c.assertions, c.retractions, &p.report)
	if err != nil {
		return
	}
	p.idents, err = resolveIdents(topo.idents, c.idents, &p.report)
	if err != nil {
		return
	}
	p.retraction = len(c.idents.Retracted) > 0
	p.apply(topo)
	report = p.report
	return
}

// classify splits the quads into ident changes and attribute field changes. A field
// retracted and asserted in the same transaction is an assertion of its new value.
func classify(quads []Quad) (c classified, err error) {
	c.idents = addretract.New[ID, Ident]()
	changes := addretract.New[EA, Value]()
	for _, quad := range quads {
		if quad.A == sys.DbIdent {
			kw, ok := quad.V.(Keyword)
			if !ok {
				err = NewError(ErrInvalidIdent, "e", quad.E, "v", quad.V)
				return
			}
			c.idents.Witness(quad.E, Ident(kw), quad.Added)
			continue
		}
		changes.Witness(EA{E: quad.E, A: quad.A}, quad.V, quad.Added)
	}
	c.assertions = make([]Triple, 0, len(changes.Asserted)+len(changes.Altered))
	for _, ea := range addretract.SortedKeys(changes.Asserted, lessEA) {
		c.assertions = append(c.assertions, Triple{E: ea.E, A: ea.A, V: changes.Asserted[ea]})
	}
	for _, ea := range addretract.SortedKeys(changes.Altered, lessEA) {
		c.assertions = append(c.assertions, Triple{E: ea.E, A: ea.A, V: changes.Altered[ea].New})
	}
	c.retractions = make([]Triple, 0, len(changes.Retracted))
	for _, ea := range addretract.SortedKeys(changes.Retracted, lessEA) {
		c.retractions = append(c.retractions, Triple{E: ea.E, A: ea.A, V: changes.Retracted[ea]})
	}
	return
}

// resolveSchemaRetractions finds the entities whose attributes are removed wholesale,
// which happens when both their type and cardinality are retracted. That is only allowed
// when their ident is retracted as well. All of the schema attribute retractions of a
// removed entity are consumed; the rest are returned.
func resolveSchemaRetractions(retractions []Triple, identRetractions map[ID]Ident) (removed map[ID]Void, remaining []Triple, err error) {
	defining := map[ID]map[ID]Void{}
	for _, triple := range retractions {
		if sys.IsSchemaAttr(triple.A) {
			as, ok := defining[triple.E]
			if !ok {
				as = map[ID]Void{}
				defining[triple.E] = as
			}
			as[triple.A] = Void{}
		}
	}
	removed = map[ID]Void{}
	for _, e := range addretract.SortedKeys(defining, lessID) {
		as := defining[e]
		_, typed := as[sys.AttrType]
		_, carded := as[sys.AttrCardinality]
		if !typed || !carded {
			continue
		}
		if _, ok := identRetractions[e]; !ok {
			err = NewError(ErrSchemaRetraction, "e", e)
			return
		}
		removed[e] = Void{}
	}
	remaining = make([]Triple, 0, len(retractions))
	for _, triple := range retractions {
		if _, ok := removed[triple.E]; ok && sys.IsSchemaAttr(triple.A) {
			continue
		}
		remaining = append(remaining, triple)
	}
	return
}

// resolveAttrs builds and validates the next state of every attribute the triples touch,
// recording installs and alterations in the report. Retractions are applied before
// assertions. Entities in removed are treated as absent.
func resolveAttrs(topo *Topograph, removed map[ID]Void, assertions []Triple, retractions []Triple, report *Report) (pending []pendingAttr, err error) {
	builders := map[ID]*Builder{}
	builder := func(e ID) *Builder {
		b, ok := builders[e]
		if ok {
			return b
		}
		attr, extant := topo.attrs[e]
		if _, gone := removed[e]; extant && !gone {
			b = ModifyBuilder(attr)
		} else {
			b = NewBuilder()
		}
		builders[e] = b
		return b
	}
	for _, triple := range retractions {
		err = retractField(builder(triple.E), triple)
		if err != nil {
			return
		}
	}
	for _, triple := range assertions {
		err = assertField(builder(triple.E), triple)
		if err != nil {
			return
		}
	}
	pending = make([]pendingAttr, 0, len(builders))
	for _, e := range addretract.SortedKeys(builders, lessID) {
		b := builders[e]
		attr, extant := topo.attrs[e]
		if _, gone := removed[e]; !extant || gone {
			err = b.ValidateInstall(e)
			if err != nil {
				return
			}
			attr = b.Build()
			err = ValidateAttr(e, attr)
			if err != nil {
				return
			}
			pending = append(pending, pendingAttr{e: e, attr: attr, installed: true})
			report.AttrsInstalled[e] = Void{}
			continue
		}
		err = b.ValidateAlter(e)
		if err != nil {
			return
		}
		alterations := b.Mutate(&attr)
		if len(alterations) == 0 {
			continue
		}
		err = ValidateAttr(e, attr)
		if err != nil {
			return
		}
		pending = append(pending, pendingAttr{e: e, attr: attr, alterations: alterations})
		report.AttrsAltered[e] = alterations
	}
	return
}

// resolveIdents applies the ident changes to a copy of the bijection. Every old binding
// is removed before any new binding is made, so entities may exchange idents.
func resolveIdents(current *bimap.BiMap[ID, Ident], changes *addretract.Set[ID, Ident], report *Report) (idents *bimap.BiMap[ID, Ident], err error) {
	if changes.IsEmpty() {
		idents = current
		return
	}
	idents = current.Clone()
	unbind := func(e ID, ident Ident) error {
		extant, ok := idents.GetByLeft(e)
		if !ok || extant != ident {
			return NewError(ErrRetractWrongValue, "e", e, "a", sys.DbIdent, "v", ident)
		}
		idents.RemoveLeft(e)
		return nil
	}
	bind := func(e ID, ident Ident) error {
		if !idents.Insert(e, ident) {
			other, _ := idents.GetByRight(ident)
			return NewError(ErrIdentConflict, "e", e, "ident", ident, "other", other)
		}
		report.IdentsAltered[e] = ident
		return nil
	}
	for _, e := range addretract.SortedKeys(changes.Retracted, lessID) {
		ident := changes.Retracted[e]
		if err = unbind(e, ident); err != nil {
			return
		}
		report.IdentsAltered[e] = ident
	}
	altered := addretract.SortedKeys(changes.Altered, lessID)
	for _, e := range altered {
		if err = unbind(e, changes.Altered[e].Old); err != nil {
			return
		}
	}
	for _, e := range altered {
		if err = bind(e, changes.Altered[e].New); err != nil {
			return
		}
	}
	for _, e := range addretract.SortedKeys(changes.Asserted, lessID) {
		if err = bind(e, changes.Asserted[e]); err != nil {
			return
		}
	}
	return
}

// apply changes the topograph to the plan's state. It cannot fail.
func (p plan) apply(topo *Topograph) {
	for e := range p.removed {
		delete(topo.attrs, e)
	}
	for _, pending := range p.attrs {
		topo.attrs[pending.e] = pending.attr
	}
	topo.idents = p.idents
	if p.report.AttrsChanged() || p.retraction {
		topo.RecomputeComponentIndex()
	}
}
