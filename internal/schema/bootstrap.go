package schema

import (
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// FromDatums builds a topograph from the current ident and schema attribute datums of a
// database, with room for the given numbers of idents and attrs. Datums with other
// attributes are ignored.
func FromDatums(datums []Datum, identsSize int, attrsSize int) (topo *Topograph, err error) {
	topo = New(identsSize, attrsSize)
	triples := make([]Triple, 0, len(datums))
	for _, datum := range datums {
		switch {
		case datum.A == sys.DbIdent:
			kw, ok := datum.V.(Keyword)
			if !ok {
				err = NewError(ErrInvalidIdent, "e", datum.E, "v", datum.V)
				topo = nil
				return
			}
			if !topo.idents.Insert(datum.E, Ident(kw)) {
				other, _ := topo.idents.GetByRight(Ident(kw))
				err = NewError(ErrIdentConflict, "e", datum.E, "ident", Ident(kw), "other", other)
				topo = nil
				return
			}
		case sys.IsSchemaAttr(datum.A):
			triples = append(triples, Triple{E: datum.E, A: datum.A, V: datum.V})
		}
	}
	_, err = ApplyTriples(topo, triples, nil)
	if err == nil {
		err = topo.ValidateAttrs()
	}
	if err != nil {
		topo = nil
	}
	return
}

// Bootstrap returns the topograph of an empty database.
func Bootstrap() (*Topograph, error) {
	return FromDatums(sys.Datums, len(sys.Datums), len(sys.Datums)/2)
}

// MustBootstrap returns the topograph of an empty database, panicking on failure.
func MustBootstrap() *Topograph {
	topo, err := Bootstrap()
	if err != nil {
		panic(err)
	}
	return topo
}
