package schema

import (
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// AttrDescription is the printable form of an attribute.
type AttrDescription struct {
	ID          ID     `json:"id" yaml:"id"`
	Ident       Ident  `json:"ident,omitempty" yaml:"ident,omitempty"`
	Type        string `json:"type" yaml:"type"`
	Cardinality string `json:"cardinality" yaml:"cardinality"`
	Unique      string `json:"unique,omitempty" yaml:"unique,omitempty"`
	Index       bool   `json:"index,omitempty" yaml:"index,omitempty"`
	Fulltext    bool   `json:"fulltext,omitempty" yaml:"fulltext,omitempty"`
	Component   bool   `json:"component,omitempty" yaml:"component,omitempty"`
	NoHistory   bool   `json:"nohistory,omitempty" yaml:"nohistory,omitempty"`
}

// Describe returns the descriptions of the attributes in ascending order of id.
func (topo *Topograph) Describe() (descriptions []AttrDescription) {
	ids := topo.Attrs()
	descriptions = make([]AttrDescription, len(ids))
	for i, e := range ids {
		attr := topo.attrs[e]
		ident, _ := topo.LookupIdent(e)
		cardinality, _ := topo.LookupIdent(sys.CardinalityID(attr.Multival))
		d := AttrDescription{
			ID:          e,
			Ident:       ident,
			Type:        attr.Type.String(),
			Cardinality: string(cardinality),
			Index:       attr.Index,
			Fulltext:    attr.Fulltext,
			Component:   attr.Component,
			NoHistory:   attr.NoHistory,
		}
		if attr.Unique != UniqueNone {
			d.Unique = attr.Unique.String()
		}
		descriptions[i] = d
	}
	return
}
