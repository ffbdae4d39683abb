package schema

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	. "github.com/dball/topograph/internal/types"
)

// Alteration is a change to an installed attribute.
type Alteration uint8

const (
	AlterIndex Alteration = iota + 1
	AlterUnique
	AlterCardinality
	AlterNoHistory
	AlterComponent
)

func (alteration Alteration) String() string {
	switch alteration {
	case AlterIndex:
		return "index"
	case AlterUnique:
		return "unique"
	case AlterCardinality:
		return "cardinality"
	case AlterNoHistory:
		return "nohistory"
	case AlterComponent:
		return "component"
	}
	return "unknown"
}

// Report summarizes the changes a transaction made to a topograph.
type Report struct {
	// AttrsInstalled are the attributes that were absent before the transaction.
	AttrsInstalled map[ID]Void
	// AttrsAltered are the attributes that were present before the transaction, with
	// the changes made to them in order.
	AttrsAltered map[ID][]Alteration
	// IdentsAltered are the entities whose idents were asserted, renamed, or retracted,
	// with their new or retracted ident.
	IdentsAltered map[ID]Ident
}

func newReport() Report {
	return Report{
		AttrsInstalled: map[ID]Void{},
		AttrsAltered:   map[ID][]Alteration{},
		IdentsAltered:  map[ID]Ident{},
	}
}

// AttrsChanged returns true if any attribute was installed or altered.
func (report Report) AttrsChanged() bool {
	return len(report.AttrsInstalled) > 0 || len(report.AttrsAltered) > 0
}

// IsEmpty returns true if the report records no changes.
func (report Report) IsEmpty() bool {
	return !report.AttrsChanged() && len(report.IdentsAltered) == 0
}

// Installed returns the installed attribute ids in ascending order.
func (report Report) Installed() (ids []ID) {
	ids = maps.Keys(report.AttrsInstalled)
	slices.Sort(ids)
	return
}

// Altered returns the altered attribute ids in ascending order.
func (report Report) Altered() (ids []ID) {
	ids = maps.Keys(report.AttrsAltered)
	slices.Sort(ids)
	return
}
