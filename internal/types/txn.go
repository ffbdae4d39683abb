package types

import (
	"time"

	"github.com/google/uuid"
)

// TempID is a value that will resolve to a system id when a claim is asserted.
type TempID string

// TxnID is a value that will resolve to the transaction id when a claim is asserted.
type TxnID struct{}

// ERef is a value that will resolve to an entity id when a claim is asserted or retracted.
type ERef interface {
	IsERef()
}

func (ID) IsERef()     {}
func (Ident) IsERef()  {}
func (TempID) IsERef() {}
func (TxnID) IsERef()  {}

// VRef is a value that will resolve to a value when a claim is asserted or restracted.
type VRef interface {
	IsVRef()
}

func (ID) IsVRef()      {}
func (Ident) IsVRef()   {}
func (String) IsVRef()  {}
func (Keyword) IsVRef() {}
func (Int) IsVRef()     {}
func (Bool) IsVRef()    {}
func (Inst) IsVRef()    {}
func (Float) IsVRef()   {}
func (UUID) IsVRef()    {}
func (TempID) IsVRef()  {}

func ToVRef(x any) (v VRef, ok bool) {
	ok = true
	switch xv := x.(type) {
	case VRef:
		v = xv
	case uint64:
		v = ID(xv)
	case string:
		v = String(xv)
	case int64:
		v = Int(xv)
	case int:
		v = Int(xv)
	case bool:
		v = Bool(xv)
	case time.Time:
		v = Inst(xv)
	case float64:
		v = Float(xv)
	case uuid.UUID:
		v = UUID(xv)
	default:
		ok = false
	}
	return
}

// Claim is an assertion of or retraction of a datum.
type Claim struct {
	E       ERef
	A       IDRef
	V       VRef
	Retract bool
}

// Request is a set of claims to apply atomically.
type Request struct {
	// The list of claims.
	Claims []*Claim
}
