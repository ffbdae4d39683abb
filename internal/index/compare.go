package index

import (
	. "github.com/dball/topograph/internal/types"
)

// Comparer returns -1, 0, or 1 as the first datum sorts before, with, or after the second.
type Comparer func(d1 Datum, d2 Datum) int

func cmpID(x ID, y ID) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func CompareE(d1 Datum, d2 Datum) int {
	return cmpID(d1.E, d2.E)
}

func CompareA(d1 Datum, d2 Datum) int {
	return cmpID(d1.A, d2.A)
}

// CompareV orders datums by value. A nil value sorts before every value, so a datum with
// a nil value is the lowest bound of a selection.
func CompareV(d1 Datum, d2 Datum) int {
	switch {
	case d1.V == nil && d2.V == nil:
		return 0
	case d1.V == nil:
		return -1
	case d2.V == nil:
		return 1
	}
	return Compare(d1.V, d2.V)
}

func then(comparers ...Comparer) Comparer {
	return func(d1 Datum, d2 Datum) (diff int) {
		for _, comparer := range comparers {
			diff = comparer(d1, d2)
			if diff != 0 {
				return
			}
		}
		return
	}
}

var (
	CompareEA  = then(CompareE, CompareA)
	CompareEAV = then(CompareE, CompareA, CompareV)
	CompareAE  = then(CompareA, CompareE)
	CompareAEV = then(CompareA, CompareE, CompareV)
	CompareAV  = then(CompareA, CompareV)
	CompareAVE = then(CompareA, CompareV, CompareE)
	CompareVA  = then(CompareV, CompareA)
	CompareVAE = then(CompareV, CompareA, CompareE)
)
