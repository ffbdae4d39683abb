// Package index provides for datum indexes implemented on btrees.
package index

import (
	"fmt"

	"github.com/google/btree"

	"github.com/dball/topograph/internal/iterator"
	. "github.com/dball/topograph/internal/types"
)

// PartialIndex names the leading fields of a datum on which a selection matches.
type PartialIndex int8

const (
	E PartialIndex = iota + 1
	EA
	A
	AE
	AV
	V
	VA
)

var partialComparers = map[PartialIndex]Comparer{
	E:  CompareE,
	EA: CompareEA,
	A:  CompareA,
	AE: CompareAE,
	AV: CompareAV,
	V:  CompareV,
	VA: CompareVA,
}

func (p PartialIndex) String() string {
	switch p {
	case E:
		return "E"
	case EA:
		return "EA"
	case A:
		return "A"
	case AE:
		return "AE"
	case AV:
		return "AV"
	case V:
		return "V"
	case VA:
		return "VA"
	}
	return fmt.Sprintf("#partial(%d)", int8(p))
}

// IndexType is a type of datum index, e.g. EAV.
type IndexType struct {
	Name     string
	comparer Comparer
	partials []PartialIndex
}

// Supports returns true if the partial index is a prefix of the index type's order.
func (indexType IndexType) Supports(p PartialIndex) bool {
	for _, partial := range indexType.partials {
		if partial == p {
			return true
		}
	}
	return false
}

var (
	// EAVIndex is the EAV index type.
	EAVIndex = IndexType{Name: "eav", comparer: CompareEAV, partials: []PartialIndex{E, EA}}
	// AEVIndex is the AEV index type.
	AEVIndex = IndexType{Name: "aev", comparer: CompareAEV, partials: []PartialIndex{A, AE}}
	// AVEIndex is the AVE index type.
	AVEIndex = IndexType{Name: "ave", comparer: CompareAVE, partials: []PartialIndex{A, AV}}
	// VAEIndex is the VAE index type.
	VAEIndex = IndexType{Name: "vae", comparer: CompareVAE, partials: []PartialIndex{V, VA}}
)

// Index is a sorted set of datums, where the basis for uniqueness is eav. An index
// will retain the extant datum if a new one is inserted for the same eav.
//
// Index instances are safe for concurrent reads, not for concurrent writes.
type Index interface {
	// Find returns true if a datum with the given datum's eav values is present in the indexed set.
	Find(datum Datum) (extant bool)
	// Get returns the indexed datum with the given datum's eav values.
	Get(datum Datum) (match Datum, extant bool)
	// Insert ensures a datum with the given datum's eav values is present in the indexed set. If
	// this returns true, the indexed datum retains its t value.
	Insert(datum Datum) (extant bool)
	// Delete ensures no datum with the given datum's eav values is present in the indexed set.
	// If this returns true, a datum was deleted in so doing.
	Delete(datum Datum) (extant bool)
	// Select returns an iterator of datums that match the given datum according to the partial
	// index.
	Select(p PartialIndex, datum Datum) (iter *iterator.Iterator[Datum])
	// First returns the first datum that matches the given datum according to the partial index.
	First(p PartialIndex, datum Datum) (match Datum, extant bool)
	// Len returns the number of datums in the index.
	Len() int
	// Each calls accept with the datums in index order until it returns false.
	Each(accept iterator.Accept[Datum])
	// Clone returns a copy of the index. Both instances are hereafter safe to change without affecting
	// the other.
	Clone() (clone Index)
}

// BTreeIndex is an index stored in a btree.
type BTreeIndex struct {
	indexType IndexType
	tree      *btree.BTreeG[Datum]
}

var _ Index = &BTreeIndex{}

// New returns an empty btree index of the given degree and index type.
func New(degree int, indexType IndexType) *BTreeIndex {
	comparer := indexType.comparer
	less := func(d1 Datum, d2 Datum) bool { return comparer(d1, d2) < 0 }
	return &BTreeIndex{indexType: indexType, tree: btree.NewG(degree, less)}
}

func (idx *BTreeIndex) Find(datum Datum) (extant bool) {
	extant = idx.tree.Has(datum)
	return
}

func (idx *BTreeIndex) Get(datum Datum) (match Datum, extant bool) {
	match, extant = idx.tree.Get(datum)
	return
}

func (idx *BTreeIndex) Insert(datum Datum) (extant bool) {
	extant = idx.Find(datum)
	if !extant {
		// ReplaceOrInsert would overwrite the extant t value, which we retain.
		idx.tree.ReplaceOrInsert(datum)
	}
	return
}

func (idx *BTreeIndex) Delete(datum Datum) (extant bool) {
	_, extant = idx.tree.Delete(datum)
	return
}

func (idx *BTreeIndex) Len() int {
	return idx.tree.Len()
}

func (idx *BTreeIndex) Clone() (clone Index) {
	clone = &BTreeIndex{indexType: idx.indexType, tree: idx.tree.Clone()}
	return
}

type selection struct {
	idx      *BTreeIndex
	comparer Comparer
	datum    Datum
}

func (sel *selection) Each(accept iterator.Accept[Datum]) {
	sel.idx.tree.AscendGreaterOrEqual(sel.datum, func(datum Datum) bool {
		if sel.comparer(sel.datum, datum) != 0 {
			return false
		}
		return accept(datum)
	})
}

func (idx *BTreeIndex) selection(p PartialIndex, datum Datum) *selection {
	if !idx.indexType.Supports(p) {
		panic(fmt.Sprintf("index: %s does not support %s selections", idx.indexType.Name, p))
	}
	// Fields outside the partial are zeroed so the pivot is the least matching datum.
	pivot := Datum{}
	switch p {
	case E:
		pivot.E = datum.E
	case EA, AE:
		pivot.E, pivot.A = datum.E, datum.A
	case A:
		pivot.A = datum.A
	case AV, VA:
		pivot.A, pivot.V = datum.A, datum.V
	case V:
		pivot.V = datum.V
	}
	return &selection{idx: idx, comparer: partialComparers[p], datum: pivot}
}

func (idx *BTreeIndex) Select(p PartialIndex, datum Datum) (iter *iterator.Iterator[Datum]) {
	iter = iterator.BuildIterator[Datum](idx.selection(p, datum))
	return
}

func (idx *BTreeIndex) First(p PartialIndex, datum Datum) (match Datum, extant bool) {
	idx.selection(p, datum).Each(func(d Datum) bool {
		match, extant = d, true
		return false
	})
	return
}

// Each calls accept with every datum in the index's order until it returns false.
func (idx *BTreeIndex) Each(accept iterator.Accept[Datum]) {
	idx.tree.Ascend(btree.ItemIteratorG[Datum](accept))
}
