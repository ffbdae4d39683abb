package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/dball/topograph/internal/iterator"
)

// Memory is an engine that keeps its keys in a btree. Nothing survives Close.
type Memory struct {
	lock sync.RWMutex
	tree *btree.BTreeG[KV]
}

var _ Engine = &Memory{}

func lessKV(x KV, y KV) bool {
	return bytes.Compare(x.Key, y.Key) < 0
}

// NewMemory returns an empty memory engine with the given btree degree.
func NewMemory(degree int) *Memory {
	if degree < 2 {
		degree = 32
	}
	return &Memory{tree: btree.NewG(degree, lessKV)}
}

func getTree(tree *btree.BTreeG[KV], key []byte) (value []byte, err error) {
	kv, ok := tree.Get(KV{Key: key})
	if ok {
		value = bytes.Clone(kv.Value)
	}
	return
}

func scanTree(tree *btree.BTreeG[KV], start []byte, end []byte, accept iterator.Accept[KV]) (err error) {
	tree.AscendGreaterOrEqual(KV{Key: start}, func(kv KV) bool {
		if !inRange(kv.Key, end) {
			return false
		}
		return accept(kv)
	})
	return
}

func (mem *Memory) Get(key []byte) (value []byte, err error) {
	mem.lock.RLock()
	defer mem.lock.RUnlock()
	return getTree(mem.tree, key)
}

func (mem *Memory) Scan(start []byte, end []byte, accept iterator.Accept[KV]) (err error) {
	return scanTree(mem.clone(), start, end, accept)
}

func (mem *Memory) Write(batch *Batch) (err error) {
	mem.lock.Lock()
	defer mem.lock.Unlock()
	for _, op := range batch.Ops {
		if op.Value == nil {
			mem.tree.Delete(KV{Key: op.Key})
		} else {
			mem.tree.ReplaceOrInsert(KV{Key: op.Key, Value: op.Value})
		}
	}
	return
}

type memorySnapshot struct {
	tree *btree.BTreeG[KV]
}

func (snap *memorySnapshot) Get(key []byte) ([]byte, error) {
	return getTree(snap.tree, key)
}

func (snap *memorySnapshot) Scan(start []byte, end []byte, accept iterator.Accept[KV]) error {
	return scanTree(snap.tree, start, end, accept)
}

func (snap *memorySnapshot) Close() error {
	return nil
}

func (mem *Memory) Snapshot() (Snapshot, error) {
	return &memorySnapshot{tree: mem.clone()}, nil
}

// clone takes the write lock because cloning a btree changes its copy-on-write context.
func (mem *Memory) clone() *btree.BTreeG[KV] {
	mem.lock.Lock()
	defer mem.lock.Unlock()
	return mem.tree.Clone()
}

func (mem *Memory) Close() error {
	mem.lock.Lock()
	defer mem.lock.Unlock()
	mem.tree.Clear(false)
	return nil
}
