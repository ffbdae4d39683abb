// Package store persists datums in an ordered key-value engine.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dball/topograph/internal/iterator"
)

// ErrUnknownEngine is returned for an engine name Open does not recognize.
var ErrUnknownEngine = errors.New("unknown store engine")

// KV is a key and its value.
type KV struct {
	Key   []byte
	Value []byte
}

// Reader reads keys from an engine.
type Reader interface {
	// Get returns the value of the key, or nil if the key is absent.
	// The caller owns the bytes returned.
	Get(key []byte) (value []byte, err error)
	// Scan calls accept with the pairs whose keys are >= start and < end, in ascending
	// key order, until accept returns false. A nil end is unbounded. The bytes given
	// to accept are only valid for the duration of the call.
	Scan(start []byte, end []byte, accept iterator.Accept[KV]) error
}

// Snapshot is an isolated reader. Writes made after the snapshot is opened are not
// observed. Snapshots must be closed.
type Snapshot interface {
	Reader
	Close() error
}

// Engine is an ordered key-value store.
type Engine interface {
	Reader
	// Write applies the batch atomically.
	Write(batch *Batch) error
	Snapshot() (Snapshot, error)
	Close() error
}

// Operation is a set or, with a nil value, a delete of a key.
type Operation struct {
	Key   []byte
	Value []byte
}

// Batch is a list of operations applied atomically in order.
type Batch struct {
	Ops []Operation
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{Ops: make([]Operation, 0, 64)}
}

// Set records the key's value. The key and value may be reused once this returns.
func (b *Batch) Set(key []byte, value []byte) {
	b.Ops = append(b.Ops, Operation{Key: bytes.Clone(key), Value: bytes.Clone(value)})
}

// Delete records the key's removal. The key may be reused once this returns.
func (b *Batch) Delete(key []byte) {
	b.Ops = append(b.Ops, Operation{Key: bytes.Clone(key)})
}

// Len returns the number of operations.
func (b *Batch) Len() int {
	return len(b.Ops)
}

// Config selects and configures an engine.
type Config struct {
	// Engine is one of memory, badger, leveldb, or bolt.
	Engine string
	// Path is the file or directory of a persistent engine.
	Path string
	// SyncWrites flushes each write to disk before it returns.
	SyncWrites bool
	// Degree is the btree degree of the memory engine.
	Degree int
	// Logger receives engine logs. Nil disables them.
	Logger *slog.Logger
}

// Open opens the configured engine.
func Open(cfg Config) (engine Engine, err error) {
	switch cfg.Engine {
	case "", "memory":
		engine = NewMemory(cfg.Degree)
	case "badger":
		engine, err = OpenBadger(cfg)
	case "leveldb":
		engine, err = OpenLevelDB(cfg)
	case "bolt":
		engine, err = OpenBolt(cfg)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
	return
}

// inRange returns true if the key is less than the end, or the end is nil.
func inRange(key []byte, end []byte) bool {
	return end == nil || bytes.Compare(key, end) < 0
}
