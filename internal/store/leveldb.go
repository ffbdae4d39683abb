package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/dball/topograph/internal/iterator"
)

// LevelDB is an engine backed by a leveldb database.
type LevelDB struct {
	db   *leveldb.DB
	sync bool
}

var _ Engine = &LevelDB{}

// OpenLevelDB opens a leveldb database in the configured directory, creating it if
// necessary.
func OpenLevelDB(cfg Config) (engine *LevelDB, err error) {
	if cfg.Path == "" {
		err = errors.New("path is required for a leveldb store")
		return
	}
	if err = os.MkdirAll(cfg.Path, 0700); err != nil {
		err = fmt.Errorf("create leveldb directory %s: %w", cfg.Path, err)
		return
	}
	db, err := leveldb.OpenFile(cfg.Path, &opt.Options{
		Filter:      filter.NewBloomFilter(10), // 10 bits/key
		WriteBuffer: 1 << 22,                   // 4MiB
	})
	if err != nil {
		err = fmt.Errorf("open leveldb database: %w", err)
		return
	}
	engine = &LevelDB{db: db, sync: cfg.SyncWrites}
	return
}

type leveldbIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

func levelGet(get func(key []byte, ro *opt.ReadOptions) ([]byte, error), key []byte) (value []byte, err error) {
	value, err = get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		value, err = nil, nil
	}
	return
}

func levelScan(iter leveldbIterator, accept iterator.Accept[KV]) (err error) {
	defer iter.Release()
	for iter.Next() {
		if !accept(KV{Key: iter.Key(), Value: iter.Value()}) {
			break
		}
	}
	err = iter.Error()
	return
}

func (engine *LevelDB) Get(key []byte) ([]byte, error) {
	return levelGet(engine.db.Get, key)
}

func (engine *LevelDB) Scan(start []byte, end []byte, accept iterator.Accept[KV]) error {
	return levelScan(engine.db.NewIterator(&util.Range{Start: start, Limit: end}, nil), accept)
}

func (engine *LevelDB) Write(batch *Batch) error {
	b := new(leveldb.Batch)
	for _, op := range batch.Ops {
		if op.Value == nil {
			b.Delete(op.Key)
		} else {
			b.Put(op.Key, op.Value)
		}
	}
	return engine.db.Write(b, &opt.WriteOptions{Sync: engine.sync})
}

type leveldbSnapshot struct {
	snap *leveldb.Snapshot
}

func (snap *leveldbSnapshot) Get(key []byte) ([]byte, error) {
	return levelGet(snap.snap.Get, key)
}

func (snap *leveldbSnapshot) Scan(start []byte, end []byte, accept iterator.Accept[KV]) error {
	return levelScan(snap.snap.NewIterator(&util.Range{Start: start, Limit: end}, nil), accept)
}

func (snap *leveldbSnapshot) Close() error {
	snap.snap.Release()
	return nil
}

func (engine *LevelDB) Snapshot() (Snapshot, error) {
	snap, err := engine.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return &leveldbSnapshot{snap: snap}, nil
}

func (engine *LevelDB) Close() error {
	return engine.db.Close()
}
