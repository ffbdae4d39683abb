package store

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/dball/topograph/internal/iterator"
)

var boltBucket = []byte("topograph")

// Bolt is an engine backed by a single bucket of a bolt database file.
type Bolt struct {
	db *bolt.DB
}

var _ Engine = &Bolt{}

// OpenBolt opens the bolt database file at the configured path, creating it if necessary.
func OpenBolt(cfg Config) (engine *Bolt, err error) {
	if cfg.Path == "" {
		err = errors.New("path is required for a bolt store")
		return
	}
	db, err := bolt.Open(cfg.Path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		err = fmt.Errorf("open bolt database: %w", err)
		return
	}
	db.NoSync = !cfg.SyncWrites
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		err = fmt.Errorf("create bolt bucket: %w", err)
		return
	}
	engine = &Bolt{db: db}
	return
}

func boltGet(tx *bolt.Tx, key []byte) []byte {
	v := tx.Bucket(boltBucket).Get(key)
	if v == nil {
		return nil
	}
	return bytes.Clone(v)
}

func boltScan(tx *bolt.Tx, start []byte, end []byte, accept iterator.Accept[KV]) {
	cursor := tx.Bucket(boltBucket).Cursor()
	for k, v := cursor.Seek(start); k != nil && inRange(k, end); k, v = cursor.Next() {
		if !accept(KV{Key: k, Value: v}) {
			return
		}
	}
}

func (engine *Bolt) Get(key []byte) (value []byte, err error) {
	err = engine.db.View(func(tx *bolt.Tx) error {
		value = boltGet(tx, key)
		return nil
	})
	return
}

func (engine *Bolt) Scan(start []byte, end []byte, accept iterator.Accept[KV]) error {
	return engine.db.View(func(tx *bolt.Tx) error {
		boltScan(tx, start, end, accept)
		return nil
	})
}

func (engine *Bolt) Write(batch *Batch) error {
	return engine.db.Update(func(tx *bolt.Tx) (err error) {
		bucket := tx.Bucket(boltBucket)
		for _, op := range batch.Ops {
			if op.Value == nil {
				err = bucket.Delete(op.Key)
			} else {
				err = bucket.Put(op.Key, op.Value)
			}
			if err != nil {
				return
			}
		}
		return
	})
}

type boltSnapshot struct {
	tx *bolt.Tx
}

func (snap *boltSnapshot) Get(key []byte) ([]byte, error) {
	return boltGet(snap.tx, key), nil
}

func (snap *boltSnapshot) Scan(start []byte, end []byte, accept iterator.Accept[KV]) error {
	boltScan(snap.tx, start, end, accept)
	return nil
}

func (snap *boltSnapshot) Close() error {
	return snap.tx.Rollback()
}

func (engine *Bolt) Snapshot() (Snapshot, error) {
	tx, err := engine.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &boltSnapshot{tx: tx}, nil
}

func (engine *Bolt) Close() error {
	return engine.db.Close()
}
