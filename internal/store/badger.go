package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/dball/topograph/internal/iterator"
)

// Badger is an engine backed by a badger database.
type Badger struct {
	db *badger.DB
}

var _ Engine = &Badger{}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens a badger database in the configured directory, creating it if
// necessary. An empty path opens an in-memory database.
func OpenBadger(cfg Config) (engine *Badger, err error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err = os.MkdirAll(cfg.Path, 0750); err != nil {
			err = fmt.Errorf("create badger directory %s: %w", cfg.Path, err)
			return
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger.With("engine", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		err = fmt.Errorf("open badger database: %w", err)
		return
	}
	engine = &Badger{db: db}
	return
}

func badgerGet(txn *badger.Txn, key []byte) (value []byte, err error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		err = nil
		return
	}
	if err != nil {
		return
	}
	value, err = item.ValueCopy(nil)
	return
}

func badgerScan(txn *badger.Txn, start []byte, end []byte, accept iterator.Accept[KV]) (err error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(start); it.Valid(); it.Next() {
		item := it.Item()
		key := item.Key()
		if !inRange(key, end) {
			return
		}
		var value []byte
		value, err = item.ValueCopy(nil)
		if err != nil {
			return
		}
		if !accept(KV{Key: key, Value: value}) {
			return
		}
	}
	return
}

func (engine *Badger) Get(key []byte) (value []byte, err error) {
	err = engine.db.View(func(txn *badger.Txn) (err error) {
		value, err = badgerGet(txn, key)
		return
	})
	return
}

func (engine *Badger) Scan(start []byte, end []byte, accept iterator.Accept[KV]) error {
	return engine.db.View(func(txn *badger.Txn) error {
		return badgerScan(txn, start, end, accept)
	})
}

func (engine *Badger) Write(batch *Batch) error {
	return engine.db.Update(func(txn *badger.Txn) (err error) {
		for _, op := range batch.Ops {
			if op.Value == nil {
				err = txn.Delete(op.Key)
			} else {
				err = txn.Set(op.Key, op.Value)
			}
			if err != nil {
				return
			}
		}
		return
	})
}

type badgerSnapshot struct {
	txn *badger.Txn
}

func (snap *badgerSnapshot) Get(key []byte) ([]byte, error) {
	return badgerGet(snap.txn, key)
}

func (snap *badgerSnapshot) Scan(start []byte, end []byte, accept iterator.Accept[KV]) error {
	return badgerScan(snap.txn, start, end, accept)
}

func (snap *badgerSnapshot) Close() error {
	snap.txn.Discard()
	return nil
}

func (engine *Badger) Snapshot() (Snapshot, error) {
	return &badgerSnapshot{txn: engine.db.NewTransaction(false)}, nil
}

func (engine *Badger) Close() error {
	return engine.db.Close()
}
