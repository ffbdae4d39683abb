package store

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dball/topograph/internal/schema"
	. "github.com/dball/topograph/internal/types"
)

// Store keeps the current datums, the transaction log, and the id allocator in an engine.
type Store struct {
	engine Engine
	logger *slog.Logger
}

// New returns a store over the engine. A nil logger discards.
func New(engine Engine, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{engine: engine, logger: logger}
}

// Bootstrap writes the datums in transaction t and sets the id allocator, unless the
// store has already been bootstrapped.
func (s *Store) Bootstrap(t ID, datums []Datum, nextID ID) (bootstrapped bool, err error) {
	value, err := s.engine.Get(nextIDKey)
	if err != nil || value != nil {
		return
	}
	quads := make([]schema.Quad, len(datums))
	for i, datum := range datums {
		quads[i] = schema.Quad{E: datum.E, A: datum.A, V: datum.V, Added: true}
	}
	err = s.Commit(t, quads, nextID, nil)
	if err != nil {
		return
	}
	bootstrapped = true
	s.logger.Info("bootstrapped store", "datums", len(datums))
	return
}

// Commit writes the quads of transaction t and the next id atomically. Retractions of
// attributes for which noHistory returns true are left out of the transaction log.
func (s *Store) Commit(t ID, quads []schema.Quad, nextID ID, noHistory func(a ID) bool) (err error) {
	batch := NewBatch()
	tv := appendID(nil, t)
	for _, quad := range quads {
		key := datumKey(quad.E, quad.A, quad.V)
		if quad.Added {
			batch.Set(key, tv)
			batch.Set(logKey(t, quad.E, quad.A, quad.V), []byte{1})
			continue
		}
		batch.Delete(key)
		if noHistory == nil || !noHistory(quad.A) {
			batch.Set(logKey(t, quad.E, quad.A, quad.V), []byte{0})
		}
	}
	batch.Set(nextIDKey, appendID(nil, nextID))
	err = s.engine.Write(batch)
	if err != nil {
		err = fmt.Errorf("commit tx %d: %w", t, err)
		return
	}
	s.logger.Debug("committed", "tx", t, "ops", batch.Len())
	return
}

func scanDatums(reader Reader, prefix []byte) (datums []Datum, err error) {
	var derr error
	err = reader.Scan(prefix, prefixEnd(prefix), func(kv KV) bool {
		var datum Datum
		datum, derr = decodeDatum(kv)
		if derr != nil {
			return false
		}
		datums = append(datums, datum)
		return true
	})
	if err == nil {
		err = derr
	}
	return
}

func readNextID(reader Reader) (nextID ID, err error) {
	value, err := reader.Get(nextIDKey)
	if err != nil || value == nil {
		return
	}
	nextID, _, err = readID(value)
	return
}

// Load returns the current datums and the next id from a consistent snapshot. The next
// id is zero if the store has not been bootstrapped.
func (s *Store) Load() (datums []Datum, nextID ID, err error) {
	snap, err := s.engine.Snapshot()
	if err != nil {
		err = fmt.Errorf("open snapshot: %w", err)
		return
	}
	defer snap.Close()
	nextID, err = readNextID(snap)
	if err != nil {
		err = fmt.Errorf("read next id: %w", err)
		return
	}
	datums, err = scanDatums(snap, []byte{datumPrefix})
	if err != nil {
		err = fmt.Errorf("load datums: %w", err)
	}
	return
}

// Log returns the quads of transaction t as they were recorded.
func (s *Store) Log(t ID) (quads []schema.Quad, err error) {
	prefix := txPrefix(t)
	var derr error
	err = s.engine.Scan(prefix, prefixEnd(prefix), func(kv KV) bool {
		var quad schema.Quad
		quad.E, quad.A, quad.V, derr = readEAV(kv.Key[len(prefix):])
		if derr != nil {
			return false
		}
		quad.Added = len(kv.Value) == 1 && kv.Value[0] == 1
		quads = append(quads, quad)
		return true
	})
	if err == nil {
		err = derr
	}
	return
}

// Close closes the engine.
func (s *Store) Close() error {
	return s.engine.Close()
}
