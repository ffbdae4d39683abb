// Package database coordinates transactions over the datum indexes, the topograph,
// and the store.
package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dball/topograph/internal/index"
	"github.com/dball/topograph/internal/schema"
	"github.com/dball/topograph/internal/store"
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

// Config configures a database.
type Config struct {
	// Degree is the degree of the index btrees.
	Degree int
	// AttrsSize is the expected number of attributes. Zero sizes the topograph from
	// the stored datums.
	AttrsSize int
	// IdentsSize is the expected number of idents.
	IdentsSize int
	// Store selects the storage engine.
	Store store.Config
	// Logger receives transaction logs. Nil discards them.
	Logger *slog.Logger
	// Clock gives the time recorded on each transaction. Nil uses time.Now.
	Clock func() time.Time
}

// Response is the outcome of a write.
type Response struct {
	// ID is the id of the transaction, if it committed.
	ID ID
	// NewIDs are the ids allocated for the request's temp ids.
	NewIDs map[TempID]ID
	// Report lists the schema changes the transaction made.
	Report schema.Report
	// Snapshot is the database after the write, or as it was if the write failed.
	Snapshot *Snapshot
	// Error specifies why the request was rejected.
	Error error
}

// Database is a set of datums and the topograph that governs them. Writes are
// serialized; reads are snapshots that never observe a partial write.
type Database struct {
	eav index.Index
	aev index.Index
	ave index.Index
	vae index.Index

	topo   *schema.Topograph
	store  *store.Store
	logger *slog.Logger
	clock  func() time.Time

	lock   sync.RWMutex
	nextID ID
}

// Open opens the configured store, bootstrapping it if it is empty, and loads its datums.
func Open(cfg Config) (db *Database, err error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Store.Logger == nil {
		cfg.Store.Logger = logger
	}
	if cfg.Store.Degree == 0 {
		cfg.Store.Degree = cfg.Degree
	}
	engine, err := store.Open(cfg.Store)
	if err != nil {
		return
	}
	st := store.New(engine, logger)
	db, err = load(cfg, st, logger)
	if err != nil {
		st.Close()
		db = nil
	}
	return
}

func load(cfg Config, st *store.Store, logger *slog.Logger) (db *Database, err error) {
	_, err = st.Bootstrap(sys.Tx, sys.Datums, sys.FirstUserID)
	if err != nil {
		err = fmt.Errorf("bootstrap store: %w", err)
		return
	}
	datums, nextID, err := st.Load()
	if err != nil {
		return
	}
	identsSize, attrsSize := cfg.IdentsSize, cfg.AttrsSize
	if identsSize <= 0 {
		identsSize = len(datums) / 2
	}
	if attrsSize <= 0 {
		attrsSize = len(datums) / 4
	}
	topo, err := schema.FromDatums(datums, identsSize, attrsSize)
	if err != nil {
		err = fmt.Errorf("load topograph: %w", err)
		return
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	degree := cfg.Degree
	if degree < 2 {
		degree = 32
	}
	db = &Database{
		eav:    index.New(degree, index.EAVIndex),
		aev:    index.New(degree, index.AEVIndex),
		ave:    index.New(degree, index.AVEIndex),
		vae:    index.New(degree, index.VAEIndex),
		topo:   topo,
		store:  st,
		logger: logger,
		clock:  clock,
		nextID: nextID,
	}
	for _, datum := range datums {
		attr, ok := topo.LookupAttr(datum.A)
		if !ok {
			err = fmt.Errorf("load datums: %w", NewError(ErrUnknownAttr, "e", datum.A, "datum", datum))
			return
		}
		insert(db.eav, db.aev, db.ave, db.vae, datum, attr)
	}
	logger.Info("opened database", "datums", len(datums), "attrs", len(topo.Attrs()), "next-id", nextID)
	return
}

// Read returns a snapshot of the database.
func (db *Database) Read() (snapshot *Snapshot) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	snapshot = db.read()
	return
}

func (db *Database) read() *Snapshot {
	return &Snapshot{
		eav:  db.eav.Clone(),
		aev:  db.aev.Clone(),
		ave:  db.ave.Clone(),
		vae:  db.vae.Clone(),
		topo: db.topo,
	}
}

// Write atomically applies the claims in the request to the database.
func (db *Database) Write(req Request) (res Response) {
	started := time.Now()
	db.lock.Lock()
	defer db.lock.Unlock()
	w := db.newWriter()
	err := w.write(req)
	if err == nil {
		err = db.store.Commit(w.t, w.changes(), w.nextID, w.noHistory)
	}
	writeDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		res.Error = err
		var typed Error
		if errors.As(err, &typed) {
			transactionsTotal.WithLabelValues("rejected").Inc()
			db.logger.Warn("transaction rejected", "code", typed.Code, "error", err)
		} else {
			transactionsTotal.WithLabelValues("failed").Inc()
			db.logger.Error("transaction failed", "error", err)
		}
		res.Snapshot = db.read()
		return
	}
	db.eav, db.aev, db.ave, db.vae = w.eav, w.aev, w.ave, w.vae
	db.topo = w.topo
	db.nextID = w.nextID
	res.ID = w.t
	res.NewIDs = w.newIDs
	res.Report = w.report
	res.Snapshot = db.read()
	transactionsTotal.WithLabelValues("committed").Inc()
	schemaChangesTotal.WithLabelValues("installed").Add(float64(len(w.report.AttrsInstalled)))
	schemaChangesTotal.WithLabelValues("altered").Add(float64(len(w.report.AttrsAltered)))
	schemaChangesTotal.WithLabelValues("idents").Add(float64(len(w.report.IdentsAltered)))
	db.logger.Debug("transaction committed",
		"tx", w.t,
		"datums", len(w.changes()),
		"installed", len(w.report.AttrsInstalled),
		"altered", len(w.report.AttrsAltered),
		"idents", len(w.report.IdentsAltered),
	)
	return
}

// Log returns the datums asserted and retracted by the transaction.
func (db *Database) Log(t ID) ([]schema.Quad, error) {
	return db.store.Log(t)
}

// Close closes the store.
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	return db.store.Close()
}

// inAVE returns true if the attribute's datums are kept in the ave index.
func inAVE(attr Attr) bool {
	return attr.Index || attr.Unique != UniqueNone || attr.Type == TypeRef
}

// inVAE returns true if the attribute's datums are kept in the vae index.
func inVAE(attr Attr) bool {
	return attr.Type == TypeRef
}

func insert(eav index.Index, aev index.Index, ave index.Index, vae index.Index, datum Datum, attr Attr) {
	eav.Insert(datum)
	aev.Insert(datum)
	if inAVE(attr) {
		ave.Insert(datum)
	}
	if inVAE(attr) {
		vae.Insert(datum)
	}
}
