// Package database contains the public database types and functions for topograph.
package database

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/dball/topograph/internal/database"
	"github.com/dball/topograph/internal/schema"
	"github.com/dball/topograph/internal/store"
	"github.com/dball/topograph/internal/structs/assemblers"
	"github.com/dball/topograph/internal/structs/models"
	"github.com/dball/topograph/internal/structs/schemas"
	"github.com/dball/topograph/internal/structs/shredder"
	"github.com/dball/topograph/internal/types"
)

type (
	ID          = types.ID
	Ident       = types.Ident
	TempID      = types.TempID
	TxnID       = types.TxnID
	Keyword     = types.Keyword
	String      = types.String
	Int         = types.Int
	Bool        = types.Bool
	Float       = types.Float
	Inst        = types.Inst
	UUID        = types.UUID
	Attr        = types.Attr
	Claim       = types.Claim
	Request     = types.Request
	Error       = types.Error
	ErrorCode   = types.ErrorCode
	Response    = database.Response
	Snapshot    = database.Snapshot
	Declaration = database.Declaration
	// Quad is a triple asserted, if Added, or retracted by a transaction.
	Quad = schema.Quad
	// Document lists structs to assert or retract.
	Document = shredder.Document
)

// analyzer caches the struct models of all databases.
var analyzer = models.BuildCachingAnalyzer()

// HasCode returns true if the error is an Error with the code.
func HasCode(err error, code ErrorCode) bool {
	return types.HasCode(err, code)
}

// Config configures a database. Zero fields take their defaults.
type Config struct {
	Degree     int
	AttrsSize  int
	IdentsSize int
	// Engine is one of memory, badger, leveldb, or bolt.
	Engine     string
	Path       string
	SyncWrites bool
	Logger     *slog.Logger
}

var defaultConfig Config = Config{
	Degree:     64,
	AttrsSize:  256,
	IdentsSize: 1024,
	Engine:     "memory",
}

// Database is a mutable set of data.
type Database struct {
	db *database.Database
}

// Open opens a database.
func Open(config Config) (*Database, error) {
	degree := config.Degree
	if degree == 0 {
		degree = defaultConfig.Degree
	}
	attrsSize := config.AttrsSize
	if attrsSize == 0 {
		attrsSize = defaultConfig.AttrsSize
	}
	identsSize := config.IdentsSize
	if identsSize == 0 {
		identsSize = defaultConfig.IdentsSize
	}
	engine := config.Engine
	if engine == "" {
		engine = defaultConfig.Engine
	}
	db, err := database.Open(database.Config{
		Degree:     degree,
		AttrsSize:  attrsSize,
		IdentsSize: identsSize,
		Logger:     config.Logger,
		Store: store.Config{
			Engine:     engine,
			Path:       config.Path,
			SyncWrites: config.SyncWrites,
			Degree:     degree,
			Logger:     config.Logger,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}

// Read returns an immutable snapshot of data.
func (db *Database) Read() *Snapshot {
	return db.db.Read()
}

// Write atomically applies the claims in the request to the database.
func (db *Database) Write(req Request) Response {
	return db.db.Write(req)
}

// Declare installs the attributes in one transaction.
func (db *Database) Declare(decls ...Declaration) Response {
	return database.Declare(db.db, decls...)
}

// DeclareStructs installs the attributes bound to the fields of the structs, given as
// values or pointers, in one transaction.
func (db *Database) DeclareStructs(structs ...any) (res Response) {
	typs := make([]reflect.Type, len(structs))
	for i, s := range structs {
		typ := reflect.TypeOf(s)
		if typ != nil && typ.Kind() == reflect.Pointer {
			typ = typ.Elem()
		}
		if typ == nil {
			res.Error = fmt.Errorf("declare structs: nil at %d", i)
			return
		}
		typs[i] = typ
	}
	claims, err := schemas.Claims(analyzer, typs...)
	if err != nil {
		res.Error = err
		return
	}
	res = db.db.Write(Request{Claims: claims})
	return
}

// WriteStructs atomically asserts and retracts the attribute fields of the structs in
// the document. If the write succeeds, the id fields of the asserted struct pointers
// are populated with their entity ids, and IDs holds the entity ids of the assertions
// in order.
func (db *Database) WriteStructs(doc Document) (res Response, ids []ID) {
	confetti, err := shredder.Shred(analyzer, doc)
	if err != nil {
		res.Error = err
		return
	}
	res = db.db.Write(Request{Claims: confetti.Claims})
	if res.Error != nil {
		return
	}
	for tempID, ptr := range confetti.Pointers {
		model, err := analyzer.Analyze(ptr.Elem().Type())
		if err != nil || model.IDField < 0 {
			continue
		}
		ptr.Elem().Field(model.IDField).SetUint(uint64(res.NewIDs[tempID]))
	}
	ids = make([]ID, len(confetti.Entities))
	for i, e := range confetti.Entities {
		switch x := e.(type) {
		case ID:
			ids[i] = x
		case TempID:
			ids[i] = res.NewIDs[x]
		}
	}
	return
}

// TypedSnapshot builds instances of a struct type from a snapshot.
type TypedSnapshot[T any] struct {
	snap *Snapshot
}

// Typed returns a typed view of the snapshot.
func Typed[T any](snap *Snapshot) TypedSnapshot[T] {
	return TypedSnapshot[T]{snap: snap}
}

// Find assembles the entity into a new instance. Found is false if the entity has no
// datums.
func (ts TypedSnapshot[T]) Find(id ID) (entity *T, found bool, err error) {
	entity = new(T)
	found, err = assemblers.Assemble(analyzer, ts.snap, id, entity)
	if err != nil || !found {
		entity = nil
	}
	return
}

// Lookup assembles the entity with the unique attribute value.
func (ts TypedSnapshot[T]) Lookup(ident Ident, v any) (entity *T, found bool, err error) {
	a, ok := ts.snap.ResolveIdent(ident)
	if !ok {
		return
	}
	vref, ok := types.ToVRef(v)
	if !ok {
		return
	}
	value, ok := vref.(types.Value)
	if !ok {
		return
	}
	e, ok := ts.snap.Lookup(a, value)
	if !ok {
		return
	}
	return ts.Find(e)
}

// Log returns the triples asserted and retracted by the transaction.
func (db *Database) Log(t ID) ([]Quad, error) {
	return db.db.Log(t)
}

// Close closes the database.
func (db *Database) Close() error {
	return db.db.Close()
}
