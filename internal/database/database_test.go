package database

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dball/topograph/internal/index"
	"github.com/dball/topograph/internal/schema"
	"github.com/dball/topograph/internal/store"
	"github.com/dball/topograph/internal/sys"
	. "github.com/dball/topograph/internal/types"
)

var now = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func clock() time.Time {
	return now
}

func open(t *testing.T, cfg Config) *Database {
	t.Helper()
	cfg.Clock = clock
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var people = []Declaration{
	{Ident: "person/name", Attr: Attr{Type: TypeString, Unique: UniqueIdentity, Index: true}, Doc: "The person's name"},
	{Ident: "person/age", Attr: Attr{Type: TypeInt}},
	{Ident: "person/friends", Attr: Attr{Type: TypeRef, Multival: true}},
	{Ident: "person/email", Attr: Attr{Type: TypeString, Unique: UniqueValue, Index: true}},
	{Ident: "person/address", Attr: Attr{Type: TypeRef, Component: true}},
	{Ident: "address/city", Attr: Attr{Type: TypeString}},
}

type fixture struct {
	db      *Database
	attrs   map[Ident]ID
	alice   ID
	bob     ID
	address ID
}

func newFixture(t *testing.T) (f fixture) {
	t.Helper()
	f.db = open(t, Config{})
	res := Declare(f.db, people...)
	require.NoError(t, res.Error)
	f.attrs = map[Ident]ID{}
	for _, decl := range people {
		f.attrs[decl.Ident] = res.NewIDs[TempID(decl.Ident)]
	}
	res = f.db.Write(Request{Claims: []*Claim{
		{E: TempID("alice"), A: Ident("person/name"), V: String("Alice")},
		{E: TempID("alice"), A: Ident("person/age"), V: Int(30)},
		{E: TempID("alice"), A: Ident("person/email"), V: String("alice@example.com")},
		{E: TempID("alice"), A: Ident("person/friends"), V: TempID("bob")},
		{E: TempID("alice"), A: Ident("person/address"), V: TempID("home")},
		{E: TempID("home"), A: Ident("address/city"), V: String("Oakland")},
		{E: TempID("bob"), A: Ident("person/name"), V: String("Bob")},
		{E: TempID("bob"), A: Ident("person/age"), V: Int(30)},
	}})
	require.NoError(t, res.Error)
	f.alice = res.NewIDs["alice"]
	f.bob = res.NewIDs["bob"]
	f.address = res.NewIDs["home"]
	return
}

func withoutTx(quads []schema.Quad) (filtered []schema.Quad) {
	for _, quad := range quads {
		if quad.A != sys.TxAt {
			filtered = append(filtered, quad)
		}
	}
	return
}

func TestOpen(t *testing.T) {
	db := open(t, Config{})
	snap := db.Read()
	assert.Equal(t, len(sys.Datums), snap.Len())
	e, ok := snap.ResolveIdent("sys/db/ident")
	assert.True(t, ok)
	assert.Equal(t, sys.DbIdent, e)
	assert.Len(t, snap.Describe(), 10)
	assert.Zero(t, snap.Entities())

	t.Run("sizes", func(t *testing.T) {
		for _, size := range []int{-1, 0, 1, 4096} {
			db := open(t, Config{IdentsSize: size, AttrsSize: size})
			assert.Equal(t, len(sys.Datums), db.Read().Len())
			assert.Len(t, db.Read().Describe(), 10)
		}
	})

	t.Run("unknown engine", func(t *testing.T) {
		_, err := Open(Config{Store: store.Config{Engine: "floppy"}})
		assert.ErrorIs(t, err, store.ErrUnknownEngine)
	})
}

func TestDeclare(t *testing.T) {
	db := open(t, Config{})
	res := Declare(db, people...)
	require.NoError(t, res.Error)
	assert.Len(t, res.Report.AttrsInstalled, len(people))
	name := res.NewIDs["person/name"]
	assert.GreaterOrEqual(t, name, sys.FirstUserID)
	snap := res.Snapshot
	ident, ok := snap.Ident(name)
	assert.True(t, ok)
	assert.Equal(t, Ident("person/name"), ident)
	doc, ok := snap.Value(name, sys.DbDoc)
	assert.True(t, ok)
	assert.Equal(t, String("The person's name"), doc)
	attr, ok := snap.Topograph().LookupAttr(name)
	assert.True(t, ok)
	assert.Equal(t, Attr{Type: TypeString, Unique: UniqueIdentity, Index: true}, attr)
	txAt, ok := snap.Value(res.ID, sys.TxAt)
	assert.True(t, ok)
	assert.Equal(t, Inst(now), txAt)

	t.Run("redeclaring is idempotent", func(t *testing.T) {
		again := Declare(db, people...)
		require.NoError(t, again.Error)
		assert.False(t, again.Report.AttrsChanged())
		assert.Equal(t, name, again.NewIDs["person/name"])
		assert.Equal(t, snap.Len()+1, again.Snapshot.Len())
	})

	t.Run("unique requires index", func(t *testing.T) {
		res := Declare(db, Declaration{Ident: "thing/code", Attr: Attr{Type: TypeString, Unique: UniqueValue}})
		assert.ErrorIs(t, res.Error, NewError(ErrUniqueWithoutIndex))
	})

	t.Run("identity and fulltext attrs are indexed", func(t *testing.T) {
		res := Declare(db,
			Declaration{Ident: "thing/key", Attr: Attr{Type: TypeString, Unique: UniqueIdentity}},
			Declaration{Ident: "thing/text", Attr: Attr{Type: TypeString, Fulltext: true}},
		)
		require.NoError(t, res.Error)
		key, ok := res.Snapshot.Topograph().LookupAttr(res.NewIDs["thing/key"])
		assert.True(t, ok)
		assert.Equal(t, Attr{Type: TypeString, Unique: UniqueIdentity, Index: true}, key)
		text, ok := res.Snapshot.Topograph().LookupAttr(res.NewIDs["thing/text"])
		assert.True(t, ok)
		assert.Equal(t, Attr{Type: TypeString, Fulltext: true, Index: true}, text)
	})
}

func TestWrite(t *testing.T) {
	f := newFixture(t)
	age := f.attrs["person/age"]
	friends := f.attrs["person/friends"]

	t.Run("resolves temp ids", func(t *testing.T) {
		snap := f.db.Read()
		v, ok := snap.Value(f.alice, age)
		assert.True(t, ok)
		assert.Equal(t, Int(30), v)
		assert.Equal(t, []Value{f.bob}, snap.Values(f.alice, friends))
		referrers := snap.Referrers(f.bob)
		require.Len(t, referrers, 1)
		assert.Equal(t, f.alice, referrers[0].E)
		e, ok := snap.Lookup(f.attrs["person/name"], String("Bob"))
		assert.True(t, ok)
		assert.Equal(t, f.bob, e)
		_, ok = snap.Lookup(age, Int(30))
		assert.False(t, ok)
	})

	t.Run("upserts unique identities", func(t *testing.T) {
		res := f.db.Write(Request{Claims: []*Claim{
			{E: TempID("someone"), A: Ident("person/name"), V: String("Alice")},
			{E: TempID("someone"), A: Ident("person/age"), V: Int(31)},
		}})
		require.NoError(t, res.Error)
		assert.Equal(t, f.alice, res.NewIDs["someone"])
		assert.Equal(t, []Value{Int(31)}, res.Snapshot.Values(f.alice, age))
		quads, err := f.db.Log(res.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []schema.Quad{
			{E: f.alice, A: age, V: Int(30), Added: false},
			{E: f.alice, A: age, V: Int(31), Added: true},
		}, withoutTx(quads))
	})

	t.Run("transaction entity", func(t *testing.T) {
		res := f.db.Write(Request{Claims: []*Claim{
			{E: TxnID{}, A: sys.DbDoc, V: String("imported")},
		}})
		require.NoError(t, res.Error)
		doc, ok := res.Snapshot.Value(res.ID, sys.DbDoc)
		assert.True(t, ok)
		assert.Equal(t, String("imported"), doc)
	})

	t.Run("asserting extant datums changes nothing", func(t *testing.T) {
		res := f.db.Write(Request{Claims: []*Claim{
			{E: f.alice, A: friends, V: f.bob},
		}})
		require.NoError(t, res.Error)
		quads, err := f.db.Log(res.ID)
		require.NoError(t, err)
		assert.Empty(t, withoutTx(quads))
	})

	t.Run("retracting then asserting cancels out", func(t *testing.T) {
		res := f.db.Write(Request{Claims: []*Claim{
			{E: f.alice, A: friends, V: f.bob, Retract: true},
			{E: f.alice, A: friends, V: f.bob},
		}})
		require.NoError(t, res.Error)
		quads, err := f.db.Log(res.ID)
		require.NoError(t, err)
		assert.Empty(t, withoutTx(quads))
		assert.Equal(t, []Value{f.bob}, res.Snapshot.Values(f.alice, friends))
		datum, ok := res.Snapshot.Find(f.alice, friends, f.bob)
		assert.True(t, ok)
		assert.NotEqual(t, res.ID, datum.T)
	})

	t.Run("retracts", func(t *testing.T) {
		res := f.db.Write(Request{Claims: []*Claim{
			{E: f.bob, A: Ident("person/age"), V: Int(30), Retract: true},
			{E: f.bob, A: Ident("person/age"), V: Int(99), Retract: true},
		}})
		require.NoError(t, res.Error)
		_, ok := res.Snapshot.Value(f.bob, age)
		assert.False(t, ok)
		quads, err := f.db.Log(res.ID)
		require.NoError(t, err)
		assert.Equal(t, []schema.Quad{{E: f.bob, A: age, V: Int(30)}}, withoutTx(quads))
	})

	t.Run("components", func(t *testing.T) {
		components := f.db.Read().Components(f.alice)
		require.Len(t, components, 1)
		assert.Equal(t, f.address, components[0].V)
		city, ok := f.db.Read().Value(f.address, f.attrs["address/city"])
		assert.True(t, ok)
		assert.Equal(t, String("Oakland"), city)
	})
}

func TestWriteRejections(t *testing.T) {
	f := newFixture(t)
	friends := f.attrs["person/friends"]
	tests := []struct {
		name   string
		claims []*Claim
		code   ErrorCode
	}{
		{"unallocated entity", []*Claim{{E: ID(1 << 40), A: friends, V: f.bob}}, ErrInvalidEntity},
		{"unknown entity ident", []*Claim{{E: Ident("nobody"), A: friends, V: f.bob}}, ErrInvalidEntity},
		{"retract temp id", []*Claim{{E: TempID("x"), A: friends, V: f.bob, Retract: true}}, ErrInvalidEntity},
		{"system entity", []*Claim{{E: sys.DbIdent, A: sys.DbDoc, V: String("mine")}}, ErrSystemEntity},
		{"system entity ident", []*Claim{{E: Ident("sys/db/ident"), A: sys.DbDoc, V: String("mine")}}, ErrSystemEntity},
		{"unknown attr", []*Claim{{E: f.alice, A: Ident("person/height"), V: Int(1)}}, ErrInvalidAttr},
		{"entity is not an attr", []*Claim{{E: f.alice, A: f.bob, V: Int(1)}}, ErrInvalidAttr},
		{"wrong value type", []*Claim{{E: f.alice, A: Ident("person/age"), V: String("old")}}, ErrInconsistentValue},
		{"temp id for a scalar", []*Claim{{E: f.alice, A: Ident("person/age"), V: TempID("x")}}, ErrInvalidClaimValue},
		{"unknown value ident", []*Claim{{E: f.alice, A: friends, V: Ident("nobody")}}, ErrInvalidClaimValue},
		{"unallocated value", []*Claim{{E: f.alice, A: friends, V: ID(1 << 40)}}, ErrInvalidClaimValue},
		{"nil value", []*Claim{{E: f.alice, A: friends}}, ErrInvalidClaimValue},
		{"reserved ident", []*Claim{
			{E: TempID("x"), A: sys.DbIdent, V: Keyword("sys/mine")},
		}, ErrReservedIdent},
		{"unique value held by another", []*Claim{
			{E: f.bob, A: Ident("person/email"), V: String("alice@example.com")},
		}, ErrUniqueConflict},
		{"unique value asserted twice", []*Claim{
			{E: TempID("c1"), A: Ident("person/name"), V: String("Carol")},
			{E: TempID("c2"), A: Ident("person/name"), V: String("Carol")},
			{E: TempID("c1"), A: Ident("person/email"), V: String("carol@example.com")},
			{E: TempID("c2"), A: Ident("person/email"), V: String("carol@example.com")},
		}, ErrUniqueConflict},
		{"temp id upserts to two entities", []*Claim{
			{E: TempID("x"), A: Ident("person/name"), V: String("Alice")},
			{E: TempID("x"), A: Ident("person/name"), V: String("Bob")},
		}, ErrUniqueConflict},
		{"two values for cardinality one", []*Claim{
			{E: f.alice, A: Ident("person/age"), V: Int(40)},
			{E: f.alice, A: Ident("person/age"), V: Int(41)},
		}, ErrCardinalityConflict},
		{"ident conflict", []*Claim{
			{E: f.alice, A: sys.DbIdent, V: Keyword("person/name")},
		}, ErrIdentConflict},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := f.db.Read()
			rejected := testutil.ToFloat64(transactionsTotal.WithLabelValues("rejected"))
			res := f.db.Write(Request{Claims: test.claims})
			assert.ErrorIs(t, res.Error, NewError(test.code))
			assert.Zero(t, res.ID)
			assert.Equal(t, before.Len(), res.Snapshot.Len())
			assert.Equal(t, before.Entity(f.alice), res.Snapshot.Entity(f.alice))
			assert.Equal(t, before.Topograph().Idents(), res.Snapshot.Topograph().Idents())
			assert.Equal(t, rejected+1, testutil.ToFloat64(transactionsTotal.WithLabelValues("rejected")))
		})
	}
}

func TestSchemaWrites(t *testing.T) {
	t.Run("indexing populates the ave index", func(t *testing.T) {
		f := newFixture(t)
		age := f.attrs["person/age"]
		assert.Empty(t, f.db.Read().Select(index.AV, Datum{A: age, V: Int(30)}).Drain())
		res := f.db.Write(Request{Claims: []*Claim{
			{E: Ident("person/age"), A: sys.AttrIndex, V: Bool(true)},
		}})
		require.NoError(t, res.Error)
		assert.Equal(t, []schema.Alteration{schema.AlterIndex}, res.Report.AttrsAltered[age])
		assert.Len(t, res.Snapshot.Select(index.AV, Datum{A: age, V: Int(30)}).Drain(), 2)

		res = f.db.Write(Request{Claims: []*Claim{
			{E: Ident("person/age"), A: sys.AttrIndex, V: Bool(false)},
		}})
		require.NoError(t, res.Error)
		assert.Empty(t, res.Snapshot.Select(index.AV, Datum{A: age, V: Int(30)}).Drain())
	})

	t.Run("unique alteration checks extant values", func(t *testing.T) {
		f := newFixture(t)
		res := f.db.Write(Request{Claims: []*Claim{
			{E: Ident("person/age"), A: sys.AttrIndex, V: Bool(true)},
			{E: Ident("person/age"), A: sys.AttrUnique, V: sys.AttrUniqueValue},
		}})
		assert.ErrorIs(t, res.Error, NewError(ErrUniqueConflict))

		res = f.db.Write(Request{Claims: []*Claim{
			{E: f.bob, A: Ident("person/age"), V: Int(31)},
			{E: Ident("person/age"), A: sys.AttrIndex, V: Bool(true)},
			{E: Ident("person/age"), A: sys.AttrUnique, V: sys.AttrUniqueValue},
		}})
		require.NoError(t, res.Error)
		e, ok := res.Snapshot.Lookup(f.attrs["person/age"], Int(31))
		assert.True(t, ok)
		assert.Equal(t, f.bob, e)
	})

	t.Run("cardinality alteration checks extant values", func(t *testing.T) {
		f := newFixture(t)
		res := f.db.Write(Request{Claims: []*Claim{
			{E: f.alice, A: Ident("person/friends"), V: f.alice},
			{E: Ident("person/friends"), A: sys.AttrCardinality, V: sys.AttrCardinalityOne},
		}})
		assert.ErrorIs(t, res.Error, NewError(ErrCardinalityConflict))

		res = f.db.Write(Request{Claims: []*Claim{
			{E: Ident("person/friends"), A: sys.AttrCardinality, V: sys.AttrCardinalityOne},
		}})
		require.NoError(t, res.Error)
		assert.Equal(t, []schema.Alteration{schema.AlterCardinality}, res.Report.AttrsAltered[f.attrs["person/friends"]])
	})

	t.Run("renames", func(t *testing.T) {
		f := newFixture(t)
		res := f.db.Write(Request{Claims: []*Claim{
			{E: Ident("person/age"), A: sys.DbIdent, V: Keyword("person/years")},
		}})
		require.NoError(t, res.Error)
		age := f.attrs["person/age"]
		assert.Equal(t, Ident("person/years"), res.Report.IdentsAltered[age])
		e, ok := res.Snapshot.ResolveIdent("person/years")
		assert.True(t, ok)
		assert.Equal(t, age, e)
		_, ok = res.Snapshot.ResolveIdent("person/age")
		assert.False(t, ok)
	})

	t.Run("swaps idents", func(t *testing.T) {
		f := newFixture(t)
		res := f.db.Write(Request{Claims: []*Claim{
			{E: Ident("person/age"), A: sys.DbIdent, V: Keyword("person/email")},
			{E: Ident("person/email"), A: sys.DbIdent, V: Keyword("person/age")},
		}})
		require.NoError(t, res.Error)
		e, _ := res.Snapshot.ResolveIdent("person/email")
		assert.Equal(t, f.attrs["person/age"], e)
	})

	t.Run("removes unused attrs", func(t *testing.T) {
		f := newFixture(t)
		res := Declare(f.db, Declaration{Ident: "temp/x", Attr: Attr{Type: TypeInt, Index: true, NoHistory: true}})
		require.NoError(t, res.Error)
		x := res.NewIDs["temp/x"]
		removal := []*Claim{
			{E: x, A: sys.DbIdent, V: Keyword("temp/x"), Retract: true},
			{E: x, A: sys.AttrType, V: sys.AttrTypeInt, Retract: true},
			{E: x, A: sys.AttrCardinality, V: sys.AttrCardinalityOne, Retract: true},
		}

		res = f.db.Write(Request{Claims: []*Claim{{E: f.alice, A: x, V: Int(1)}}})
		require.NoError(t, res.Error)
		res = f.db.Write(Request{Claims: removal})
		assert.ErrorIs(t, res.Error, NewError(ErrAttrInUse))

		res = f.db.Write(Request{Claims: []*Claim{{E: f.alice, A: x, V: Int(1), Retract: true}}})
		require.NoError(t, res.Error)
		res = f.db.Write(Request{Claims: removal})
		require.NoError(t, res.Error)
		assert.Equal(t, Ident("temp/x"), res.Report.IdentsAltered[x])
		assert.False(t, res.Snapshot.Topograph().IsAttr(x))
		_, ok := res.Snapshot.ResolveIdent("temp/x")
		assert.False(t, ok)
		assert.Empty(t, res.Snapshot.Entity(x))
		quads, err := f.db.Log(res.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []schema.Quad{
			{E: x, A: sys.DbIdent, V: Keyword("temp/x")},
			{E: x, A: sys.AttrType, V: sys.AttrTypeInt},
			{E: x, A: sys.AttrCardinality, V: sys.AttrCardinalityOne},
			{E: x, A: sys.AttrIndex, V: Bool(true)},
			{E: x, A: sys.AttrNoHistory, V: Bool(true)},
		}, withoutTx(quads))
	})

	t.Run("value type may not change", func(t *testing.T) {
		f := newFixture(t)
		res := f.db.Write(Request{Claims: []*Claim{
			{E: Ident("person/age"), A: sys.AttrType, V: sys.AttrTypeString},
		}})
		assert.ErrorIs(t, res.Error, NewError(ErrAlterValueType))
	})
}

func TestPersistence(t *testing.T) {
	for _, engine := range []string{"leveldb", "bolt", "badger"} {
		t.Run(engine, func(t *testing.T) {
			cfg := Config{Store: store.Config{Engine: engine, Path: t.TempDir()}, Clock: clock}
			db, err := Open(cfg)
			require.NoError(t, err)
			res := Declare(db, append(people, Declaration{Ident: "person/born", Attr: Attr{Type: TypeInst}})...)
			require.NoError(t, res.Error)
			name := res.NewIDs["person/name"]
			born := res.NewIDs["person/born"]
			birth := time.Date(1990, 5, 6, 7, 8, 9, 10, time.FixedZone("PDT", -7*60*60))
			res = db.Write(Request{Claims: []*Claim{
				{E: TempID("alice"), A: name, V: String("Alice")},
				{E: TempID("alice"), A: born, V: Inst(birth)},
				{E: Ident("person/age"), A: sys.AttrIndex, V: Bool(true)},
			}})
			require.NoError(t, res.Error)
			alice := res.NewIDs["alice"]
			v, ok := res.Snapshot.Value(alice, born)
			assert.True(t, ok)
			assert.Equal(t, Inst(birth.UTC()), v)
			last := res.ID
			count := res.Snapshot.Len()
			require.NoError(t, db.Close())

			db, err = Open(cfg)
			require.NoError(t, err)
			defer func() { db.Close() }()
			snap := db.Read()
			assert.Equal(t, count, snap.Len())
			e, ok := snap.Lookup(name, String("Alice"))
			assert.True(t, ok)
			assert.Equal(t, alice, e)
			age, ok := snap.ResolveIdent("person/age")
			assert.True(t, ok)
			attr, ok := snap.Topograph().LookupAttr(age)
			assert.True(t, ok)
			assert.True(t, attr.Index)
			txAt, ok := snap.Value(last, sys.TxAt)
			assert.True(t, ok)
			assert.Equal(t, Inst(now), txAt)
			v, ok = snap.Value(alice, born)
			assert.True(t, ok)
			assert.Equal(t, Inst(birth.UTC()), v)
			_, ok = snap.Find(alice, born, Inst(birth))
			assert.True(t, ok)

			res = db.Write(Request{Claims: []*Claim{
				{E: TempID("bob"), A: name, V: String("Bob")},
			}})
			require.NoError(t, res.Error)
			assert.Greater(t, res.ID, alice)

			res = db.Write(Request{Claims: []*Claim{
				{E: age, A: sys.DbIdent, V: Keyword("person/age"), Retract: true},
				{E: age, A: sys.AttrType, V: sys.AttrTypeInt, Retract: true},
				{E: age, A: sys.AttrCardinality, V: sys.AttrCardinalityOne, Retract: true},
			}})
			require.NoError(t, res.Error)
			require.NoError(t, db.Close())

			db, err = Open(cfg)
			require.NoError(t, err)
			snap = db.Read()
			assert.False(t, snap.Topograph().IsAttr(age))
			assert.Empty(t, snap.Entity(age))
			res = Declare(db, Declaration{Ident: "person/age", Attr: Attr{Type: TypeInt}})
			require.NoError(t, res.Error)
			age, ok = res.Snapshot.ResolveIdent("person/age")
			assert.True(t, ok)
			attr, ok = res.Snapshot.Topograph().LookupAttr(age)
			assert.True(t, ok)
			assert.False(t, attr.Index)
		})
	}
}
