package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dball/topograph/internal/types"
)

func TestDatabase(t *testing.T) {
	type Book struct {
		ID    uint64 `attr:"sys/db/id"`
		Title string `attr:"book/title,identity"`
	}
	type Person struct {
		ID    uint64 `attr:"sys/db/id"`
		Name  string `attr:"person/name,identity"`
		Books []Book `attr:"person/books"`
	}

	db, err := Open(Config{})
	require.NoError(t, err)
	defer db.Close()

	res := db.DeclareStructs(&Person{})
	require.NoError(t, res.Error)
	assert.Len(t, res.Report.AttrsInstalled, 3)

	t.Run("redeclaring changes nothing", func(t *testing.T) {
		res := db.DeclareStructs(Person{}, Book{})
		require.NoError(t, res.Error)
		assert.False(t, res.Report.AttrsChanged())
	})

	t.Run("write and read", func(t *testing.T) {
		res := db.Write(Request{Claims: []*Claim{
			{E: TempID("donald"), A: Ident("person/name"), V: String("Donald")},
			{E: TempID("donald"), A: Ident("person/books"), V: TempID("book")},
			{E: TempID("book"), A: Ident("book/title"), V: String("Dune")},
		}})
		require.NoError(t, res.Error)
		donald := res.NewIDs["donald"]
		book := res.NewIDs["book"]
		snap := db.Read()
		title, _ := snap.ResolveIdent("book/title")
		e, ok := snap.Lookup(title, String("Dune"))
		assert.True(t, ok)
		assert.Equal(t, book, e)
		books, _ := snap.ResolveIdent("person/books")
		assert.Equal(t, []types.Value{book}, snap.Values(donald, books))

		quads, err := db.Log(res.ID)
		require.NoError(t, err)
		assert.Len(t, quads, 4)
		for _, quad := range quads {
			assert.True(t, quad.Added)
		}

		res = db.Write(Request{Claims: []*Claim{
			{E: book, A: Ident("book/title"), V: String("Dune"), Retract: true},
		}})
		require.NoError(t, res.Error)
		quads, err = db.Log(res.ID)
		require.NoError(t, err)
		assert.Contains(t, quads, Quad{E: book, A: title, V: String("Dune")})
		for _, quad := range quads {
			if quad.A == title {
				assert.False(t, quad.Added)
			}
		}
		_, ok = db.Read().Lookup(title, String("Dune"))
		assert.False(t, ok)
	})

	t.Run("structs", func(t *testing.T) {
		ada := &Person{Name: "Ada", Books: []Book{{Title: "Emma"}}}
		res, ids := db.WriteStructs(Document{Assertions: []any{ada}})
		require.NoError(t, res.Error)
		assert.NotZero(t, ada.ID)
		assert.Equal(t, []ID{ID(ada.ID)}, ids)

		people := Typed[Person](db.Read())
		found, ok, err := people.Find(ID(ada.ID))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Ada", found.Name)
		require.Len(t, found.Books, 1)
		assert.Equal(t, "Emma", found.Books[0].Title)
		assert.NotZero(t, found.Books[0].ID)

		byName, ok, err := people.Lookup("person/name", "Ada")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ada.ID, byName.ID)

		_, ok, err = people.Find(ID(1 << 40))
		require.NoError(t, err)
		assert.False(t, ok)

		again := &Person{Name: "Ada"}
		res, ids = db.WriteStructs(Document{Assertions: []any{again}})
		require.NoError(t, res.Error)
		assert.Equal(t, ada.ID, again.ID)
		assert.Equal(t, []ID{ID(ada.ID)}, ids)

		res, _ = db.WriteStructs(Document{Retractions: []any{Person{ID: ada.ID, Name: "Ada"}}})
		require.NoError(t, res.Error)
		found, ok, err = Typed[Person](res.Snapshot).Find(ID(ada.ID))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, found.Name)
		assert.Len(t, found.Books, 1)
	})

	t.Run("rejects bad claims", func(t *testing.T) {
		res := db.Write(Request{Claims: []*Claim{
			{E: TempID("x"), A: Ident("person/name"), V: Int(7)},
		}})
		assert.True(t, HasCode(res.Error, types.ErrInconsistentValue))
	})

	t.Run("rejects non-structs", func(t *testing.T) {
		res := db.DeclareStructs("person")
		assert.Error(t, res.Error)
		res = db.DeclareStructs(nil)
		assert.Error(t, res.Error)
	})

	t.Run("declare", func(t *testing.T) {
		res := db.Declare(Declaration{Ident: "person/age", Attr: Attr{Type: types.TypeInt}})
		require.NoError(t, res.Error)
		assert.Len(t, res.Report.AttrsInstalled, 1)
	})
}

func TestOpenUnknownEngine(t *testing.T) {
	_, err := Open(Config{Engine: "floppy"})
	assert.Error(t, err)
}
