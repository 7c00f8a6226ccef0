package dbstore

import (
	"context"
	"os"
	"strings"
	"testing"

	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"
	"hbnb-api/internal/storage/storagetest"
)

// Set HBNB_TEST_DATABASE_URL to a disposable database to run these tests.
// Every test drops and recreates the tables.
func testDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("HBNB_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HBNB_TEST_DATABASE_URL not set")
	}
	return dsn
}

func newStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := Connect(ctx, testDSN(t), 4)
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if err := Migrate(ctx, db, true); err != nil {
		db.Close()
		t.Fatalf("Migrate error: %v", err)
	}
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	testDSN(t)
	storagetest.Run(t, func(t *testing.T) storage.Engine {
		return newStore(t)
	})
}

func TestDeletePlaceCascadesLinks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	s, _ := store.Open(ctx)
	a := &models.Amenity{Name: "Wifi"}
	p := &models.Place{CityID: "c", UserID: "u", Name: "Loft", AmenityIDs: []string{}}
	s.New(a)
	p.LinkAmenity(a.ID)
	s.New(p)
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	s.Delete(p)
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	var n int
	if err := store.db.QueryRow(ctx, `SELECT COUNT(*) FROM place_amenity`).Scan(&n); err != nil {
		t.Fatalf("count links: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected links to be removed with the place, got=%d", n)
	}
}

func TestTableStatements(t *testing.T) {
	st := tables[models.KindState]

	if st.selectByID != "SELECT id, created_at, updated_at, name FROM states WHERE id = $1" {
		t.Fatalf("unexpected select: %s", st.selectByID)
	}
	if st.insert != "INSERT INTO states (id, created_at, updated_at, name) VALUES ($1, $2, $3, $4)" {
		t.Fatalf("unexpected insert: %s", st.insert)
	}
	if !strings.HasPrefix(st.update, "UPDATE states SET updated_at = $3, name = $4 WHERE id = $1") {
		t.Fatalf("unexpected update: %s", st.update)
	}

	for _, k := range models.Kinds {
		tb, ok := tables[k]
		if !ok {
			t.Fatalf("no table for %s", k)
		}
		if tb.name != k.Plural() {
			t.Fatalf("table %s does not match kind %s", tb.name, k)
		}
		e, _ := models.New(k)
		if got, want := len(tb.args(e)), len(tb.columns)+3; got != want {
			t.Fatalf("%s: %d args for %d columns", k, got, want)
		}
	}
}

func TestSchemaTextColumnsAreUnbounded(t *testing.T) {
	for _, line := range strings.Split(schema, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[1], "VARCHAR") {
			continue
		}
		if !strings.HasSuffix(fields[0], "id") {
			t.Errorf("column %s is length-limited: %s", fields[0], strings.TrimSpace(line))
		}
	}
}

func TestLongTextIsStored(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	sess, err := s.Open(ctx)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer sess.Close()

	st := &models.State{Name: strings.Repeat("x", 5000)}
	sess.New(st)
	if err := sess.Save(ctx); err != nil {
		t.Fatalf("Save with long name: %v", err)
	}
}
