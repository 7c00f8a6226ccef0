package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"
	"hbnb-api/internal/storage/storagetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Engine {
		return New(NewMemoryBlob())
	})
}

func TestFileStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Engine {
		return New(NewFileBlob(filepath.Join(t.TempDir(), "file.json")))
	})
}

func TestFileStore_WritesClassKeyedGraph(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "file.json")
	store := New(NewFileBlob(path))

	s, _ := store.Open(ctx)
	st := &models.State{Name: "California"}
	s.New(st)
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rec, ok := decoded["State."+st.ID]
	if !ok {
		t.Fatalf("expected key State.%s in %s", st.ID, b)
	}
	if rec["__class__"] != "State" || rec["name"] != "California" {
		t.Fatalf("unexpected record: %v", rec)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestStore_ConcurrentSessionsKeepEachOthersWrites(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemoryBlob())

	a, _ := store.Open(ctx)
	b, _ := store.Open(ctx)

	// both sessions load the empty graph before either commits
	if _, err := a.All(ctx, models.KindState); err != nil {
		t.Fatalf("All: %v", err)
	}
	if _, err := b.All(ctx, models.KindState); err != nil {
		t.Fatalf("All: %v", err)
	}

	a.New(&models.State{Name: "A"})
	b.New(&models.State{Name: "B"})
	if err := a.Save(ctx); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := b.Save(ctx); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	c, _ := store.Open(ctx)
	n, err := c.Count(ctx, models.KindState)
	if err != nil || n != 2 {
		t.Fatalf("expected both states to survive, n=%d err=%v", n, err)
	}
}

type failingBlob struct{ MemoryBlob }

func (f *failingBlob) Store(context.Context, []byte) error {
	return errors.New("disk full")
}

func TestStore_SaveFailureIsStorageError(t *testing.T) {
	ctx := context.Background()
	store := New(&failingBlob{})

	s, _ := store.Open(ctx)
	s.New(&models.Amenity{Name: "Wifi"})

	err := s.Save(ctx)
	if !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("expected ErrStorage, got=%v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected cause in error, got=%v", err)
	}

	// the staged amenity is still pending and visible to the session
	if n, _ := s.Count(ctx, models.KindAmenity); n != 1 {
		t.Fatalf("expected staged amenity to remain, n=%d", n)
	}
}

func TestDecodeGraph_RejectsUnknownClass(t *testing.T) {
	_, err := decodeGraph([]byte(`{"BaseModel.1": {"id": "1"}}`))
	if err == nil {
		t.Fatalf("expected error for unknown class")
	}

	g, err := decodeGraph(nil)
	if err != nil || len(g[models.KindState]) != 0 {
		t.Fatalf("expected empty graph, err=%v", err)
	}
}
