// Package storagetest checks that an engine honours the storage contract.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"
)

// Run exercises a fresh, empty engine returned by newEngine
func Run(t *testing.T, newEngine func(t *testing.T) storage.Engine) {
	t.Helper()

	t.Run("CreateThenGet", func(t *testing.T) { testCreateThenGet(t, newEngine(t)) })
	t.Run("StagedUntilSave", func(t *testing.T) { testStagedUntilSave(t, newEngine(t)) })
	t.Run("DeleteThenGet", func(t *testing.T) { testDeleteThenGet(t, newEngine(t)) })
	t.Run("UpdateAdvancesUpdatedAt", func(t *testing.T) { testUpdate(t, newEngine(t)) })
	t.Run("UpdateAfterConcurrentDelete", func(t *testing.T) { testUpdateAfterDelete(t, newEngine(t)) })
	t.Run("CountMatchesAll", func(t *testing.T) { testCountMatchesAll(t, newEngine(t)) })
	t.Run("PlaceAmenityLinks", func(t *testing.T) { testPlaceAmenityLinks(t, newEngine(t)) })
	t.Run("UserPasswordPersisted", func(t *testing.T) { testUserPassword(t, newEngine(t)) })
	t.Run("ClosedSession", func(t *testing.T) { testClosedSession(t, newEngine(t)) })
}

func open(t *testing.T, e storage.Engine) storage.Session {
	t.Helper()
	s, err := e.Open(context.Background())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func save(t *testing.T, s storage.Session) {
	t.Helper()
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save error: %v", err)
	}
}

func testCreateThenGet(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	st := &models.State{Name: "California"}
	s.New(st)
	save(t, s)

	if st.ID == "" {
		t.Fatalf("expected id to be assigned")
	}

	other := open(t, e)
	got, ok, err := storage.Get[*models.State](ctx, other, st.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Name != "California" || !got.CreatedAt.Equal(st.CreatedAt) {
		t.Fatalf("unexpected state: %+v", got)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("updated_at before created_at: %+v", got.Base)
	}

	_, ok, err = other.Get(ctx, models.KindState, "missing")
	if err != nil || ok {
		t.Fatalf("expected clean absence, ok=%v err=%v", ok, err)
	}
}

func testStagedUntilSave(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	a := &models.Amenity{Name: "Wifi"}
	s.New(a)

	// visible to the staging session
	if _, ok, _ := s.Get(ctx, models.KindAmenity, a.ID); !ok {
		t.Fatalf("staged amenity should be visible in its own session")
	}

	other := open(t, e)
	if n, err := other.Count(ctx, models.KindAmenity); err != nil || n != 0 {
		t.Fatalf("expected no committed amenities, n=%d err=%v", n, err)
	}

	save(t, s)
	third := open(t, e)
	if n, err := third.Count(ctx, models.KindAmenity); err != nil || n != 1 {
		t.Fatalf("expected 1 committed amenity, n=%d err=%v", n, err)
	}
}

func testDeleteThenGet(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	c := &models.City{StateID: "s1", Name: "Fremont"}
	s.New(c)
	save(t, s)

	s2 := open(t, e)
	got, ok, err := s2.Get(ctx, models.KindCity, c.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	s2.Delete(got)
	save(t, s2)

	s3 := open(t, e)
	if _, ok, err := s3.Get(ctx, models.KindCity, c.ID); err != nil || ok {
		t.Fatalf("expected deleted city to be absent, ok=%v err=%v", ok, err)
	}
}

func testUpdate(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	st := &models.State{Name: "Nevada"}
	s.New(st)
	save(t, s)

	s2 := open(t, e)
	got, _, err := storage.Get[*models.State](ctx, s2, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	before := got.UpdatedAt
	got.Name = "Arizona"
	save(t, s2)

	s3 := open(t, e)
	after, _, err := storage.Get[*models.State](ctx, s3, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.Name != "Arizona" {
		t.Fatalf("expected name to persist, got=%q", after.Name)
	}
	if after.ID != st.ID || !after.CreatedAt.Equal(st.CreatedAt) {
		t.Fatalf("identity changed: %+v vs %+v", after.Base, st.Base)
	}
	if after.UpdatedAt.Before(before) {
		t.Fatalf("updated_at went backwards: %v < %v", after.UpdatedAt, before)
	}
}

func testUpdateAfterDelete(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	st := &models.State{Name: "Oregon"}
	s.New(st)
	save(t, s)

	editor := open(t, e)
	got, ok, err := storage.Get[*models.State](ctx, editor, st.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}

	deleter := open(t, e)
	doomed, _, err := storage.Get[*models.State](ctx, deleter, st.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	deleter.Delete(doomed)
	save(t, deleter)

	got.Name = "Washington"
	err = editor.Save(ctx)
	if !errors.Is(err, storage.ErrGone) || !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("expected ErrGone wrapped as ErrStorage, got=%v", err)
	}

	check := open(t, e)
	if _, ok, err := check.Get(ctx, models.KindState, st.ID); err != nil || ok {
		t.Fatalf("deleted state came back, ok=%v err=%v", ok, err)
	}
}

func testCountMatchesAll(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	for _, name := range []string{"a", "b", "c"} {
		s.New(&models.State{Name: name})
	}
	s.New(&models.User{Email: "u@x"})
	save(t, s)

	victim := &models.State{Name: "d"}
	s.New(victim)
	s.Delete(victim)

	for _, k := range models.Kinds {
		all, err := s.All(ctx, k)
		if err != nil {
			t.Fatalf("All(%s): %v", k, err)
		}
		n, err := s.Count(ctx, k)
		if err != nil {
			t.Fatalf("Count(%s): %v", k, err)
		}
		if n != len(all) {
			t.Fatalf("Count(%s)=%d but len(All)=%d", k, n, len(all))
		}
	}

	states, err := storage.All[*models.State](ctx, s)
	if err != nil || len(states) != 3 {
		t.Fatalf("expected 3 states, got=%d err=%v", len(states), err)
	}

	if _, err := s.All(ctx, "BaseModel"); !errors.Is(err, storage.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got=%v", err)
	}
}

func testPlaceAmenityLinks(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	wifi := &models.Amenity{Name: "Wifi"}
	pool := &models.Amenity{Name: "Pool"}
	place := &models.Place{CityID: "c1", UserID: "u1", Name: "Loft", AmenityIDs: []string{}}
	s.New(wifi)
	s.New(pool)
	s.New(place)
	save(t, s)

	s2 := open(t, e)
	p, _, err := storage.Get[*models.Place](ctx, s2, place.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p.LinkAmenity(wifi.ID)
	p.LinkAmenity(pool.ID)
	save(t, s2)

	s3 := open(t, e)
	p, _, err = storage.Get[*models.Place](ctx, s3, place.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(p.AmenityIDs) != 2 {
		t.Fatalf("expected 2 linked amenities, got=%v", p.AmenityIDs)
	}
	p.UnlinkAmenity(wifi.ID)
	save(t, s3)

	s4 := open(t, e)
	places, err := storage.All[*models.Place](ctx, s4)
	if err != nil || len(places) != 1 {
		t.Fatalf("All places: n=%d err=%v", len(places), err)
	}
	if places[0].HasAmenity(wifi.ID) || !places[0].HasAmenity(pool.ID) {
		t.Fatalf("unexpected links after unlink: %v", places[0].AmenityIDs)
	}
}

func testUserPassword(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	s := open(t, e)
	u := &models.User{Email: "a@b.c", Password: "$2a$04$hash"}
	s.New(u)
	save(t, s)

	s2 := open(t, e)
	got, ok, err := storage.Get[*models.User](ctx, s2, u.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Password != "$2a$04$hash" {
		t.Fatalf("expected password hash to persist, got=%q", got.Password)
	}
}

func testClosedSession(t *testing.T, e storage.Engine) {
	s, err := e.Open(context.Background())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close error: %v", err)
	}
	if _, err := s.All(context.Background(), models.KindState); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed, got=%v", err)
	}
}
