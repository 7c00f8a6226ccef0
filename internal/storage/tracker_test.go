package storage

import (
	"testing"
	"time"

	"hbnb-api/internal/models"
)

func fixedClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func TestTracker_AddStampsIdentity(t *testing.T) {
	tr := NewTracker(fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	s := &models.State{Name: "California"}
	tr.Add(s)

	if s.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.Before(s.CreatedAt) {
		t.Fatalf("unexpected timestamps: created=%v updated=%v", s.CreatedAt, s.UpdatedAt)
	}

	got, st := tr.Lookup(models.KindState, s.ID)
	if st != Added || got != s {
		t.Fatalf("expected staged entity, got state=%v", st)
	}
	if !tr.Pending(models.KindState) || tr.Pending(models.KindCity) {
		t.Fatalf("unexpected pending flags")
	}
}

func TestTracker_RemoveOfStagedEntityCancelsIt(t *testing.T) {
	tr := NewTracker(nil)

	a := &models.Amenity{Name: "Wifi"}
	tr.Add(a)
	tr.Remove(a)

	if c := tr.Changes(); !c.Empty() {
		t.Fatalf("expected no changes, got=%+v", c)
	}
}

func TestTracker_DetectsMutationOfLoadedEntity(t *testing.T) {
	tr := NewTracker(fixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	loaded := &models.State{Base: models.Base{ID: "s1", CreatedAt: created, UpdatedAt: created}, Name: "old"}
	s := tr.Track(loaded).(*models.State)

	if c := tr.Changes(); !c.Empty() {
		t.Fatalf("expected untouched entity to produce no changes")
	}

	s.Name = "new"
	c := tr.Changes()
	if len(c.Updated) != 1 || c.Updated[0] != s {
		t.Fatalf("expected one updated entity, got=%+v", c)
	}
	if !s.UpdatedAt.After(created) || !s.CreatedAt.Equal(created) {
		t.Fatalf("expected updated_at to advance and created_at to stay, got=%+v", s.Base)
	}

	tr.Committed(c)
	if c := tr.Changes(); !c.Empty() {
		t.Fatalf("expected clean tracker after commit, got=%+v", c)
	}
}

func TestTracker_TrackReturnsCanonicalInstance(t *testing.T) {
	tr := NewTracker(nil)

	first := tr.Track(&models.City{Base: models.Base{ID: "c1"}, Name: "A"})
	second := tr.Track(&models.City{Base: models.Base{ID: "c1"}, Name: "stale copy"})

	if first != second {
		t.Fatalf("expected the same instance for repeated reads")
	}
}

func TestTracker_Overlay(t *testing.T) {
	tr := NewTracker(nil)

	keep := &models.User{Base: models.Base{ID: "u1"}}
	drop := &models.User{Base: models.Base{ID: "u2"}}
	base := map[string]models.Entity{"u1": keep, "u2": drop}

	tr.Remove(drop)
	fresh := &models.User{Email: "x@y.z"}
	tr.Add(fresh)

	got := tr.Overlay(models.KindUser, base)
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got=%d", len(got))
	}
	if _, ok := got["u2"]; ok {
		t.Fatalf("removed user must not be listed")
	}
	if got[fresh.ID] != fresh {
		t.Fatalf("staged user must be listed")
	}
}

func TestTracker_CommittedRemovalForgetsEntity(t *testing.T) {
	tr := NewTracker(nil)

	r := tr.Track(&models.Review{Base: models.Base{ID: "r1"}, Text: "ok"})
	tr.Remove(r)

	c := tr.Changes()
	if len(c.Removed) != 1 {
		t.Fatalf("expected one removal, got=%+v", c)
	}
	tr.Committed(c)

	if _, st := tr.Lookup(models.KindReview, "r1"); st != Untracked {
		t.Fatalf("expected review to be forgotten, state=%v", st)
	}
	if tr.Pending(models.KindReview) {
		t.Fatalf("expected no pending work")
	}
}
