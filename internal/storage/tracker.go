package storage

import (
	"bytes"
	"cmp"
	"slices"
	"time"

	"hbnb-api/internal/models"

	"github.com/google/uuid"
)

// Key identifies an entity across kinds
type Key struct {
	Kind models.Kind
	ID   string
}

// KeyOf returns the key of an entity
func KeyOf(e models.Entity) Key {
	return Key{Kind: e.Kind(), ID: e.Meta().ID}
}

// EntryState describes what a tracker knows about a key
type EntryState int

const (
	Untracked EntryState = iota
	Added
	Removed
	Loaded
)

// Changes is the set of writes a session has to commit
type Changes struct {
	Added   []models.Entity
	Updated []models.Entity
	Removed []models.Entity
}

// Empty reports whether there is nothing to commit
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

type tracked struct {
	entity   models.Entity
	snapshot []byte
}

// Tracker is the unit-of-work bookkeeping shared by the backends. It keeps
// an identity map of every entity handed out by a session, remembers what
// it looked like when loaded, and records staged additions and removals.
type Tracker struct {
	now     func() time.Time
	loaded  map[Key]*tracked
	added   map[Key]models.Entity
	removed map[Key]models.Entity
	order   []Key
}

// NewTracker creates a tracker stamping times with now
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		now:     now,
		loaded:  make(map[Key]*tracked),
		added:   make(map[Key]models.Entity),
		removed: make(map[Key]models.Entity),
	}
}

// Now returns the current time at the precision the backends keep
func (t *Tracker) Now() time.Time {
	return t.now().UTC().Truncate(time.Microsecond)
}

// Lookup reports what the session already knows about an entity
func (t *Tracker) Lookup(kind models.Kind, id string) (models.Entity, EntryState) {
	k := Key{Kind: kind, ID: id}
	if e, ok := t.added[k]; ok {
		return e, Added
	}
	if _, ok := t.removed[k]; ok {
		return nil, Removed
	}
	if tr, ok := t.loaded[k]; ok {
		return tr.entity, Loaded
	}
	return nil, Untracked
}

// Track registers an entity read from the backend and returns the
// session's canonical instance for it.
func (t *Tracker) Track(e models.Entity) models.Entity {
	k := KeyOf(e)
	if cur, ok := t.added[k]; ok {
		return cur
	}
	if tr, ok := t.loaded[k]; ok {
		return tr.entity
	}
	t.loaded[k] = &tracked{entity: e, snapshot: snapshot(e)}
	return e
}

// Add stages a new entity, assigning its id and timestamps when unset
func (t *Tracker) Add(e models.Entity) {
	b := e.Meta()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = t.Now()
	}
	if b.UpdatedAt.Before(b.CreatedAt) {
		b.UpdatedAt = b.CreatedAt
	}

	k := KeyOf(e)
	if _, ok := t.removed[k]; ok {
		delete(t.removed, k)
		t.order = slices.DeleteFunc(t.order, func(o Key) bool { return o == k })
	}
	// already persisted, Save picks up any mutation through the snapshot
	if tr, ok := t.loaded[k]; ok && tr.entity == e {
		return
	}
	if _, ok := t.added[k]; !ok {
		t.order = append(t.order, k)
	}
	t.added[k] = e
}

// Remove stages the deletion of an entity
func (t *Tracker) Remove(e models.Entity) {
	k := KeyOf(e)
	if _, ok := t.added[k]; ok {
		delete(t.added, k)
		t.order = slices.DeleteFunc(t.order, func(o Key) bool { return o == k })
		return
	}
	if _, ok := t.removed[k]; ok {
		return
	}
	t.removed[k] = e
	t.order = append(t.order, k)
}

// Pending reports whether the session staged additions or removals of kind
func (t *Tracker) Pending(kind models.Kind) bool {
	for _, k := range t.order {
		if k.Kind == kind {
			return true
		}
	}
	return false
}

// Changes computes what has to be written. Loaded entities whose persisted
// form differs from their snapshot get a fresh updated_at.
func (t *Tracker) Changes() Changes {
	var c Changes
	for _, k := range t.order {
		if e, ok := t.added[k]; ok {
			c.Added = append(c.Added, e)
		} else if e, ok := t.removed[k]; ok {
			c.Removed = append(c.Removed, e)
		}
	}

	now := t.Now()
	for k, tr := range t.loaded {
		if _, gone := t.removed[k]; gone {
			continue
		}
		if bytes.Equal(snapshot(tr.entity), tr.snapshot) {
			continue
		}
		b := tr.entity.Meta()
		b.UpdatedAt = now
		if b.UpdatedAt.Before(b.CreatedAt) {
			b.UpdatedAt = b.CreatedAt
		}
		c.Updated = append(c.Updated, tr.entity)
	}
	slices.SortFunc(c.Updated, func(a, b models.Entity) int {
		if n := cmp.Compare(a.Kind(), b.Kind()); n != 0 {
			return n
		}
		return cmp.Compare(a.Meta().ID, b.Meta().ID)
	})
	return c
}

// Committed records that c was durably written
func (t *Tracker) Committed(c Changes) {
	for _, e := range c.Added {
		k := KeyOf(e)
		delete(t.added, k)
		t.loaded[k] = &tracked{entity: e, snapshot: snapshot(e)}
	}
	for _, e := range c.Updated {
		if tr, ok := t.loaded[KeyOf(e)]; ok {
			tr.snapshot = snapshot(e)
		}
	}
	for _, e := range c.Removed {
		k := KeyOf(e)
		delete(t.removed, k)
		delete(t.loaded, k)
	}
	t.order = slices.DeleteFunc(t.order, func(k Key) bool {
		_, a := t.added[k]
		_, r := t.removed[k]
		return !a && !r
	})
}

// Overlay merges committed entities of kind with the session's view:
// removed entities disappear, added ones appear, and tracked instances
// replace freshly read copies.
func (t *Tracker) Overlay(kind models.Kind, base map[string]models.Entity) map[string]models.Entity {
	out := make(map[string]models.Entity, len(base))
	for id, e := range base {
		if _, gone := t.removed[Key{Kind: kind, ID: id}]; gone {
			continue
		}
		out[id] = t.Track(e)
	}
	for k, e := range t.added {
		if k.Kind == kind {
			out[k.ID] = e
		}
	}
	return out
}

func snapshot(e models.Entity) []byte {
	b, err := models.MarshalRecord(e)
	if err != nil {
		return nil
	}
	return b
}
