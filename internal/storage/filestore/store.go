// Package filestore implements the storage contract on a serialized object
// graph. The whole graph is read on a session's first access and written
// back in a single Blob.Store on every commit.
package filestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"

	"github.com/rs/zerolog/log"
)

// Store is the graph backend engine
type Store struct {
	blob Blob
	now  func() time.Time

	// serializes commits so each one applies to the latest graph
	mu sync.Mutex
}

type Option func(*Store)

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a graph backend on the given blob
func New(blob Blob, opts ...Option) *Store {
	s := &Store{blob: blob, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Engine = (*Store)(nil)

func (s *Store) Open(_ context.Context) (storage.Session, error) {
	return &session{store: s, tracker: storage.NewTracker(s.now)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) load(ctx context.Context) (graph, error) {
	data, err := s.blob.Load(ctx)
	if err != nil {
		return nil, storage.Fail("filestore.load", err)
	}
	g, err := decodeGraph(data)
	if err != nil {
		return nil, storage.Fail("filestore.decode", err)
	}
	return g, nil
}

// commit reloads the current graph, applies c on top of it and stores the
// result in one write.
func (s *Store) commit(ctx context.Context, c storage.Changes) (graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range c.Updated {
		if !g.has(e) {
			return nil, storage.Fail("filestore.update",
				fmt.Errorf("%s %s: %w", e.Kind(), e.Meta().ID, storage.ErrGone))
		}
	}
	for _, e := range c.Added {
		g.put(e)
	}
	for _, e := range c.Updated {
		g.put(e)
	}
	for _, e := range c.Removed {
		g.remove(e)
	}

	data, err := encodeGraph(g)
	if err != nil {
		return nil, storage.Fail("filestore.encode", err)
	}
	if err := s.blob.Store(ctx, data); err != nil {
		return nil, storage.Fail("filestore.store", err)
	}

	log.Debug().
		Int("added", len(c.Added)).
		Int("updated", len(c.Updated)).
		Int("removed", len(c.Removed)).
		Int("bytes", len(data)).
		Msg("Graph stored")

	return g, nil
}

type session struct {
	store   *Store
	tracker *storage.Tracker
	graph   graph
	closed  bool
}

func (s *session) ensure(ctx context.Context) error {
	if s.closed {
		return storage.ErrClosed
	}
	if s.graph != nil {
		return nil
	}
	g, err := s.store.load(ctx)
	if err != nil {
		return err
	}
	s.graph = g
	return nil
}

func (s *session) All(ctx context.Context, kind models.Kind) (map[string]models.Entity, error) {
	if err := storage.CheckKind(kind); err != nil {
		return nil, err
	}
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return s.tracker.Overlay(kind, s.graph[kind]), nil
}

func (s *session) Get(ctx context.Context, kind models.Kind, id string) (models.Entity, bool, error) {
	if err := storage.CheckKind(kind); err != nil {
		return nil, false, err
	}
	if s.closed {
		return nil, false, storage.ErrClosed
	}

	switch e, st := s.tracker.Lookup(kind, id); st {
	case storage.Added, storage.Loaded:
		return e, true, nil
	case storage.Removed:
		return nil, false, nil
	}

	if err := s.ensure(ctx); err != nil {
		return nil, false, err
	}
	e, ok := s.graph[kind][id]
	if !ok {
		return nil, false, nil
	}
	return s.tracker.Track(e), true, nil
}

func (s *session) New(e models.Entity) {
	s.tracker.Add(e)
}

func (s *session) Delete(e models.Entity) {
	s.tracker.Remove(e)
}

func (s *session) Save(ctx context.Context) error {
	if s.closed {
		return storage.ErrClosed
	}
	c := s.tracker.Changes()
	if c.Empty() {
		return nil
	}

	g, err := s.store.commit(ctx, c)
	if err != nil {
		return err
	}
	s.tracker.Committed(c)
	s.graph = g
	return nil
}

func (s *session) Count(ctx context.Context, kind models.Kind) (int, error) {
	all, err := s.All(ctx, kind)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

func (s *session) Close() error {
	s.closed = true
	s.graph = nil
	return nil
}
