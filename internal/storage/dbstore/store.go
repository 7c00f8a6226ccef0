// Package dbstore implements the storage contract on PostgreSQL. Each
// session commits through a single transaction.
package dbstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

// Store is the relational backend engine
type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

type Option func(*Store)

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a relational backend. The store owns db and closes it.
func New(db *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ storage.Engine = (*Store)(nil)

// Connect opens a connection pool and verifies it
func Connect(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables. With reset it drops them first.
func Migrate(ctx context.Context, db *pgxpool.Pool, reset bool) error {
	if reset {
		_, err := db.Exec(ctx,
			`DROP TABLE IF EXISTS place_amenity, reviews, places, users, amenities, cities, states`)
		if err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
		log.Warn().Msg("Database tables dropped")
	}
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) Open(_ context.Context) (storage.Session, error) {
	return &session{db: s.db, tracker: storage.NewTracker(s.now)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return storage.Fail("dbstore.ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

type session struct {
	db      *pgxpool.Pool
	tracker *storage.Tracker
	closed  bool
}

func (s *session) All(ctx context.Context, kind models.Kind) (map[string]models.Entity, error) {
	if err := storage.CheckKind(kind); err != nil {
		return nil, err
	}
	if s.closed {
		return nil, storage.ErrClosed
	}
	t := tables[kind]

	rows, err := s.db.Query(ctx, t.selectAll)
	if err != nil {
		return nil, storage.Fail("dbstore.all", fmt.Errorf("failed to list %s: %w", t.name, err))
	}
	defer rows.Close()

	base := make(map[string]models.Entity)
	for rows.Next() {
		e, err := scanEntity(t, rows)
		if err != nil {
			return nil, storage.Fail("dbstore.all", fmt.Errorf("failed to scan %s: %w", t.name, err))
		}
		base[e.Meta().ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Fail("dbstore.all", fmt.Errorf("error iterating %s: %w", t.name, err))
	}

	if kind == models.KindPlace {
		if err := loadAllLinks(ctx, s.db, base); err != nil {
			return nil, storage.Fail("dbstore.all", err)
		}
	}
	return s.tracker.Overlay(kind, base), nil
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

	t := tables[kind]
	e, err := scanEntity(t, s.db.QueryRow(ctx, t.selectByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, storage.Fail("dbstore.get", fmt.Errorf("failed to get %s: %w", t.name, err))
	}
	if p, ok := e.(*models.Place); ok {
		if err := loadLinks(ctx, s.db, p); err != nil {
			return nil, false, storage.Fail("dbstore.get", err)
		}
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

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storage.Fail("dbstore.begin", err)
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	if err := apply(ctx, tx, c); err != nil {
		return storage.Fail("dbstore.save", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storage.Fail("dbstore.commit", err)
	}

	s.tracker.Committed(c)
	log.Debug().
		Int("added", len(c.Added)).
		Int("updated", len(c.Updated)).
		Int("removed", len(c.Removed)).
		Msg("Transaction committed")
	return nil
}

func apply(ctx context.Context, tx pgx.Tx, c storage.Changes) error {
	for _, e := range c.Added {
		t := tables[e.Kind()]
		if _, err := tx.Exec(ctx, t.insert, t.args(e)...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", t.name, err)
		}
		if p, ok := e.(*models.Place); ok {
			if err := writeLinks(ctx, tx, p); err != nil {
				return err
			}
		}
	}

	for _, e := range c.Updated {
		t := tables[e.Kind()]
		result, err := tx.Exec(ctx, t.update, t.args(e)...)
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", t.name, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%s %s: %w", t.name, e.Meta().ID, storage.ErrGone)
		}
		if p, ok := e.(*models.Place); ok {
			if err := writeLinks(ctx, tx, p); err != nil {
				return err
			}
		}
	}

	for _, e := range c.Removed {
		t := tables[e.Kind()]
		if _, err := tx.Exec(ctx, t.delete, e.Meta().ID); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", t.name, err)
		}
	}
	return nil
}

func (s *session) Count(ctx context.Context, kind models.Kind) (int, error) {
	if err := storage.CheckKind(kind); err != nil {
		return 0, err
	}
	if s.closed {
		return 0, storage.ErrClosed
	}
	if s.tracker.Pending(kind) {
		all, err := s.All(ctx, kind)
		if err != nil {
			return 0, err
		}
		return len(all), nil
	}

	t := tables[kind]
	var n int
	if err := s.db.QueryRow(ctx, t.count).Scan(&n); err != nil {
		return 0, storage.Fail("dbstore.count", fmt.Errorf("failed to count %s: %w", t.name, err))
	}
	return n, nil
}

func (s *session) Close() error {
	s.closed = true
	return nil
}
