// Package storage defines the persistence contract shared by every backend.
//
// An Engine is opened once per process. Each request works through its own
// Session: reads go straight to the backend, New and Delete only stage a
// change, and Save commits everything staged or mutated since the session
// was opened.
package storage

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"hbnb-api/internal/models"
)

var (
	// ErrStorage marks a backend failure. Handlers map it to a server error.
	ErrStorage = errors.New("storage failure")
	// ErrClosed is returned by a session used after Close
	ErrClosed = errors.New("storage session closed")
	// ErrUnknownKind is returned for a kind outside models.Kinds
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrGone is returned by Save when an updated entity was deleted by
	// another session in the meantime
	ErrGone = errors.New("entity no longer exists")
)

// Engine is a storage backend
type Engine interface {
	// Open starts a new unit of work
	Open(ctx context.Context) (Session, error)
	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
	// Close releases the backend
	Close() error
}

// Session is a per-request view of the store. Reads observe committed state
// overlaid with the session's own staged changes.
type Session interface {
	All(ctx context.Context, kind models.Kind) (map[string]models.Entity, error)
	// Get reports absence with ok=false and a nil error
	Get(ctx context.Context, kind models.Kind, id string) (e models.Entity, ok bool, err error)
	New(e models.Entity)
	Delete(e models.Entity)
	Save(ctx context.Context) error
	Count(ctx context.Context, kind models.Kind) (int, error)
	// Close is idempotent
	Close() error
}

// Fail wraps a backend error so callers can detect it with errors.Is(err, ErrStorage)
func Fail(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// CheckKind rejects kinds the model does not know
func CheckKind(kind models.Kind) error {
	if _, ok := models.ParseKind(string(kind)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

// Get fetches an entity of type T by id
func Get[T models.Entity](ctx context.Context, s Session, id string) (T, bool, error) {
	var zero T
	e, ok, err := s.Get(ctx, zero.Kind(), id)
	if err != nil || !ok {
		return zero, false, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: %s %s has type %T", ErrStorage, zero.Kind(), id, e)
	}
	return t, true, nil
}

// All returns every entity of type T, oldest first
func All[T models.Entity](ctx context.Context, s Session) ([]T, error) {
	var zero T
	m, err := s.All(ctx, zero.Kind())
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(m))
	for _, e := range m {
		t, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s has type %T", ErrStorage, zero.Kind(), e)
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b T) int {
		if c := a.Meta().CreatedAt.Compare(b.Meta().CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Meta().ID, b.Meta().ID)
	})
	return out, nil
}
