// Package events fans committed entity changes out to subscribers.
package events

import (
	"context"
	"errors"
	"time"

	"hbnb-api/internal/models"
)

// Type names what happened to an entity
type Type string

const (
	Created  Type = "created"
	Updated  Type = "updated"
	Deleted  Type = "deleted"
	Linked   Type = "linked"
	Unlinked Type = "unlinked"
)

// Event describes a committed change
type Event struct {
	Type Type        `json:"type"`
	Kind models.Kind `json:"kind"`
	ID   string      `json:"id"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data,omitempty"`
}

// New builds an event for e stamped with the current time
func New(t Type, e models.Entity, data interface{}) Event {
	return Event{
		Type: t,
		Kind: e.Kind(),
		ID:   e.Meta().ID,
		At:   time.Now().UTC(),
		Data: data,
	}
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
