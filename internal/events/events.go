// Package events publishes todo change notifications.
package events

import (
	"context"
	"time"

	"github.com/d-kuro/todo-mcp/internal/storage"
)

// Type names the kind of change an event reports.
type Type string

const (
	TypeCreated Type = "created"
	TypeUpdated Type = "updated"
	TypeDeleted Type = "deleted"
)

// TodoEvent describes one successful mutation of the store.
type TodoEvent struct {
	Type       Type          `json:"type"`
	ID         string        `json:"id"`
	Todo       *storage.Todo `json:"todo,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Created builds the event for a newly created todo.
func Created(t storage.Todo, at time.Time) TodoEvent {
	return TodoEvent{Type: TypeCreated, ID: t.ID, Todo: &t, OccurredAt: at.UTC()}
}

// Updated builds the event for an updated todo.
func Updated(t storage.Todo, at time.Time) TodoEvent {
	return TodoEvent{Type: TypeUpdated, ID: t.ID, Todo: &t, OccurredAt: at.UTC()}
}

// Deleted builds the event for a removed todo.
func Deleted(id string, at time.Time) TodoEvent {
	return TodoEvent{Type: TypeDeleted, ID: id, OccurredAt: at.UTC()}
}

// Publisher delivers todo events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, ev TodoEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, TodoEvent) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }
