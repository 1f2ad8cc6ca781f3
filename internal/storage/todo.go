// Package storage provides the todo data model and its in-memory store.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Priority represents the priority of a todo item.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// weight orders priorities for sorting; unknown priorities sort lowest.
func (p Priority) weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Priorities lists the accepted priority values.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// TimestampLayout is the ISO-8601 shape timestamps are rendered in.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant with millisecond precision that marshals as an
// ISO-8601 string such as 2025-01-02T03:04:05.678Z.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// String renders the timestamp in ISO-8601 form.
func (ts Timestamp) String() string {
	return ts.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	*ts = NewTimestamp(t)
	return nil
}

// Todo represents a single todo item.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
	Priority    Priority  `json:"priority,omitempty"`
	Tags        []string  `json:"tags"`
}

func (t Todo) clone() Todo {
	t.Tags = cloneTags(t.Tags)
	return t
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// matchesSearch reports whether needle (already lower-cased) occurs in the
// title or the description.
func (t Todo) matchesSearch(needle string) bool {
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		(t.Description != "" && strings.Contains(strings.ToLower(t.Description), needle))
}

// hasAnyTag reports whether t carries at least one of tags.
func (t Todo) hasAnyTag(tags []string) bool {
	for _, have := range t.Tags {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// NewTodo carries the caller-supplied fields of a todo being created.
type NewTodo struct {
	Title       string
	Description string
	Priority    Priority
	Tags        []string
	Completed   bool
}

// Patch describes a partial update. Nil fields are left untouched; a nil
// Tags slice leaves the tags unchanged while an empty one clears them.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	Tags        []string
}

// Empty reports whether the patch changes no field.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && p.Priority == nil && p.Tags == nil
}

// SortField is a sortable todo attribute.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByPriority  SortField = "priority"
	SortByTitle     SortField = "title"
)

// ParseSortField returns the field named by s, or false if it is not sortable.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortByCreatedAt, SortByUpdatedAt, SortByPriority, SortByTitle:
		return f, true
	default:
		return "", false
	}
}

// compare orders a and b by the field in ascending order.
func (f SortField) compare(a, b Todo) int {
	switch f {
	case SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt.Time)
	case SortByPriority:
		return a.Priority.weight() - b.Priority.weight()
	case SortByTitle:
		return strings.Compare(a.Title, b.Title)
	default:
		return a.CreatedAt.Compare(b.CreatedAt.Time)
	}
}

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder returns the order named by s, or false if unknown.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(s); o {
	case SortAsc, SortDesc:
		return o, true
	default:
		return "", false
	}
}

// Filters narrows and orders a listing. Zero values mean "no constraint"
// and the default ordering (createdAt, descending).
type Filters struct {
	Completed *bool     `json:"completed,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Search    string    `json:"search,omitempty"`
	SortBy    SortField `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

func (f *Filters) match(t Todo, needle string) bool {
	if f == nil {
		return true
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if len(f.Tags) > 0 && !t.hasAnyTag(f.Tags) {
		return false
	}
	if needle != "" && !t.matchesSearch(needle) {
		return false
	}
	return true
}

func (f *Filters) sortField() SortField {
	if f == nil {
		return SortByCreatedAt
	}
	if field, ok := ParseSortField(string(f.SortBy)); ok {
		return field
	}
	return SortByCreatedAt
}

func (f *Filters) sortOrder() SortOrder {
	if f == nil {
		return SortDesc
	}
	if order, ok := ParseSortOrder(string(f.SortOrder)); ok {
		return order
	}
	return SortDesc
}

// ListResult is the answer to a listing.
type ListResult struct {
	Todos   []Todo   `json:"todos"`
	Total   int      `json:"total"`
	Filters *Filters `json:"filters,omitempty"`
}
