package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// entry is a stored todo plus its insertion sequence, which gives listings
// a deterministic base order before sorting.
type entry struct {
	todo Todo
	seq  uint64
}

// Store is an in-memory todo repository. Each Store is an isolated
// namespace; the zero value is not usable, call NewStore.
type Store struct {
	mu      sync.RWMutex
	todos   map[string]*entry
	nextSeq uint64
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the id source used by Create.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		todos: make(map[string]*entry),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new todo with a fresh id and returns the stored record.
// Validation is the caller's job.
func (s *Store) Create(in NewTodo) Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for {
		if _, taken := s.todos[id]; !taken {
			break
		}
		id = s.newID()
	}

	now := NewTimestamp(s.now())
	t := Todo{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
		Priority:    in.Priority,
		Tags:        cloneTags(in.Tags),
	}

	s.nextSeq++
	s.todos[id] = &entry{todo: t, seq: s.nextSeq}
	return t.clone()
}

// FindByID returns the todo with the given id.
func (s *Store) FindByID(id string) (Todo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.todos[id]
	if !ok {
		return Todo{}, false
	}
	return e.todo.clone(), true
}

// FindAll returns every todo passing all filters, sorted, together with
// the count and the filters that were applied.
func (s *Store) FindAll(filters *Filters) ListResult {
	needle := ""
	if filters != nil {
		needle = strings.ToLower(filters.Search)
	}

	s.mu.RLock()
	matched := make([]entry, 0, len(s.todos))
	for _, e := range s.todos {
		if filters.match(e.todo, needle) {
			matched = append(matched, entry{todo: e.todo.clone(), seq: e.seq})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq < matched[j].seq
	})

	todos := make([]Todo, 0, len(matched))
	for _, e := range matched {
		todos = append(todos, e.todo)
	}

	field, order := filters.sortField(), filters.sortOrder()
	sort.SliceStable(todos, func(i, j int) bool {
		c := field.compare(todos[i], todos[j])
		if order == SortAsc {
			return c < 0
		}
		return c > 0
	})

	return ListResult{
		Todos:   todos,
		Total:   len(todos),
		Filters: filters,
	}
}

// Update merges patch onto the todo with the given id. The id and createdAt
// never change; updatedAt always moves forward, even for an empty patch.
func (s *Store) Update(id string, patch Patch) (Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.todos[id]
	if !ok {
		return Todo{}, false
	}

	t := e.todo
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Tags != nil {
		t.Tags = cloneTags(patch.Tags)
	}

	now := NewTimestamp(s.now())
	if !now.After(t.UpdatedAt.Time) {
		now = NewTimestamp(t.UpdatedAt.Add(time.Millisecond))
	}
	t.UpdatedAt = now

	e.todo = t
	return t.clone(), true
}

// Delete removes the todo with the given id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return false
	}
	delete(s.todos, id)
	return true
}

// Clear removes all todos.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.todos = make(map[string]*entry)
}

// Count returns the number of stored todos.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.todos)
}
