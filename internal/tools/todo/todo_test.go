package todo_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-kuro/todo-mcp/internal/errors"
	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/security"
	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
	"github.com/d-kuro/todo-mcp/internal/tools/todo"
)

const unknownID = "00000000-0000-4000-8000-000000000000"

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)              {}
func (nopLogger) Info(string, ...any)               {}
func (nopLogger) Warn(string, ...any)               {}
func (nopLogger) Error(string, ...any)              {}
func (l nopLogger) WithTool(string) tools.Logger    { return l }
func (l nopLogger) WithSession(string) tools.Logger { return l }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TodoEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.TodoEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	registry  *tools.Registry
	store     *storage.Store
	publisher *recordingPublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		publisher: &recordingPublisher{},
		now:       time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
	}
	clock := func() time.Time {
		f.now = f.now.Add(time.Second)
		return f.now
	}
	f.store = storage.NewStore(storage.WithClock(clock))

	ctx := &tools.Context{Logger: nopLogger{}, Validator: security.NewDefaultValidator()}
	f.registry = tools.NewRegistry(ctx)
	require.NoError(t, f.registry.RegisterAll(todo.CreateTodoTools(ctx, todo.Deps{
		Store:     f.store,
		Publisher: f.publisher,
		Now:       func() time.Time { return f.now },
	})...))
	require.NoError(t, f.registry.Validate())
	return f
}

func (f *fixture) call(t *testing.T, name string, args tools.Args) *tools.RawEnvelope {
	t.Helper()
	env, err := f.registry.Call(context.Background(), name, args)
	require.NoError(t, err)
	res := env.Result()
	raw, err := tools.ParseResult(res)
	require.NoError(t, err)
	assert.Equal(t, !raw.Success, res.IsError)
	return raw
}

func (f *fixture) create(t *testing.T, args tools.Args) storage.Todo {
	t.Helper()
	env := f.call(t, todo.CreateToolName, args)
	require.True(t, env.Success, "create failed: %+v", env.Error)
	var got storage.Todo
	require.NoError(t, env.DecodeData(&got))
	return got
}

func (f *fixture) list(t *testing.T, args tools.Args) storage.ListResult {
	t.Helper()
	env := f.call(t, todo.ListToolName, args)
	require.True(t, env.Success)
	var got storage.ListResult
	require.NoError(t, env.DecodeData(&got))
	return got
}

func ids(todos []storage.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, td := range todos {
		out = append(out, td.ID)
	}
	return out
}

func assertFailure(t *testing.T, env *tools.RawEnvelope, code errors.Code, message string) {
	t.Helper()
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, code, env.Error.Code)
	assert.Equal(t, message, env.Error.Message)
}

func TestToolNames(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"todo_create", "todo_delete", "todo_list", "todo_update"}, f.registry.List())

	for _, schema := range f.registry.GetMCPTools() {
		data, err := json.Marshal(schema.InputSchema)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		assert.Equal(t, "object", m["type"], schema.Name)
	}
}

func TestBuyMilkScenario(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, tools.Args{"title": "Buy milk"})
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, storage.PriorityMedium, created.Priority)
	assert.NotNil(t, created.Tags)
	assert.Empty(t, created.Tags)
	assert.False(t, created.Completed)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt.Time))

	open := f.list(t, tools.Args{"completed": false})
	assert.Contains(t, ids(open.Todos), created.ID)

	env := f.call(t, todo.UpdateToolName, tools.Args{"id": created.ID, "completed": true})
	require.True(t, env.Success)
	var updated storage.Todo
	require.NoError(t, env.DecodeData(&updated))
	assert.True(t, updated.Completed)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt.Time))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt.Time))
	assert.Equal(t, created.ID, updated.ID)

	open = f.list(t, tools.Args{"completed": false})
	assert.NotContains(t, ids(open.Todos), created.ID)

	env = f.call(t, todo.DeleteToolName, tools.Args{"id": created.ID})
	require.True(t, env.Success)
	var deleted todo.DeleteResult
	require.NoError(t, env.DecodeData(&deleted))
	assert.Equal(t, created.ID, deleted.ID)
	assert.True(t, deleted.Deleted)
	assert.False(t, deleted.DeletedAt.IsZero())

	all := f.list(t, nil)
	assert.Empty(t, all.Todos)
	assert.Equal(t, 0, all.Total)

	assert.Equal(t, []events.Type{events.TypeCreated, events.TypeUpdated, events.TypeDeleted}, f.publisher.types())
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    tools.Args
		message string
	}{
		{"missing title", tools.Args{}, "Title is required and cannot be empty"},
		{"empty title", tools.Args{"title": ""}, "Title is required and cannot be empty"},
		{"blank title", tools.Args{"title": "   "}, "Title is required and cannot be empty"},
		{"long title", tools.Args{"title": strings.Repeat("t", 201)}, "Title cannot exceed 200 characters"},
		{"long description", tools.Args{"title": "ok", "description": strings.Repeat("d", 1001)}, "Description cannot exceed 1000 characters"},
		{"too many tags", tools.Args{"title": "ok", "tags": []any{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}}, "Cannot have more than 10 tags"},
		{"unknown priority", tools.Args{"title": "ok", "priority": "urgent"}, "Priority must be one of: low, medium, high"},
		{"numeric title", tools.Args{"title": 42.0}, "title must be a string"},
		{"tags not a list", tools.Args{"title": "ok", "tags": "work"}, "tags must be an array of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			env := f.call(t, todo.CreateToolName, tt.args)
			assertFailure(t, env, errors.CodeValidation, tt.message)
			assert.Equal(t, 0, f.store.Count())
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestCreateTrimsAndKeepsFields(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, tools.Args{
		"title":       "  Write report ",
		"description": " Quarterly numbers\n",
		"priority":    "high",
		"tags":        []any{"work", "q3"},
	})

	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, "Quarterly numbers", created.Description)
	assert.Equal(t, storage.PriorityHigh, created.Priority)
	assert.Equal(t, []string{"work", "q3"}, created.Tags)
}

func TestUpdateInvalidID(t *testing.T) {
	f := newFixture(t)

	for _, args := range []tools.Args{
		{"id": "not-a-uuid", "title": "x"},
		{"title": "x"},
		{"id": 12.0},
	} {
		env := f.call(t, todo.UpdateToolName, args)
		assertFailure(t, env, errors.CodeValidation, "Invalid TODO ID format")
	}
}

func TestUpdateUnknownIDBeforeFieldValidation(t *testing.T) {
	f := newFixture(t)

	env := f.call(t, todo.UpdateToolName, tools.Args{"id": unknownID, "title": ""})
	assertFailure(t, env, errors.CodeNotFound, "TODO with id '"+unknownID+"' not found")
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    tools.Args
		message string
	}{
		{"blank title", tools.Args{"title": "  "}, "Title cannot be empty"},
		{"long title", tools.Args{"title": strings.Repeat("t", 201)}, "Title cannot exceed 200 characters"},
		{"long description", tools.Args{"description": strings.Repeat("d", 1001)}, "Description cannot exceed 1000 characters"},
		{"too many tags", tools.Args{"tags": make([]string, 11)}, "Cannot have more than 10 tags"},
		{"completed as string", tools.Args{"completed": "yes"}, "completed must be a boolean"},
		{"unknown priority", tools.Args{"priority": "urgent"}, "Priority must be one of: low, medium, high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			created := f.create(t, tools.Args{"title": "Buy milk", "tags": []any{"shopping"}})

			args := tools.Args{"id": created.ID}
			for k, v := range tt.args {
				args[k] = v
			}
			env := f.call(t, todo.UpdateToolName, args)
			assertFailure(t, env, errors.CodeValidation, tt.message)

			stored, ok := f.store.FindByID(created.ID)
			require.True(t, ok)
			assert.Equal(t, created, stored)
		})
	}
}

func TestUpdateAppliesPatch(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, tools.Args{"title": "Buy milk", "description": "2 litres", "tags": []any{"shopping"}})

	env := f.call(t, todo.UpdateToolName, tools.Args{
		"id":          created.ID,
		"title":       " Buy oat milk ",
		"description": "",
		"priority":    "low",
		"tags":        []any{},
	})
	require.True(t, env.Success)

	var updated storage.Todo
	require.NoError(t, env.DecodeData(&updated))
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Equal(t, storage.PriorityLow, updated.Priority)
	assert.Empty(t, updated.Tags)
	assert.False(t, updated.Completed)

	// An empty update still moves updatedAt.
	env = f.call(t, todo.UpdateToolName, tools.Args{"id": created.ID})
	require.True(t, env.Success)
	var touched storage.Todo
	require.NoError(t, env.DecodeData(&touched))
	assert.True(t, touched.UpdatedAt.After(updated.UpdatedAt.Time))
	assert.Equal(t, "Buy oat milk", touched.Title)
}

func TestDeleteErrors(t *testing.T) {
	f := newFixture(t)

	env := f.call(t, todo.DeleteToolName, tools.Args{"id": unknownID})
	assertFailure(t, env, errors.CodeNotFound, "TODO with id '"+unknownID+"' not found")

	env = f.call(t, todo.DeleteToolName, tools.Args{"id": "not-a-uuid"})
	assertFailure(t, env, errors.CodeValidation, "Invalid TODO ID format")

	created := f.create(t, tools.Args{"title": "Buy milk"})
	require.True(t, f.call(t, todo.DeleteToolName, tools.Args{"id": created.ID}).Success)

	env = f.call(t, todo.DeleteToolName, tools.Args{"id": created.ID})
	assertFailure(t, env, errors.CodeNotFound, "TODO with id '"+created.ID+"' not found")
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	milk := f.create(t, tools.Args{"title": "Buy milk", "tags": []any{"shopping"}})
	report := f.create(t, tools.Args{"title": "Write report", "description": "Quarterly NUMBERS", "priority": "high", "tags": []any{"work"}})
	mom := f.create(t, tools.Args{"title": "call mom", "priority": "low", "tags": []any{"family", "phone"}})
	require.True(t, f.call(t, todo.UpdateToolName, tools.Args{"id": report.ID, "completed": true}).Success)

	tests := []struct {
		name string
		args tools.Args
		want []string
	}{
		{"default newest first", nil, []string{mom.ID, report.ID, milk.ID}},
		{"completed", tools.Args{"completed": true}, []string{report.ID}},
		{"open and low", tools.Args{"completed": false, "priority": "low"}, []string{mom.ID}},
		{"any tag", tools.Args{"tags": []any{"phone", "shopping"}}, []string{mom.ID, milk.ID}},
		{"search description", tools.Args{"search": "numbers"}, []string{report.ID}},
		{"priority asc", tools.Args{"sortBy": "priority", "sortOrder": "asc"}, []string{mom.ID, milk.ID, report.ID}},
		{"title asc", tools.Args{"sortBy": "title", "sortOrder": "asc"}, []string{milk.ID, report.ID, mom.ID}},
		{"updated desc", tools.Args{"sortBy": "updatedAt"}, []string{report.ID, mom.ID, milk.ID}},
		{
			"lenient",
			tools.Args{"completed": "yes", "priority": "urgent", "tags": "work", "search": 3.0, "sortBy": "bogus", "sortOrder": "sideways"},
			[]string{mom.ID, report.ID, milk.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.list(t, tt.args)
			assert.Equal(t, tt.want, ids(got.Todos))
			assert.Equal(t, len(tt.want), got.Total)
		})
	}
}

func TestListEchoesFilters(t *testing.T) {
	f := newFixture(t)

	env := f.call(t, todo.ListToolName, tools.Args{"completed": false, "search": "milk", "sortBy": "title"})
	require.True(t, env.Success)

	var payload struct {
		Filters map[string]any `json:"filters"`
	}
	require.NoError(t, env.DecodeData(&payload))
	assert.Equal(t, map[string]any{"completed": false, "search": "milk", "sortBy": "title"}, payload.Filters)
}

func TestPublishFailureDoesNotFailCall(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	created := f.create(t, tools.Args{"title": "Buy milk"})
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, f.store.Count())
}
