// Package todo provides the MCP tools that manage todo items.
package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/errors"
	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/prompts"
	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
)

// Tool names.
const (
	CreateToolName = "todo_create"
	ListToolName   = "todo_list"
	UpdateToolName = "todo_update"
	DeleteToolName = "todo_delete"
)

// Deps are the collaborators shared by the todo tools.
type Deps struct {
	Store     *storage.Store
	Publisher events.Publisher
	Now       func() time.Time
}

// service holds what every todo tool needs to run.
type service struct {
	store     *storage.Store
	publisher events.Publisher
	now       func() time.Time
	validator tools.Validator
	logger    tools.Logger
}

func newService(ctx *tools.Context, deps Deps) *service {
	s := &service{
		store:     deps.Store,
		publisher: deps.Publisher,
		now:       deps.Now,
		validator: ctx.Validator,
		logger:    ctx.Logger,
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// publish hands ev to the publisher. Delivery failures never fail the call.
func (s *service) publish(ctx context.Context, ev events.TodoEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish todo event", "type", string(ev.Type), "id", ev.ID, "error", err.Error())
	}
}

// requireExisting validates id and checks that the todo exists.
func (s *service) requireExisting(args tools.Args) (string, error) {
	id, _, err := args.String("id")
	if err != nil {
		id = ""
	}
	if err := s.validator.ValidateID(id); err != nil {
		return "", err
	}
	if _, ok := s.store.FindByID(id); !ok {
		return "", notFound(id)
	}
	return id, nil
}

func notFound(id string) error {
	return errors.NotFound(fmt.Sprintf("TODO with id '%s' not found", id))
}

// CreateTodoTools creates all todo management tools.
func CreateTodoTools(ctx *tools.Context, deps Deps) []tools.Tool {
	svc := newService(ctx, deps)
	p := prompts.Default()
	return []tools.Tool{
		&CreateTool{BaseTool: tools.NewBaseTool(CreateToolName, p.TodoCreate, ctx), svc: svc},
		&ListTool{BaseTool: tools.NewBaseTool(ListToolName, p.TodoList, ctx), svc: svc},
		&UpdateTool{BaseTool: tools.NewBaseTool(UpdateToolName, p.TodoUpdate, ctx), svc: svc},
		&DeleteTool{BaseTool: tools.NewBaseTool(DeleteToolName, p.TodoDelete, ctx), svc: svc},
	}
}

func schemaFor(base *tools.BaseTool, title string, input any, annotations *mcp.ToolAnnotations) *mcp.Tool {
	return &mcp.Tool{
		Name:        base.Name(),
		Title:       title,
		Description: base.Description(),
		InputSchema: input,
		Annotations: annotations,
	}
}
