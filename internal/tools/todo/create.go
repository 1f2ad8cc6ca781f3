package todo

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
)

// CreateTool implements todo_create.
type CreateTool struct {
	*tools.BaseTool
	svc *service
}

// Schema returns the MCP tool schema.
func (t *CreateTool) Schema() *mcp.Tool {
	return schemaFor(t.BaseTool, "Create TODO", createInputSchema(), nil)
}

// Execute validates the input and stores a new todo. Priority defaults to
// medium and tags to an empty list.
func (t *CreateTool) Execute(ctx context.Context, args tools.Args) (any, error) {
	v := t.svc.validator

	title, _, err := args.String("title")
	if err != nil {
		return nil, err
	}
	if err := v.ValidateTitle(title, true); err != nil {
		return nil, err
	}

	description, _, err := args.String("description")
	if err != nil {
		return nil, err
	}
	if err := v.ValidateDescription(description); err != nil {
		return nil, err
	}

	tags, _, err := args.Strings("tags")
	if err != nil {
		return nil, err
	}
	if err := v.ValidateTags(tags); err != nil {
		return nil, err
	}

	priority := storage.PriorityMedium
	p, _, err := args.String("priority")
	if err != nil {
		return nil, err
	}
	if p != "" {
		if err := v.ValidatePriority(p); err != nil {
			return nil, err
		}
		priority = storage.Priority(p)
	}

	todo := t.svc.store.Create(storage.NewTodo{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    priority,
		Tags:        tags,
	})
	t.svc.logger.WithTool(t.Name()).Info("todo created", "id", todo.ID)
	t.svc.publish(ctx, events.Created(todo, t.svc.now()))

	return todo, nil
}
