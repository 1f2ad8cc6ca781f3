package todo

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
)

// UpdateTool implements todo_update.
type UpdateTool struct {
	*tools.BaseTool
	svc *service
}

// Schema returns the MCP tool schema.
func (t *UpdateTool) Schema() *mcp.Tool {
	return schemaFor(t.BaseTool, "Update TODO", updateInputSchema(), &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
	})
}

// Execute applies a partial update. The id is checked for shape and
// existence before any field is validated.
func (t *UpdateTool) Execute(ctx context.Context, args tools.Args) (any, error) {
	id, err := t.svc.requireExisting(args)
	if err != nil {
		return nil, err
	}

	patch, err := t.parsePatch(args)
	if err != nil {
		return nil, err
	}

	todo, ok := t.svc.store.Update(id, patch)
	if !ok {
		return nil, notFound(id)
	}
	t.svc.logger.WithTool(t.Name()).Info("todo updated", "id", id)
	t.svc.publish(ctx, events.Updated(todo, t.svc.now()))

	return todo, nil
}

func (t *UpdateTool) parsePatch(args tools.Args) (storage.Patch, error) {
	v := t.svc.validator
	var patch storage.Patch

	title, ok, err := args.String("title")
	if err != nil {
		return patch, err
	}
	if ok {
		if err := v.ValidateTitle(title, false); err != nil {
			return patch, err
		}
		trimmed := strings.TrimSpace(title)
		patch.Title = &trimmed
	}

	description, ok, err := args.String("description")
	if err != nil {
		return patch, err
	}
	if ok {
		if err := v.ValidateDescription(description); err != nil {
			return patch, err
		}
		trimmed := strings.TrimSpace(description)
		patch.Description = &trimmed
	}

	tags, ok, err := args.Strings("tags")
	if err != nil {
		return patch, err
	}
	if ok {
		if err := v.ValidateTags(tags); err != nil {
			return patch, err
		}
		patch.Tags = tags
	}

	completed, ok, err := args.Bool("completed")
	if err != nil {
		return patch, err
	}
	if ok {
		patch.Completed = &completed
	}

	p, ok, err := args.String("priority")
	if err != nil {
		return patch, err
	}
	if ok {
		if err := v.ValidatePriority(p); err != nil {
			return patch, err
		}
		priority := storage.Priority(p)
		patch.Priority = &priority
	}

	return patch, nil
}

func boolPtr(b bool) *bool {
	return &b
}
