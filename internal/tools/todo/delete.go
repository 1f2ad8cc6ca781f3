package todo

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
)

// DeleteResult is the payload of a successful todo_delete.
type DeleteResult struct {
	ID        string            `json:"id"`
	Deleted   bool              `json:"deleted"`
	DeletedAt storage.Timestamp `json:"deletedAt"`
}

// DeleteTool implements todo_delete.
type DeleteTool struct {
	*tools.BaseTool
	svc *service
}

// Schema returns the MCP tool schema.
func (t *DeleteTool) Schema() *mcp.Tool {
	return schemaFor(t.BaseTool, "Delete TODO", deleteInputSchema(), &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(true),
	})
}

// Execute removes the todo with the given id.
func (t *DeleteTool) Execute(ctx context.Context, args tools.Args) (any, error) {
	id, err := t.svc.requireExisting(args)
	if err != nil {
		return nil, err
	}

	if !t.svc.store.Delete(id) {
		return nil, notFound(id)
	}

	now := t.svc.now()
	t.svc.logger.WithTool(t.Name()).Info("todo deleted", "id", id)
	t.svc.publish(ctx, events.Deleted(id, now))

	return DeleteResult{
		ID:        id,
		Deleted:   true,
		DeletedAt: storage.NewTimestamp(now),
	}, nil
}
