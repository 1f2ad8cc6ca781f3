package todo

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
)

// ListTool implements todo_list.
type ListTool struct {
	*tools.BaseTool
	svc *service
}

// Schema returns the MCP tool schema.
func (t *ListTool) Schema() *mcp.Tool {
	return schemaFor(t.BaseTool, "List TODOs", listInputSchema(), &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
	})
}

// Execute lists todos. Filters are read leniently: a missing, mistyped or
// unknown value places no constraint.
func (t *ListTool) Execute(_ context.Context, args tools.Args) (any, error) {
	return t.svc.store.FindAll(parseFilters(args)), nil
}

func parseFilters(args tools.Args) *storage.Filters {
	f := &storage.Filters{}

	if completed, ok, err := args.Bool("completed"); ok && err == nil {
		f.Completed = &completed
	}
	if p, ok, err := args.String("priority"); ok && err == nil && storage.Priority(p).Valid() {
		f.Priority = storage.Priority(p)
	}
	if tags, ok, err := args.Strings("tags"); ok && err == nil {
		f.Tags = tags
	}
	if search, ok, err := args.String("search"); ok && err == nil {
		f.Search = search
	}
	if s, ok, err := args.String("sortBy"); ok && err == nil {
		if field, known := storage.ParseSortField(s); known {
			f.SortBy = field
		}
	}
	if s, ok, err := args.String("sortOrder"); ok && err == nil {
		if order, known := storage.ParseSortOrder(s); known {
			f.SortOrder = order
		}
	}

	return f
}
