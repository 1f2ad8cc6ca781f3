package todo

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/d-kuro/todo-mcp/internal/prompts"
	"github.com/d-kuro/todo-mcp/internal/security"
	"github.com/d-kuro/todo-mcp/internal/storage"
)

// idPattern mirrors the identifier check done by the validator.
const idPattern = "^[a-f0-9-]{36}$"

func priorityEnum() []any {
	out := make([]any, 0, 3)
	for _, p := range storage.Priorities() {
		out = append(out, string(p))
	}
	return out
}

func idProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: description,
		Pattern:     idPattern,
	}
}

func titleProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: prompts.TitleArgDescription,
		MinLength:   jsonschema.Ptr(1),
		MaxLength:   jsonschema.Ptr(security.DefaultMaxTitleLength),
	}
}

func descriptionProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: prompts.DescriptionArgDescription,
		MaxLength:   jsonschema.Ptr(security.DefaultMaxDescriptionLength),
	}
}

func tagsProperty(description string, limited bool) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
	}
	if limited {
		s.MaxItems = jsonschema.Ptr(security.DefaultMaxTags)
	}
	return s
}

func createInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title":       titleProperty(),
			"description": descriptionProperty(),
			"priority": {
				Type:        "string",
				Description: prompts.PriorityArgDescription,
				Enum:        priorityEnum(),
				Default:     json.RawMessage(`"medium"`),
			},
			"tags": tagsProperty(prompts.TagsArgDescription, true),
		},
		Required: []string{"title"},
	}
}

func listInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"completed": {Type: "boolean", Description: prompts.CompletedFilterDescription},
			"priority": {
				Type:        "string",
				Description: prompts.PriorityFilterDescription,
				Enum:        priorityEnum(),
			},
			"tags":   tagsProperty(prompts.TagsFilterDescription, false),
			"search": {Type: "string", Description: prompts.SearchFilterDescription},
			"sortBy": {
				Type:        "string",
				Description: prompts.SortByDescription,
				Enum: []any{
					string(storage.SortByCreatedAt),
					string(storage.SortByUpdatedAt),
					string(storage.SortByPriority),
					string(storage.SortByTitle),
				},
				Default: json.RawMessage(`"createdAt"`),
			},
			"sortOrder": {
				Type:        "string",
				Description: prompts.SortOrderDescription,
				Enum:        []any{string(storage.SortAsc), string(storage.SortDesc)},
				Default:     json.RawMessage(`"desc"`),
			},
		},
	}
}

func updateInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id":          idProperty(prompts.IDArgDescription),
			"title":       titleProperty(),
			"description": descriptionProperty(),
			"completed":   {Type: "boolean", Description: prompts.CompletedArgDescription},
			"priority": {
				Type:        "string",
				Description: prompts.PriorityArgDescription,
				Enum:        priorityEnum(),
			},
			"tags": tagsProperty(prompts.TagsArgDescription, true),
		},
		Required: []string{"id"},
	}
}

func deleteInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id": idProperty(prompts.IDArgDescription),
		},
		Required: []string{"id"},
	}
}
