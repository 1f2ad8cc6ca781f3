// Package resources provides the static MCP resources served next to the todo tools.
package resources

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/prompts"
)

// Todo interface resource identity.
const (
	TodoInterfaceURI      = "ui://todo/interface"
	TodoInterfaceMIMEType = "text/html+skybridge"
)

//go:embed ui/todo.html
var todoHTML string

// UIResource is the descriptor an MCP UI host renders.
type UIResource struct {
	Type     string         `json:"type"`
	Resource UIResourceBody  `json:"resource"`
}

// UIResourceBody holds the embedded document of a UIResource.
type UIResourceBody struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Resource is a readable MCP resource whose contents are built by Render.
type Resource struct {
	Definition *mcp.Resource
	Render     func() (string, error)
}

// Registry manages the collection of available resources.
type Registry struct {
	mu        sync.RWMutex
	resources map[string]*Resource
}

// NewRegistry creates an empty resource registry.
func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]*Resource)}
}

// Default returns a registry holding the todo interface resource.
func Default() *Registry {
	r := NewRegistry()
	if err := r.Register(TodoInterface()); err != nil {
		panic(err)
	}
	return r
}

// TodoInterface returns the interactive todo UI resource.
func TodoInterface() *Resource {
	return &Resource{
		Definition: &mcp.Resource{
			URI:         TodoInterfaceURI,
			Name:        prompts.TodoInterfaceResourceName,
			Description: prompts.TodoInterfaceResourceDescription,
			MIMEType:    TodoInterfaceMIMEType,
		},
		Render: renderTodoInterface,
	}
}

func renderTodoInterface() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(UIResource{
		Type: "resource",
		Resource: UIResourceBody{
			URI:      TodoInterfaceURI,
			MIMEType: "text/html",
			Text:     todoHTML,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal UI resource: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Register adds a resource.
func (r *Registry) Register(res *Resource) error {
	if res == nil || res.Definition == nil || res.Definition.URI == "" {
		return fmt.Errorf("resource URI cannot be empty")
	}
	if res.Render == nil {
		return fmt.Errorf("resource %s has no renderer", res.Definition.URI)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[res.Definition.URI]; exists {
		return fmt.Errorf("resource %s is already registered", res.Definition.URI)
	}
	r.resources[res.Definition.URI] = res
	return nil
}

// List returns the resource definitions ordered by URI.
func (r *Registry) List() []*mcp.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*mcp.Resource, 0, len(r.resources))
	for _, res := range r.resources {
		out = append(out, res.Definition)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Count returns the number of registered resources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.resources)
}

// Read renders the resource at uri. An unknown uri yields the protocol's
// resource-not-found error.
func (r *Registry) Read(_ context.Context, uri string) (*mcp.ReadResourceResult, error) {
	r.mu.RLock()
	res, ok := r.resources[uri]
	r.mu.RUnlock()
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	text, err := res.Render()
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: res.Definition.MIMEType,
			Text:     text,
		}},
	}, nil
}

// Handler adapts Read to the MCP SDK resource handler shape.
func (r *Registry) Handler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return r.Read(ctx, req.Params.URI)
	}
}
