// Package tools provides tool registry and dispatch for MCP tools.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/errors"
)

// Registry manages the collection of available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	ctx   *Context
}

// NewRegistry creates a new tool registry with the given context.
func NewRegistry(ctx *Context) *Registry {
	return &Registry{
		tools: make(map[string]Tool),
		ctx:   ctx,
	}
}

// Register registers a tool with the registry.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s is already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// RegisterAll registers each tool in order, stopping at the first failure.
func (r *Registry) RegisterAll(tools ...Tool) error {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// GetMCPTools returns MCP tool schemas for all registered tools, ordered by name.
func (r *Registry) GetMCPTools() []*mcp.Tool {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*mcp.Tool, 0, len(names))
	for _, name := range names {
		if tool, ok := r.tools[name]; ok {
			tools = append(tools, tool.Schema())
		}
	}

	return tools
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return false
	}

	delete(r.tools, name)
	return true
}

// Validate checks if all registered tools are properly configured.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, tool := range r.tools {
		if tool.Name() != name {
			return fmt.Errorf("tool name mismatch: registered as %s but reports name %s", name, tool.Name())
		}

		if tool.Description() == "" {
			return fmt.Errorf("tool %s has empty description", name)
		}

		schema := tool.Schema()
		if schema == nil {
			return fmt.Errorf("tool %s has nil schema", name)
		}

		if schema.InputSchema == nil {
			return fmt.Errorf("tool %s has nil input schema", name)
		}
	}

	return nil
}

// Call dispatches a call to the named tool. An unknown name is a protocol
// error; everything the tool itself reports comes back in the envelope.
func (r *Registry) Call(ctx context.Context, name string, args Args) (Envelope, error) {
	tool, ok := r.Get(name)
	if !ok {
		return Envelope{}, fmt.Errorf("unknown tool: %s", name)
	}
	return r.invoke(ctx, tool, args, r.ctx.Logger.WithTool(name)), nil
}

// ServerTools adapts every registered tool to the MCP SDK handler shape,
// ordered by name.
func (r *Registry) ServerTools() []*ServerTool {
	names := r.List()
	out := make([]*ServerTool, 0, len(names))
	for _, name := range names {
		tool, ok := r.Get(name)
		if !ok {
			continue
		}
		out = append(out, &ServerTool{
			Tool:    tool.Schema(),
			Handler: r.handler(tool),
		})
	}
	return out
}

func (r *Registry) handler(tool Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := r.ctx.Logger.WithTool(tool.Name())
		if req.Session != nil {
			logger = logger.WithSession(req.Session.ID())
		}

		var raw []byte
		if req.Params != nil {
			raw = req.Params.Arguments
		}
		args, err := DecodeArgs(raw)
		if err != nil {
			env := ErrorResponse(err)
			r.observe(tool.Name(), env, 0)
			return env.Result(), nil
		}

		return r.invoke(ctx, tool, args, logger).Result(), nil
	}
}

// invoke runs tool and turns its outcome, including a panic, into an envelope.
func (r *Registry) invoke(ctx context.Context, tool Tool, args Args, logger Logger) (env Envelope) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("tool panicked", "panic", fmt.Sprint(p))
			env = ErrorResponse(panicError(p))
		}
		r.observe(tool.Name(), env, time.Since(start))
	}()

	logger.Debug("tool call started")

	data, err := tool.Execute(ctx, args)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeInternal {
			logger.Error("tool call failed", "error", err.Error())
		} else {
			logger.Debug("tool call rejected", "code", string(errors.CodeOf(err)), "error", errors.MessageOf(err))
		}
		return ErrorResponse(err)
	}

	logger.Debug("tool call completed", "duration", time.Since(start).String())
	return SuccessResponse(data)
}

func (r *Registry) observe(tool string, env Envelope, elapsed time.Duration) {
	if r.ctx.Recorder != nil {
		r.ctx.Recorder.ObserveToolCall(tool, env.Outcome(), elapsed)
	}
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return errors.InternalWithCause("", err)
	}
	return errors.Internal(fmt.Sprint(p))
}
