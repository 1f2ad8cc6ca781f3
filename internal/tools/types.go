// Package tools provides tool registry and common types for MCP tools.
package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool represents a todo tool that can be registered with the MCP server.
type Tool interface {
	// Name returns the tool name.
	Name() string

	// Description returns the tool description.
	Description() string

	// Schema returns the MCP tool schema for registration.
	Schema() *mcp.Tool

	// Execute runs the tool. The returned value becomes the envelope data;
	// a returned error becomes the envelope error.
	Execute(ctx context.Context, args Args) (any, error)
}

// ServerTool pairs a tool schema with the handler the MCP server dispatches to.
type ServerTool struct {
	Tool    *mcp.Tool
	Handler mcp.ToolHandler
}

// Context contains common dependencies needed by tools.
type Context struct {
	Logger    Logger
	Validator Validator
	Recorder  Recorder
}

// Logger defines the logging interface for tools.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithTool(toolName string) Logger
	WithSession(sessionID string) Logger
}

// Validator defines the input validation interface.
type Validator interface {
	ValidateID(id string) error
	ValidateTitle(title string, required bool) error
	ValidateDescription(description string) error
	ValidateTags(tags []string) error
	ValidatePriority(priority string) error
}

// Recorder receives one observation per tool call. Outcome is "success" or
// the failure code.
type Recorder interface {
	ObserveToolCall(tool, outcome string, elapsed time.Duration)
}

// BaseTool provides common functionality for all tools.
type BaseTool struct {
	name        string
	description string
	ctx         *Context
}

// NewBaseTool creates a new base tool with the given context.
func NewBaseTool(name, description string, ctx *Context) *BaseTool {
	return &BaseTool{
		name:        name,
		description: description,
		ctx:         ctx,
	}
}

// Name returns the tool name.
func (t *BaseTool) Name() string {
	return t.name
}

// Description returns the tool description.
func (t *BaseTool) Description() string {
	return t.description
}

// Context returns the tool context.
func (t *BaseTool) Context() *Context {
	return t.ctx
}
