// Package server implements the MCP server exposing the todo tools and resources.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/logging"
	"github.com/d-kuro/todo-mcp/internal/metrics"
	"github.com/d-kuro/todo-mcp/internal/resources"
	"github.com/d-kuro/todo-mcp/internal/security"
	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
	"github.com/d-kuro/todo-mcp/internal/tools/todo"
	"github.com/d-kuro/todo-mcp/pkg/version"
)

// loggerAdapter wraps logging.Logger to implement tools.Logger interface.
// This avoids circular dependency between logging and tools packages.
type loggerAdapter struct {
	*logging.Logger
}

// WithTool implements tools.Logger interface.
func (a *loggerAdapter) WithTool(toolName string) tools.Logger {
	return &loggerAdapter{Logger: a.Logger.WithTool(toolName)}
}

// WithSession implements tools.Logger interface.
func (a *loggerAdapter) WithSession(sessionID string) tools.Logger {
	return &loggerAdapter{Logger: a.Logger.WithSession(sessionID)}
}

// Server represents the todo MCP server.
type Server struct {
	mcpServer *mcp.Server
	registry  *tools.Registry
	resources *resources.Registry
	store     *storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
	validator security.Validator
}

// Options configures the server instance. Nil fields get defaults: a fresh
// store, no event publishing, no metrics and the built-in resources.
type Options struct {
	Logger    *logging.Logger
	Validator security.Validator
	Store     *storage.Store
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Resources *resources.Registry
}

// New creates a new todo MCP server with the given options.
func New(opts *Options) (*Server, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("info")
	}
	if opts.Validator == nil {
		opts.Validator = security.NewDefaultValidator()
	}
	if opts.Store == nil {
		opts.Store = storage.NewStore()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	if opts.Resources == nil {
		opts.Resources = resources.Default()
	}

	toolCtx := &tools.Context{
		Logger:    &loggerAdapter{Logger: opts.Logger},
		Validator: opts.Validator,
	}
	if opts.Metrics != nil {
		toolCtx.Recorder = opts.Metrics
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    version.Name,
		Version: version.GetVersion().Version,
	}, &mcp.ServerOptions{
		Logger: opts.Logger.WithComponent("mcp").Slog(),
	})

	server := &Server{
		mcpServer: mcpServer,
		registry:  tools.NewRegistry(toolCtx),
		resources: opts.Resources,
		store:     opts.Store,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		validator: opts.Validator,
	}

	if err := server.registerTools(toolCtx); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	server.registerResources()

	return server, nil
}

// Start validates the server before it accepts sessions.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting todo MCP server",
		"version", version.GetVersion().Version,
		"tools", s.registry.Count(),
		"resources", s.resources.Count(),
	)

	if err := s.registry.Validate(); err != nil {
		return fmt.Errorf("tool registry validation failed: %w", err)
	}

	return nil
}

// Stop stops the MCP server gracefully and releases the event publisher.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping todo MCP server")

	done := make(chan error, 1)
	go func() {
		done <- s.publisher.Close()
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Server stop timed out")
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to close event publisher: %w", err)
		}
		s.logger.Info("Server stopped successfully")
		return nil
	}
}

// GetRegistry returns the tool registry.
func (s *Server) GetRegistry() *tools.Registry {
	return s.registry
}

// Store returns the todo store shared by every session.
func (s *Server) Store() *storage.Store {
	return s.store
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// registerTools registers the todo tools with the registry and the MCP server.
func (s *Server) registerTools(toolCtx *tools.Context) error {
	s.logger.Debug("Registering tools with MCP server")

	todoTools := todo.CreateTodoTools(toolCtx, todo.Deps{
		Store:     s.store,
		Publisher: s.publisher,
	})
	if err := s.registry.RegisterAll(todoTools...); err != nil {
		return err
	}

	var toolNames []string
	for _, st := range s.registry.ServerTools() {
		s.mcpServer.AddTool(st.Tool, st.Handler)
		toolNames = append(toolNames, st.Tool.Name)

		s.logger.Debug("Registered tool", "name", st.Tool.Name)
	}

	s.logger.Info("Successfully registered tools",
		"count", len(toolNames),
		"tools", toolNames,
	)

	return nil
}

func (s *Server) registerResources() {
	for _, res := range s.resources.List() {
		s.mcpServer.AddResource(res, s.resources.Handler())
		s.logger.Debug("Registered resource", "uri", res.URI)
	}
}

// Serve runs the MCP server with the specified transport.
// It connects the MCP server to the transport and waits for either
// the session to complete or the context to be cancelled.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("Starting MCP server transport",
		"transport", fmt.Sprintf("%T", transport),
	)

	session, err := s.mcpServer.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("failed to connect MCP server: %w", err)
	}

	sessionDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("MCP session goroutine panicked", "panic", fmt.Sprint(r))
				sessionDone <- fmt.Errorf("session panicked: %v", r)
			}
		}()
		sessionDone <- session.Wait()
	}()

	select {
	case err := <-sessionDone:
		s.logger.Info("MCP session finished")
		return err
	case <-ctx.Done():
		s.logger.Info("MCP server shutting down due to context cancellation")
		_ = session.Close()
		return ctx.Err()
	}
}

// HTTPHandler serves the streamable HTTP transport at /mcp next to /health
// and, when metrics are enabled, /metrics. Every HTTP session shares the
// server's store.
func (s *Server) HTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logger.HTTPMiddleware()...)

	r.Get("/health", HealthHandler)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, &mcp.StreamableHTTPOptions{
		Logger: s.logger.WithComponent("streamable-http").Slog(),
	})
	r.Handle("/mcp", mcpHandler)
	r.Handle("/mcp/*", mcpHandler)

	return r
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
