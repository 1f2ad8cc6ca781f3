package proxy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/collections"
	"github.com/d-kuro/todo-mcp/internal/logging"
	"github.com/d-kuro/todo-mcp/pkg/version"
)

// DefaultSessionID is used when a request carries no X-Session-ID header.
const DefaultSessionID = "default"

// Connector opens an MCP client session to an upstream todo server.
type Connector interface {
	Connect(ctx context.Context, sessionID string) (*mcp.ClientSession, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, sessionID string) (*mcp.ClientSession, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, sessionID string) (*mcp.ClientSession, error) {
	return f(ctx, sessionID)
}

// NewClient returns the MCP client the proxy presents to upstream servers.
func NewClient() *mcp.Client {
	return mcp.NewClient(&mcp.Implementation{
		Name:    version.Name + "-proxy",
		Version: version.GetVersion().Version,
	}, nil)
}

// CommandConnector spawns one server process per session and talks to it
// over stdio.
type CommandConnector struct {
	Command []string
	Client  *mcp.Client
	Logger  *logging.Logger
}

// NewCommandConnector returns a connector running command. An empty command
// re-executes the current binary with the serve subcommand.
func NewCommandConnector(command []string, logger *logging.Logger) (*CommandConnector, error) {
	if len(command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable: %w", err)
		}
		command = collections.Concat([]string{exe}, []string{"serve"})
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &CommandConnector{Command: command, Client: NewClient(), Logger: logger}, nil
}

// Connect implements Connector.
func (c *CommandConnector) Connect(ctx context.Context, sessionID string) (*mcp.ClientSession, error) {
	// The process outlives the request that created it.
	cmd := exec.Command(c.Command[0], c.Command[1:]...)
	cmd.Stderr = os.Stderr

	c.Logger.Info("Spawning upstream server",
		"session", sessionID,
		"command", c.Command,
	)

	session, err := c.Client.Connect(ctx, &mcp.CommandTransport{
		Command:           cmd,
		TerminateDuration: 5 * time.Second,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect upstream server: %w", err)
	}
	return session, nil
}

type sessionEntry struct {
	once    sync.Once
	session *mcp.ClientSession
	err     error
}

// Pool holds one upstream client session per proxy session id.
type Pool struct {
	connector Connector
	sessions  *collections.SyncMap[string, *sessionEntry]
	logger    *logging.Logger
}

// NewPool creates an empty pool.
func NewPool(connector Connector, logger *logging.Logger) *Pool {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pool{
		connector: connector,
		sessions:  collections.NewSyncMap[string, *sessionEntry](),
		logger:    logger,
	}
}

// Get returns the session for id, connecting it on first use. Concurrent
// callers for the same id share one connection attempt. A failed attempt is
// forgotten so the next request retries.
func (p *Pool) Get(ctx context.Context, id string) (*mcp.ClientSession, error) {
	entry, _ := p.sessions.LoadOrStore(id, &sessionEntry{})
	entry.once.Do(func() {
		entry.session, entry.err = p.connector.Connect(ctx, id)
		if entry.err != nil {
			p.sessions.Delete(id)
			return
		}
		p.logger.Info("Opened proxy session", "session", id)
	})
	return entry.session, entry.err
}

// Len returns the number of open or opening sessions.
func (p *Pool) Len() int {
	return p.sessions.Len()
}

// Close closes every session in the pool.
func (p *Pool) Close() error {
	var errs []error
	for id, entry := range p.sessions.Drain() {
		if entry.session == nil {
			continue
		}
		if err := entry.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close proxy sessions: %w", errors.Join(errs...))
	}
	return nil
}
