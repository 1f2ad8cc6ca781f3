package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-kuro/todo-mcp/internal/errors"
	"github.com/d-kuro/todo-mcp/internal/logging"
	"github.com/d-kuro/todo-mcp/internal/metrics"
	"github.com/d-kuro/todo-mcp/internal/resources"
	"github.com/d-kuro/todo-mcp/internal/storage"
	"github.com/d-kuro/todo-mcp/internal/tools"
)

func newTestServer(t *testing.T, opts *Options) *Server {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	s, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	return s
}

func connectClient(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *tools.RawEnvelope {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	env, err := tools.ParseResult(res)
	require.NoError(t, err)
	assert.Equal(t, !env.Success, res.IsError)
	return env
}

func TestListTools(t *testing.T) {
	cs := connectClient(t, newTestServer(t, nil))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.InputSchema)
	}
	assert.ElementsMatch(t, []string{"todo_create", "todo_list", "todo_update", "todo_delete"}, names)
}

func TestToolRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	cs := connectClient(t, s)

	env := callTool(t, cs, "todo_create", map[string]any{"title": "Buy milk", "tags": []string{"shopping"}})
	require.True(t, env.Success)
	var created storage.Todo
	require.NoError(t, env.DecodeData(&created))
	assert.Equal(t, storage.PriorityMedium, created.Priority)
	assert.Equal(t, 1, s.Store().Count())

	env = callTool(t, cs, "todo_update", map[string]any{"id": "not-a-uuid", "completed": true})
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.CodeValidation, env.Error.Code)
	assert.Equal(t, "Invalid TODO ID format", env.Error.Message)

	env = callTool(t, cs, "todo_create", map[string]any{"title": ""})
	require.NotNil(t, env.Error)
	assert.Equal(t, "Title is required and cannot be empty", env.Error.Message)

	env = callTool(t, cs, "todo_list", nil)
	require.True(t, env.Success)
	var list storage.ListResult
	require.NoError(t, env.DecodeData(&list))
	assert.Equal(t, 1, list.Total)
}

func TestUnknownToolIsProtocolError(t *testing.T) {
	cs := connectClient(t, newTestServer(t, nil))

	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "todo_archive"})
	assert.Error(t, err)
}

func TestSessionsShareStore(t *testing.T) {
	s := newTestServer(t, nil)
	first := connectClient(t, s)
	second := connectClient(t, s)

	require.True(t, callTool(t, first, "todo_create", map[string]any{"title": "Shared"}).Success)

	env := callTool(t, second, "todo_list", map[string]any{"search": "shared"})
	var list storage.ListResult
	require.NoError(t, env.DecodeData(&list))
	assert.Equal(t, 1, list.Total)
}

func TestResources(t *testing.T) {
	cs := connectClient(t, newTestServer(t, nil))
	ctx := context.Background()

	list, err := cs.ListResources(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Resources, 1)
	assert.Equal(t, resources.TodoInterfaceURI, list.Resources[0].URI)
	assert.Equal(t, "TODO Interface", list.Resources[0].Name)
	assert.Equal(t, resources.TodoInterfaceMIMEType, list.Resources[0].MIMEType)

	read, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: resources.TodoInterfaceURI})
	require.NoError(t, err)
	require.Len(t, read.Contents, 1)
	assert.Contains(t, read.Contents[0].Text, `"type":"resource"`)

	_, err = cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "ui://todo/unknown"})
	assert.Error(t, err)
}

func TestToolCallsAreMetered(t *testing.T) {
	m := metrics.New()
	s := newTestServer(t, &Options{Metrics: m})
	cs := connectClient(t, s)

	callTool(t, cs, "todo_create", map[string]any{"title": "Buy milk"})
	callTool(t, cs, "todo_delete", map[string]any{"id": "00000000-0000-4000-8000-000000000000"})

	rec := httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `todo_tool_calls_total{outcome="success",tool="todo_create"} 1`)
	assert.Contains(t, rec.Body.String(), `todo_tool_calls_total{outcome="NOT_FOUND",tool="todo_delete"} 1`)
}

func TestHTTPHandlerHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamableHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.HTTPHandler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "http-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "todo_create", Arguments: map[string]any{"title": "Over HTTP"}})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 1, s.Store().Count())
}

func TestServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	serverTransport, _ := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, serverTransport) }()
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestStop(t *testing.T) {
	s := newTestServer(t, nil)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestServerLogsRegistration(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(&Options{Logger: logging.New(&buf, "info")})
	require.NoError(t, err)

	var line map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		require.NoError(t, json.Unmarshal(raw, &line))
		if line["message"] == "Successfully registered tools" {
			assert.EqualValues(t, 4, line["count"])
			return
		}
	}
	t.Fatal("registration was not logged")
}
