// Package proxy bridges plain HTTP requests to upstream MCP todo servers so
// that a browser front end can call the tools without speaking MCP.
package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/errors"
	"github.com/d-kuro/todo-mcp/internal/logging"
	"github.com/d-kuro/todo-mcp/internal/metrics"
)

// SessionHeader selects the upstream session a request is routed to.
const SessionHeader = "X-Session-ID"

// Proxy serves the HTTP API.
type Proxy struct {
	pool    *Pool
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// Options configures a Proxy. Metrics may be nil.
type Options struct {
	Connector Connector
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
}

// New creates a proxy. Sessions are opened lazily through opts.Connector.
func New(opts Options) *Proxy {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.WithComponent("proxy")
	return &Proxy{
		pool:    NewPool(opts.Connector, logger),
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// Close closes every upstream session.
func (p *Proxy) Close() error {
	return p.pool.Close()
}

// Sessions returns the number of upstream sessions.
func (p *Proxy) Sessions() int {
	return p.pool.Len()
}

// Handler returns the proxy's router.
func (p *Proxy) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader},
		MaxAge:         300,
	}))
	r.Use(p.logger.HTTPMiddleware()...)
	if p.metrics != nil {
		r.Use(p.observe)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if p.metrics != nil {
		r.Handle("/metrics", p.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tools", p.listTools)
		r.Post("/tools/{toolName}", p.callTool)
		r.Get("/resources", p.listResources)
		r.Get("/resources/*", p.readResource)
	})

	return r
}

func (p *Proxy) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		p.metrics.ObserveProxyRequest(route, status)
	})
}

func (p *Proxy) session(r *http.Request) (*mcp.ClientSession, error) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		id = DefaultSessionID
	}
	return p.pool.Get(r.Context(), id)
}

func (p *Proxy) listTools(w http.ResponseWriter, r *http.Request) {
	cs, err := p.session(r)
	if err != nil {
		p.fail(w, "Error listing tools", err)
		return
	}
	res, err := cs.ListTools(r.Context(), nil)
	if err != nil {
		p.fail(w, "Error listing tools", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (p *Proxy) callTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "toolName")

	args, err := decodeArguments(r.Body)
	if err != nil {
		p.logger.Warn("Invalid tool arguments", "tool", name, "error", err.Error())
		writeError(w, http.StatusBadRequest, errors.CodeValidation, err.Error())
		return
	}

	cs, err := p.session(r)
	if err != nil {
		p.fail(w, "Error calling tool", err)
		return
	}
	res, err := cs.CallTool(r.Context(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		p.fail(w, "Error calling tool", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (p *Proxy) listResources(w http.ResponseWriter, r *http.Request) {
	cs, err := p.session(r)
	if err != nil {
		p.fail(w, "Error listing resources", err)
		return
	}
	res, err := cs.ListResources(r.Context(), nil)
	if err != nil {
		p.fail(w, "Error listing resources", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (p *Proxy) readResource(w http.ResponseWriter, r *http.Request) {
	uri, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		p.fail(w, "Error reading resource", err)
		return
	}

	cs, err := p.session(r)
	if err != nil {
		p.fail(w, "Error reading resource", err)
		return
	}
	res, err := cs.ReadResource(r.Context(), &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		p.fail(w, "Error reading resource", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (p *Proxy) fail(w http.ResponseWriter, msg string, err error) {
	p.logger.Error(msg, "error", err.Error())
	writeError(w, http.StatusInternalServerError, errors.CodeInternal, err.Error())
}

// decodeArguments reads a JSON object body. An empty body means no arguments.
func decodeArguments(body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request body")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, errors.New("Request body must be a JSON object")
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code errors.Code, message string) {
	writeJSON(w, status, errorPayload{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
