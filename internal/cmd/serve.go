package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/d-kuro/todo-mcp/internal/config"
	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/logging"
	"github.com/d-kuro/todo-mcp/internal/metrics"
	"github.com/d-kuro/todo-mcp/internal/server"
	"github.com/d-kuro/todo-mcp/pkg/version"
)

const shutdownTimeout = 5 * time.Second

// ServeFlags holds the flags of the serve command. The root command shares
// them so that serve is its default action.
type ServeFlags struct {
	commonFlags
	httpAddr      string
	metricsAddr   string
	natsURL       string
	eventsSubject string
}

// AddFlags registers the serve flags on fs.
func (f *ServeFlags) AddFlags(fs *pflag.FlagSet) {
	f.commonFlags.addFlags(fs)
	fs.StringVar(&f.httpAddr, "http", "", "Serve streamable HTTP on this address instead of stdio (e.g. :8080)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Expose /metrics on this address when serving stdio")
	fs.StringVar(&f.natsURL, "nats-url", "", "Publish todo change events to this NATS server")
	fs.StringVar(&f.eventsSubject, "events-subject", events.DefaultSubject, "Subject for todo change events")
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	flags := &ServeFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the todo MCP server",
		Long: `Run the todo MCP server. It speaks MCP over stdio by default, or over
streamable HTTP at /mcp when --http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunServe(cmd, flags)
		},
	}
	flags.AddFlags(cmd.Flags())
	return cmd
}

// RunServe loads the configuration and runs the server until it is
// interrupted or the stdio session ends.
func RunServe(cmd *cobra.Command, flags *ServeFlags) error {
	cfg, err := loadConfig(cmd, flags.configFile)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runServe(ctx, cfg, logging.NewLogger(cfg.LogLevel), &mcp.StdioTransport{})
}

// runServe runs the server over transport, or over HTTP when cfg.HTTPAddr
// is set.
func runServe(ctx context.Context, cfg *config.Config, logger *logging.Logger, transport mcp.Transport) error {
	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.HTTPAddr != "" || cfg.MetricsAddr != "" {
		m = metrics.New()
	}

	srv, err := server.New(&server.Options{
		Logger:    logger,
		Publisher: publisher,
		Metrics:   m,
	})
	if err != nil {
		_ = publisher.Close()
		logger.Error("Failed to create server", "error", err.Error())
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		_ = publisher.Close()
		logger.Error("Failed to start server", "error", err.Error())
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("todo MCP server starting",
		"version", version.GetVersion().Version,
		"http", cfg.HTTPAddr,
		"tools_available", srv.GetRegistry().Count(),
	)

	var serveErr error
	if cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			serveErr = fmt.Errorf("failed to listen on %s: %w", cfg.HTTPAddr, err)
		} else {
			serveErr = serveHTTP(ctx, ln, srv.HTTPHandler(), logger)
		}
	} else {
		if cfg.MetricsAddr != "" {
			go func() {
				if err := listenMetrics(ctx, cfg.MetricsAddr, m, logger); err != nil {
					logger.Error("Metrics listener failed", "error", err.Error())
				}
			}()
		}
		serveErr = srv.Serve(ctx, transport)
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logger.Error("Server error", "error", serveErr.Error())
	} else {
		serveErr = nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping server", "error", err.Error())
	}

	logger.Info("todo MCP server stopped")
	return serveErr
}

func newPublisher(cfg *config.Config, logger *logging.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return events.NoopPublisher{}, nil
	}
	publisher, err := events.DialNATS(cfg.NATSURL, events.WithSubject(cfg.EventsSubject))
	if err != nil {
		logger.Error("Failed to connect to NATS", "url", cfg.NATSURL, "error", err.Error())
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	logger.Info("Publishing todo events", "url", cfg.NATSURL, "subject", publisher.Subject())
	return publisher, nil
}

func listenMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *logging.Logger) error {
	r := chi.NewRouter()
	r.Get("/health", server.HealthHandler)
	r.Handle("/metrics", m.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return serveHTTP(ctx, ln, r, logger.WithComponent("metrics"))
}

// serveHTTP serves handler on ln until ctx is done, then shuts down
// gracefully.
func serveHTTP(ctx context.Context, ln net.Listener, handler http.Handler, logger *logging.Logger) error {
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
