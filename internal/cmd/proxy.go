package cmd

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/d-kuro/todo-mcp/internal/config"
	"github.com/d-kuro/todo-mcp/internal/logging"
	"github.com/d-kuro/todo-mcp/internal/metrics"
	"github.com/d-kuro/todo-mcp/internal/proxy"
)

// NewProxyCmd creates the proxy command.
func NewProxyCmd() *cobra.Command {
	var (
		flags         commonFlags
		addr          string
		serverCommand string
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the HTTP to MCP proxy",
		Long: `Run an HTTP API in front of the todo MCP server. Every X-Session-ID gets
its own server process, spoken to over stdio.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags.configFile)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger := logging.NewLogger(cfg.LogLevel)
			connector, err := proxy.NewCommandConnector(cfg.ServerCommand, logger)
			if err != nil {
				return err
			}
			return runProxy(ctx, cfg, connector, logger)
		},
	}

	flags.addFlags(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", config.DefaultProxyAddr, "Address the proxy listens on")
	cmd.Flags().StringVar(&serverCommand, "server-command", "", "Upstream server command line (default: this binary's serve command)")
	return cmd
}

func runProxy(ctx context.Context, cfg *config.Config, connector proxy.Connector, logger *logging.Logger) error {
	p := proxy.New(proxy.Options{
		Connector: connector,
		Metrics:   metrics.New(),
		Logger:    logger,
	})
	defer func() {
		if err := p.Close(); err != nil {
			logger.Error("Error closing proxy sessions", "error", err.Error())
		}
	}()

	ln, err := net.Listen("tcp", cfg.ProxyAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ProxyAddr, err)
	}

	logger.Info("MCP proxy server running", "addr", ln.Addr().String())
	return serveHTTP(ctx, ln, p.Handler(), logger)
}
