// Package main implements the todo MCP server executable.
// It serves todo management tools over the Model Context Protocol and can
// front them with an HTTP proxy for browser clients.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/d-kuro/todo-mcp/internal/cmd"
	"github.com/d-kuro/todo-mcp/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the base command. Without a subcommand it serves.
func newRootCmd() *cobra.Command {
	serveFlags := &cmd.ServeFlags{}
	var showVersion bool

	rootCmd := &cobra.Command{
		Use:   version.Name,
		Short: "Todo MCP server",
		Long: `todo-mcp provides a Model Context Protocol server with tools to create, list,
update and delete todo items, plus an interactive UI resource.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(c *cobra.Command, _ []string) error {
			if showVersion {
				_, err := fmt.Fprintln(c.OutOrStdout(), version.GetVersion().String())
				return err
			}
			return cmd.RunServe(c, serveFlags)
		},
	}

	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print version information and exit")
	serveFlags.AddFlags(rootCmd.Flags())

	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewProxyCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	return rootCmd
}
