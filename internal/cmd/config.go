package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/d-kuro/todo-mcp/internal/config"
)

// commonFlags are shared by serve and proxy.
type commonFlags struct {
	configFile string
	logLevel   string
}

func (f *commonFlags) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "c", "", "Path to a YAML configuration file")
	fs.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
}

// overrides maps flag names onto the config fields they replace. Only flags
// set on the command line take effect, so file and environment values
// survive flag defaults.
type overrides map[string]func(cfg *config.Config, value string)

var flagOverrides = overrides{
	"log-level":      func(c *config.Config, v string) { c.LogLevel = v },
	"http":           func(c *config.Config, v string) { c.HTTPAddr = v },
	"addr":           func(c *config.Config, v string) { c.ProxyAddr = v },
	"metrics-addr":   func(c *config.Config, v string) { c.MetricsAddr = v },
	"nats-url":       func(c *config.Config, v string) { c.NATSURL = v },
	"events-subject": func(c *config.Config, v string) { c.EventsSubject = v },
	"server-command": func(c *config.Config, v string) { c.ServerCommand = strings.Fields(v) },
}

// loadConfig resolves defaults, the config file, the environment and finally
// the command line flags, then validates the result.
func loadConfig(cmd *cobra.Command, configFile string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	for name, apply := range flagOverrides {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		apply(cfg, flag.Value.String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
