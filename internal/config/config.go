// Package config loads runtime settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/logging"
)

// Defaults.
const (
	DefaultLogLevel  = "info"
	DefaultProxyAddr = ":3001"
)

// Environment variables read by Load.
const (
	EnvLogLevel      = "LOG_LEVEL"
	EnvHTTPAddr      = "HTTP_ADDR"
	EnvProxyAddr     = "PROXY_ADDR"
	EnvPort          = "PORT"
	EnvMetricsAddr   = "METRICS_ADDR"
	EnvNATSURL       = "NATS_URL"
	EnvEventsSubject = "TODO_EVENTS_SUBJECT"
	EnvServerCommand = "TODO_SERVER_COMMAND"
)

// Config holds every setting of the server and the proxy.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// HTTPAddr switches serve from stdio to streamable HTTP when set.
	HTTPAddr string `yaml:"http_addr"`
	// ProxyAddr is where the REST proxy listens.
	ProxyAddr string `yaml:"proxy_addr"`
	// MetricsAddr starts a standalone /metrics listener for stdio serving.
	MetricsAddr string `yaml:"metrics_addr"`
	// NATSURL enables JetStream event publishing when set.
	NATSURL       string `yaml:"nats_url"`
	EventsSubject string `yaml:"events_subject"`
	// ServerCommand is the upstream the proxy spawns per session. Empty
	// means this binary's own serve command.
	ServerCommand []string `yaml:"server_command"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:      DefaultLogLevel,
		ProxyAddr:     DefaultProxyAddr,
		EventsSubject: events.DefaultSubject,
	}
}

// Load builds the configuration: defaults, then path (skipped when empty),
// then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(EnvLogLevel, &c.LogLevel)
	set(EnvHTTPAddr, &c.HTTPAddr)
	if port, ok := lookup(EnvPort); ok && port != "" {
		c.ProxyAddr = ":" + port
	}
	set(EnvProxyAddr, &c.ProxyAddr)
	set(EnvMetricsAddr, &c.MetricsAddr)
	set(EnvNATSURL, &c.NATSURL)
	set(EnvEventsSubject, &c.EventsSubject)
	if v, ok := lookup(EnvServerCommand); ok && strings.TrimSpace(v) != "" {
		c.ServerCommand = strings.Fields(v)
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if !logging.ValidLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("log level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	addrs := []struct{ name, addr string }{
		{"http address", c.HTTPAddr},
		{"proxy address", c.ProxyAddr},
		{"metrics address", c.MetricsAddr},
	}
	for _, a := range addrs {
		if a.addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(a.addr); err != nil {
			problems = append(problems, fmt.Sprintf("%s %q is invalid", a.name, a.addr))
		}
	}
	if c.NATSURL != "" && c.EventsSubject == "" {
		problems = append(problems, "events subject is required when a NATS URL is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
