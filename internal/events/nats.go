package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/d-kuro/todo-mcp/internal/errors"
)

// Defaults for the JetStream stream todo events are written to.
const (
	DefaultSubject = "todo.events"
	DefaultStream  = "todo_events"
)

// NATSPublisher publishes events to a JetStream subject.
type NATSPublisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	ownConn bool
}

// NATSOption configures a NATSPublisher.
type NATSOption func(*natsConfig)

type natsConfig struct {
	subject string
	stream  string
	timeout time.Duration
}

// WithSubject sets the subject events are published on.
func WithSubject(subject string) NATSOption {
	return func(c *natsConfig) {
		if subject != "" {
			c.subject = subject
		}
	}
}

// WithStream sets the stream name ensured at start-up.
func WithStream(stream string) NATSOption {
	return func(c *natsConfig) {
		if stream != "" {
			c.stream = stream
		}
	}
}

func newNATSConfig(opts []NATSOption) natsConfig {
	cfg := natsConfig{
		subject: DefaultSubject,
		stream:  DefaultStream,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// DialNATS connects to url and returns a publisher that owns the connection.
func DialNATS(url string, opts ...NATSOption) (*NATSPublisher, error) {
	cfg := newNATSConfig(opts)
	nc, err := nats.Connect(url, nats.Name("todo-mcp"), nats.Timeout(cfg.timeout))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to NATS at %s", url)
	}
	p, err := newNATSPublisher(nc, cfg)
	if err != nil {
		nc.Close()
		return nil, err
	}
	p.ownConn = true
	return p, nil
}

// NewNATSPublisher wraps an existing connection. The caller keeps ownership of nc.
func NewNATSPublisher(nc *nats.Conn, opts ...NATSOption) (*NATSPublisher, error) {
	return newNATSPublisher(nc, newNATSConfig(opts))
}

func newNATSPublisher(nc *nats.Conn, cfg natsConfig) (*NATSPublisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, errors.Wrap(err, "failed to init JetStream")
	}
	if err := ensureStream(js, cfg.stream, cfg.subject); err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, js: js, subject: cfg.subject}, nil
}

// ensureStream creates the stream unless it already exists.
func ensureStream(js nats.JetStreamContext, stream, subject string) error {
	_, err := js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return errors.Wrap(err, "failed to look up stream %s", stream)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{subject},
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return errors.Wrap(err, "failed to create JetStream stream %s", stream)
	}
	return nil
}

// Subject returns the subject events are published on.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, ev TodoEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
	}
	if _, err := p.js.Publish(p.subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s event for %s: %w", ev.Type, ev.ID, err)
	}
	return nil
}

// Close drains the connection if the publisher opened it.
func (p *NATSPublisher) Close() error {
	if !p.ownConn {
		return nil
	}
	return p.nc.Drain()
}
