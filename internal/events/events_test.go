package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-kuro/todo-mcp/internal/events"
	"github.com/d-kuro/todo-mcp/internal/storage"
)

func setupEmbeddedNATSServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()
	opts := &server.Options{
		JetStream: true,
		StoreDir:  t.TempDir(),
		Port:      -1,
		NoLog:     true,
		NoSigs:    true,
	}
	srv, err := server.NewServer(opts)
	require.NoError(t, err)

	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		t.Fatal("NATS server not ready in time")
	}
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	return srv, nc
}

func sampleTodo() storage.Todo {
	at := storage.NewTimestamp(time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC))
	return storage.Todo{
		ID:        "3f2c1a9e-5b7d-4c8e-9f01-23456789abcd",
		Title:     "Buy milk",
		Priority:  storage.PriorityMedium,
		Tags:      []string{},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestEventConstructors(t *testing.T) {
	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.FixedZone("JST", 9*3600))
	todo := sampleTodo()

	created := events.Created(todo, at)
	assert.Equal(t, events.TypeCreated, created.Type)
	assert.Equal(t, todo.ID, created.ID)
	require.NotNil(t, created.Todo)
	assert.Equal(t, "Buy milk", created.Todo.Title)
	assert.Equal(t, time.UTC, created.OccurredAt.Location())

	updated := events.Updated(todo, at)
	assert.Equal(t, events.TypeUpdated, updated.Type)

	deleted := events.Deleted(todo.ID, at)
	assert.Equal(t, events.TypeDeleted, deleted.Type)
	assert.Nil(t, deleted.Todo)

	data, err := json.Marshal(deleted)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"todo"`)
}

func TestNoopPublisher(t *testing.T) {
	var p events.Publisher = events.NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), events.Deleted("x", time.Now())))
	assert.NoError(t, p.Close())
}

func TestNATSPublisherPublishes(t *testing.T) {
	_, nc := setupEmbeddedNATSServer(t)

	pub, err := events.NewNATSPublisher(nc)
	require.NoError(t, err)
	assert.Equal(t, events.DefaultSubject, pub.Subject())

	todo := sampleTodo()
	require.NoError(t, pub.Publish(context.Background(), events.Created(todo, time.Now())))

	js, err := nc.JetStream()
	require.NoError(t, err)
	sub, err := js.PullSubscribe(events.DefaultSubject, "test-durable")
	require.NoError(t, err)
	msgs, err := sub.Fetch(1, nats.MaxWait(time.Second))
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var got events.TodoEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, events.TypeCreated, got.Type)
	assert.Equal(t, todo.ID, got.ID)
	require.NotNil(t, got.Todo)
	assert.Equal(t, "Buy milk", got.Todo.Title)

	// The caller owns nc, so Close leaves it open.
	require.NoError(t, pub.Close())
	assert.True(t, nc.IsConnected())
}

func TestNATSPublisherReusesStream(t *testing.T) {
	_, nc := setupEmbeddedNATSServer(t)

	_, err := events.NewNATSPublisher(nc, events.WithSubject("custom.events"), events.WithStream("custom"))
	require.NoError(t, err)
	pub, err := events.NewNATSPublisher(nc, events.WithSubject("custom.events"), events.WithStream("custom"))
	require.NoError(t, err)
	assert.Equal(t, "custom.events", pub.Subject())

	js, err := nc.JetStream()
	require.NoError(t, err)
	info, err := js.StreamInfo("custom")
	require.NoError(t, err)
	assert.Equal(t, []string{"custom.events"}, info.Config.Subjects)
}

func TestDialNATSOwnsConnection(t *testing.T) {
	srv, _ := setupEmbeddedNATSServer(t)

	pub, err := events.DialNATS(srv.ClientURL())
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), events.Deleted("x", time.Now())))
	assert.NoError(t, pub.Close())
}

func TestDialNATSUnreachable(t *testing.T) {
	_, err := events.DialNATS("nats://127.0.0.1:1")
	assert.Error(t, err)
}
