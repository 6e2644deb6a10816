package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	topic string
	key   string
	event any
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, event any) error {
	p.topic, p.key, p.event = topic, key, event
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingSink struct{ err error }

func (s failingSink) Log(context.Context, Entry) error { return s.err }

func TestActorContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, SystemActor, ActorFrom(ctx))
	assert.Equal(t, SystemActor, ActorFrom(WithActor(ctx, "")))
	assert.Equal(t, "admin-7", ActorFrom(WithActor(ctx, "admin-7")))
}

func TestLoggerSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLoggerSink(zap.New(core))

	err := sink.Log(context.Background(), Entry{
		ActorID:   "admin",
		Action:    "inventory.item.added",
		TargetRef: "item:1",
		Message:   "item added",
		At:        time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "item added", entry.Message)
	assert.Equal(t, "inventory.item.added", entry.ContextMap()["action"])
}

func TestPublisherSink(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewPublisherSink(pub, "inventory.audit")

	e := Entry{Action: "inventory.item.sold", TargetRef: "item:9"}
	require.NoError(t, sink.Log(context.Background(), e))
	assert.Equal(t, "inventory.audit", pub.topic)
	assert.Equal(t, "item:9", pub.key)
	assert.Equal(t, e, pub.event)
}

func TestMulti(t *testing.T) {
	pub := &recordingPublisher{}
	boom := errors.New("boom")

	m := Multi{failingSink{err: boom}, NewPublisherSink(pub, "t")}
	err := m.Log(context.Background(), Entry{TargetRef: "x"})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "x", pub.key, "later sinks still run after a failure")
}
