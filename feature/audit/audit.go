package audit

import (
	"context"
	"errors"
	"time"

	"vault-inventory/core/events"

	"go.uber.org/zap"
)

// SystemActor is recorded when no actor is attached to the context.
const SystemActor = "system"

// Entry is a single audit record.
type Entry struct {
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	TargetRef string         `json:"target_ref"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Message   string         `json:"message"`
	At        time.Time      `json:"at"`
}

// Sink receives audit entries.
type Sink interface {
	Log(ctx context.Context, e Entry) error
}

type actorKey struct{}

// WithActor attaches the acting user or service to ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	if actor == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor attached to ctx, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return SystemActor
}

// LoggerSink writes entries as structured log lines.
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink creates a sink backed by logger.
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	return &LoggerSink{logger: logger.Named("audit")}
}

// Log implements Sink.
func (s *LoggerSink) Log(_ context.Context, e Entry) error {
	s.logger.Info(e.Message,
		zap.String("actor", e.ActorID),
		zap.String("action", e.Action),
		zap.String("target", e.TargetRef),
		zap.Any("metadata", e.Metadata),
		zap.Time("at", e.At),
	)
	return nil
}

// PublisherSink publishes entries to a topic keyed by target reference.
type PublisherSink struct {
	publisher events.Publisher
	topic     string
}

// NewPublisherSink creates a sink that publishes to topic.
func NewPublisherSink(publisher events.Publisher, topic string) *PublisherSink {
	return &PublisherSink{publisher: publisher, topic: topic}
}

// Log implements Sink.
func (s *PublisherSink) Log(ctx context.Context, e Entry) error {
	return s.publisher.Publish(ctx, s.topic, e.TargetRef, e)
}

// Multi fans an entry out to every sink.
type Multi []Sink

// Log implements Sink. Every sink is attempted.
func (m Multi) Log(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Log(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
