package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := new(mockWriter)
	var captured []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).([]kafka.Message) }).
		Return(nil)

	p := NewKafkaPublisherWithWriter(w, zap.NewNop())
	err := p.Publish(context.Background(), "inventory.low_stock", "prod-1", map[string]int{"available": 0})
	require.NoError(t, err)

	require.Len(t, captured, 1)
	assert.Equal(t, "inventory.low_stock", captured[0].Topic)
	assert.Equal(t, "prod-1", string(captured[0].Key))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(captured[0].Value, &decoded))
	assert.Equal(t, 0, decoded["available"])
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p := NewKafkaPublisherWithWriter(w, zap.NewNop())
	err := p.Publish(context.Background(), "t", "k", struct{}{})
	assert.ErrorContains(t, err, "broker down")
}

func TestKafkaPublisher_UnencodableEvent(t *testing.T) {
	w := new(mockWriter)
	p := NewKafkaPublisherWithWriter(w, zap.NewNop())

	err := p.Publish(context.Background(), "t", "k", make(chan int))
	assert.Error(t, err)
	w.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	assert.NoError(t, p.Publish(context.Background(), "inventory.audit", "item-1", "hello"))
	assert.NoError(t, p.Close())
	assert.Equal(t, 1, logs.FilterField(zap.String("topic", "inventory.audit")).Len())
}

func TestNew(t *testing.T) {
	assert.IsType(t, &LogPublisher{}, New(Config{}, zap.NewNop()))
	assert.IsType(t, &LogPublisher{}, New(Config{Brokers: []string{""}}, zap.NewNop()))

	pub := New(Config{Brokers: []string{"localhost:9092"}}, zap.NewNop())
	assert.IsType(t, &KafkaPublisher{}, pub)
}
