package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cursor-todo/internal/infrastructure/messaging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePutEvents struct {
	inputs []*eventbridge.PutEventsInput
	out    *eventbridge.PutEventsOutput
	err    error
}

func (f *fakePutEvents) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.out == nil {
		return &eventbridge.PutEventsOutput{}, f.err
	}
	return f.out, f.err
}

func sampleEvent() messaging.TrackedEvent {
	return messaging.TrackedEvent{
		Name:       "todo_created",
		Properties: map[string]any{"title": "buy milk"},
		UserAgent:  "test",
		ReceivedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEventBridgePublisher(t *testing.T) {
	t.Run("Should send one entry per event", func(t *testing.T) {
		client := &fakePutEvents{}
		p := messaging.NewEventBridgePublisher(client, "todo-bus", "cursor-todo.web")

		require.NoError(t, p.Publish(context.Background(), sampleEvent()))

		require.Len(t, client.inputs, 1)
		require.Len(t, client.inputs[0].Entries, 1)
		entry := client.inputs[0].Entries[0]
		assert.Equal(t, "todo-bus", aws.ToString(entry.EventBusName))
		assert.Equal(t, "cursor-todo.web", aws.ToString(entry.Source))
		assert.Equal(t, "todo_created", aws.ToString(entry.DetailType))
		assert.JSONEq(t,
			`{"event":"todo_created","properties":{"title":"buy milk"},"userAgent":"test","receivedAt":"2025-03-01T12:00:00Z"}`,
			aws.ToString(entry.Detail))
	})

	t.Run("Should carry the request trace in header and detail", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer tp.Shutdown(context.Background())
		ctx, span := tp.Tracer("test").Start(context.Background(), "POST /track")
		defer span.End()

		client := &fakePutEvents{}
		p := messaging.NewEventBridgePublisher(client, "todo-bus", "cursor-todo.web")
		require.NoError(t, p.Publish(ctx, sampleEvent()))

		entry := client.inputs[0].Entries[0]
		traceID := span.SpanContext().TraceID().String()
		assert.Equal(t, traceID, aws.ToString(entry.TraceHeader))

		var detail messaging.TrackedEvent
		require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
		assert.Equal(t, traceID, detail.TraceContext["trace_id"])
		assert.Contains(t, detail.TraceContext["traceparent"], traceID)
	})

	t.Run("Should report rejected entries", func(t *testing.T) {
		client := &fakePutEvents{out: &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
			},
		}}
		p := messaging.NewEventBridgePublisher(client, "", "cursor-todo.web")

		err := p.Publish(context.Background(), sampleEvent())
		assert.ErrorContains(t, err, "InternalFailure")
		assert.Equal(t, "default", aws.ToString(client.inputs[0].Entries[0].EventBusName))
	})

	t.Run("Should wrap transport errors", func(t *testing.T) {
		p := messaging.NewEventBridgePublisher(&fakePutEvents{err: errors.New("no route")}, "bus", "src")
		assert.ErrorContains(t, p.Publish(context.Background(), sampleEvent()), "put events: no route")
	})
}

func TestMultiPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	failing := messaging.NewEventBridgePublisher(&fakePutEvents{err: errors.New("down")}, "bus", "src")
	multi := messaging.MultiPublisher{failing, messaging.NewLogPublisher(zap.New(core))}

	err := multi.Publish(context.Background(), sampleEvent())

	assert.Error(t, err)
	require.Equal(t, 1, logs.Len(), "later publishers still run")
	assert.Equal(t, "todo_created", logs.All()[0].ContextMap()["event"])
}
