// Package messaging forwards client telemetry events to an event bus.
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cursor-todo/internal/infrastructure/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TrackedEvent is one client event accepted by POST /track.
type TrackedEvent struct {
	Name       string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	ReceivedAt time.Time      `json:"receivedAt"`

	// TraceContext links the event to the request that accepted it.
	TraceContext map[string]string `json:"traceContext,omitempty"`
}

// Publisher delivers tracked events somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, event TrackedEvent) error
}

// PutEventsAPI is the EventBridge call the publisher makes.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher sends each event as one PutEvents entry.
type EventBridgePublisher struct {
	client   PutEventsAPI
	eventBus string
	source   string
}

func NewEventBridgePublisher(client PutEventsAPI, eventBus, source string) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	return &EventBridgePublisher{client: client, eventBus: eventBus, source: source}
}

// NewEventBridgeClient loads AWS configuration for the given region.
func NewEventBridgeClient(ctx context.Context, region string) (*eventbridge.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return eventbridge.NewFromConfig(awsCfg), nil
}

func (p *EventBridgePublisher) Publish(ctx context.Context, event TrackedEvent) error {
	if event.TraceContext == nil {
		event.TraceContext = observability.TraceCarrier(ctx)
	}
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event detail: %w", err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBus),
		Source:       aws.String(p.source),
		DetailType:   aws.String(event.Name),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.ReceivedAt),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		entry.TraceHeader = aws.String(sc.TraceID().String())
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, e := range out.Entries {
			if e.ErrorCode != nil {
				return fmt.Errorf("event %s rejected: %s: %s",
					event.Name, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
		return fmt.Errorf("%d events failed to publish", out.FailedEntryCount)
	}
	return nil
}

// LogPublisher records events in the application log only.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event TrackedEvent) error {
	p.logger.Info("client event",
		zap.String("event", event.Name),
		zap.Any("properties", event.Properties),
		zap.String("user_agent", event.UserAgent),
		zap.Time("received_at", event.ReceivedAt),
	)
	return nil
}

// MultiPublisher fans an event out to several publishers and returns the
// first error after attempting all of them.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event TrackedEvent) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
