package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventSender delivers one event to the telemetry sink.
type EventSender interface {
	Track(ctx context.Context, event string, properties map[string]interface{}) error
}

// Tracker sends events in the background. Failures are logged and never
// reach the caller.
type Tracker struct {
	sender  EventSender
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewTracker(sender EventSender, logger *zap.Logger) *Tracker {
	return &Tracker{sender: sender, logger: logger, timeout: 5 * time.Second}
}

func (t *Tracker) Track(event string, properties map[string]interface{}) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.sender.Track(ctx, event, properties); err != nil {
			t.logger.Warn("failed to track event", zap.String("event", event), zap.Error(err))
		}
	}()
}

// Flush waits for in-flight events.
func (t *Tracker) Flush() {
	t.wg.Wait()
}
