package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/pkg/logger"
)

// EventHandler processes a committed domain event.
type EventHandler func(ctx context.Context, event *DomainEvent) error

// EventDispatcher fans committed events out to subscribers. Delivery is
// at-most-once and in registration order; there is no retry.
type EventDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewEventDispatcher returns a dispatcher with no subscribers.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{subscribers: make(map[EventType][]EventHandler)}
}

// Register subscribes handler to one event type.
func (d *EventDispatcher) Register(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
	d.mu.Unlock()
}

// Subscribers reports how many handlers listen for eventType.
func (d *EventDispatcher) Subscribers(eventType EventType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[eventType])
}

// Dispatch runs every subscriber for the event. A failing subscriber does
// not stop the rest; all failures are joined into the returned error.
func (d *EventDispatcher) Dispatch(ctx context.Context, event *DomainEvent) error {
	if event == nil {
		return nil
	}
	d.mu.RLock()
	subs := d.subscribers[event.EventType]
	d.mu.RUnlock()

	var errs []error
	for i, handle := range subs {
		if err := handle(ctx, event); err != nil {
			logger.Error("event subscriber failed",
				zap.String("event_type", string(event.EventType)),
				zap.String("event_id", event.EventID),
				zap.Int("subscriber", i),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s subscriber %d: %w", event.EventType, i, err))
		}
	}
	return errors.Join(errs...)
}

// DispatchAll dispatches events in order. Failures are logged by Dispatch
// and never stop later events; the mutation that raised them has already
// committed.
func (d *EventDispatcher) DispatchAll(ctx context.Context, events []*DomainEvent) {
	for _, event := range events {
		_ = d.Dispatch(ctx, event)
	}
}
