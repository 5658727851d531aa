package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Event is what the outbox hands to subscribers once a leave state change
// has been committed.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

// BaseEvent is the decoded form of an outbox row.
type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus fans a leave event out to every handler subscribed to its type.
// Delivery is synchronous so the outbox only marks a row dispatched after
// all subscribers have seen it.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	n := len(eb.handlers[eventType])
	eb.mu.Unlock()

	eb.logger.Debug("subscribed to leave event", "event_type", eventType, "subscribers", n)
}

// Subscribers reports how many handlers receive eventType.
func (eb *EventBus) Subscribers(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// PublishSync runs every subscriber of the event's type in registration
// order. A failing or panicking handler does not stop the rest; their errors
// are joined in the result.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.handlers[event.EventType()]...)
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		eb.logger.Debug("leave event has no subscribers",
			"event_type", event.EventType(),
			"event_id", event.EventID())
		return nil
	}

	var errs []error
	for i, h := range handlers {
		if err := eb.invoke(ctx, h, event); err != nil {
			eb.logger.Warn("leave event subscriber failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"subscriber", i,
				"error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d subscribers failed for %s %s: %w",
			len(errs), len(handlers), event.EventType(), event.EventID(), errors.Join(errs...))
	}

	eb.logger.Debug("leave event delivered",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"subscribers", len(handlers))
	return nil
}

func (eb *EventBus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return h(ctx, event)
}
