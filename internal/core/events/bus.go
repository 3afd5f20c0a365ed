package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var ErrUnknownEventType = errors.New("unknown event type")

// Event is a committed change raised by the user, business or role services.
type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() map[string]interface{}
}

// DomainEvent is the Event built by every constructor in this package.
type DomainEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e DomainEvent) EventType() string { return e.Type }
func (e DomainEvent) EventID() string { return e.ID }
func (e DomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e DomainEvent) Payload() map[string]interface{} { return e.Data }

type Handler func(ctx context.Context, event Event) error

// Publisher is the side of the bus services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventBus fans domain events out to handlers. Only the types listed by
// AllTypes can be subscribed to or published.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	known    map[string]struct{}
	inflight sync.WaitGroup
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	known := make(map[string]struct{})
	for _, t := range AllTypes() {
		known[t] = struct{}{}
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		known:    known,
		logger:   logger,
	}
}

// Subscribe registers handler for each of eventTypes. Nothing is registered
// when any type is unknown.
func (eb *EventBus) Subscribe(handler Handler, eventTypes ...string) error {
	for _, t := range eventTypes {
		if err := eb.checkType(t); err != nil {
			return err
		}
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	for _, t := range eventTypes {
		eb.handlers[t] = append(eb.handlers[t], handler)
	}
	eb.logger.Debug("event handler registered", "event_types", eventTypes)
	return nil
}

// Publish runs the handlers in the background. Handler failures are logged
// and never reach the caller, whose mutation has already committed.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	handlers, err := eb.handlersFor(event)
	if err != nil {
		return err
	}

	// handlers outlive the request that raised the event
	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		eb.inflight.Add(1)
		go func(h Handler) {
			defer eb.inflight.Done()
			if err := h(ctx, event); err != nil {
				eb.handlerFailed(event, err)
			}
		}(h)
	}
	return nil
}

// PublishSync runs every handler in registration order and joins their errors.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	handlers, err := eb.handlersFor(event)
	if err != nil {
		return err
	}

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			eb.handlerFailed(event, err)
			errs = append(errs, fmt.Errorf("%s handler: %w", event.EventType(), err))
		}
	}
	return errors.Join(errs...)
}

// Drain blocks until handlers started by Publish return or ctx is done.
func (eb *EventBus) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		eb.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (eb *EventBus) checkType(eventType string) error {
	if _, ok := eb.known[eventType]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownEventType, eventType)
	}
	return nil
}

func (eb *EventBus) handlersFor(event Event) ([]Handler, error) {
	if err := eb.checkType(event.EventType()); err != nil {
		return nil, err
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return slices.Clone(eb.handlers[event.EventType()]), nil
}

func (eb *EventBus) handlerFailed(event Event, err error) {
	eb.logger.Error("event handler failed",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"error", err)
}
