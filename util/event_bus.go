// api/util/event_bus.go

package util

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
)

// Event types published by the service layer.
const (
	EventPolicyCreated = "policy.created"
	EventPolicyUpdated = "policy.updated"
	EventPolicyDeleted = "policy.deleted"
	EventAccessDecided = "access.decided"
)

// Event represents an event in the system
type Event struct {
	Type    string
	At      time.Time
	Payload interface{}
}

// EventHandler is a function that handles an event
type EventHandler func(context.Context, Event) error

// EventBus manages event subscriptions and publications
type EventBus struct {
	subscribers map[string]map[int]EventHandler
	nextID      int
	mu          sync.RWMutex
	errorChan   chan error
}

// NewEventBus creates a new EventBus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string]map[int]EventHandler),
		errorChan:   make(chan error, 100), // Buffer size can be adjusted
	}
}

// Subscribe adds a new subscriber for a specific event type and
// returns a function that removes the subscription again.
func (eb *EventBus) Subscribe(eventType string, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.subscribers[eventType] == nil {
		eb.subscribers[eventType] = make(map[int]EventHandler)
	}
	id := eb.nextID
	eb.nextID++
	eb.subscribers[eventType][id] = handler

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.subscribers[eventType], id)
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(ctx context.Context, eventType string, payload interface{}) {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.subscribers[eventType]))
	for _, h := range eb.subscribers[eventType] {
		handlers = append(handlers, h)
	}
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:    eventType,
		At:      time.Now(),
		Payload: payload,
	}

	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(ctx, event); err != nil {
				select {
				case eb.errorChan <- fmt.Errorf("event handler error: %w", err):
				default:
					// If error channel is full, log the error
					logger.Error("Error channel full, logging event handler error",
						zap.Error(err),
						zap.String("eventType", eventType))
				}
			}
		}(handler)
	}
}

// Start begins processing events and handling errors
func (eb *EventBus) Start(ctx context.Context) {
	go eb.processErrors(ctx)
}

// processErrors handles errors from event handlers
func (eb *EventBus) processErrors(ctx context.Context) {
	for {
		select {
		case err := <-eb.errorChan:
			logger.Error("Event handler error", zap.Error(err))
		case <-ctx.Done():
			return
		}
	}
}
