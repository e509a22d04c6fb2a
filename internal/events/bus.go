package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryBus implements Bus with per-topic subscriber maps.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]Handler // topic -> subscriptionID -> handler
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{
		subscribers: make(map[string]map[string]Handler),
	}
}

// Publish delivers an event to all subscribers of its topic. Handlers
// run synchronously on the publisher's goroutine.
func (b *InMemoryBus) Publish(event Event) error {
	if event.Topic == "" {
		return fmt.Errorf("event must have a topic")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	handlers, exists := b.subscribers[event.Topic]
	if !exists || len(handlers) == 0 {
		b.mu.RUnlock()
		return nil
	}

	// Copy handlers to avoid holding the lock during delivery.
	handlersCopy := make([]Handler, 0, len(handlers))
	for _, handler := range handlers {
		handlersCopy = append(handlersCopy, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlersCopy {
		handler(event)
	}

	return nil
}

// Subscribe registers a handler for a topic and returns a function that
// removes the subscription.
func (b *InMemoryBus) Subscribe(topic string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[string]Handler)
	}

	subscriptionID := uuid.New().String()
	b.subscribers[topic][subscriptionID] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if handlers, exists := b.subscribers[topic]; exists {
			delete(handlers, subscriptionID)
			if len(handlers) == 0 {
				delete(b.subscribers, topic)
			}
		}
	}
}

// SubscriberCount returns the number of subscribers for a topic.
func (b *InMemoryBus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if handlers, exists := b.subscribers[topic]; exists {
		return len(handlers)
	}
	return 0
}
