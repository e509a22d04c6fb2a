// Package events provides the in-process event bus used to fan out
// pipeline outcomes to interested components such as the webhook notifier.
package events

import (
	"time"
)

// Event topics published by the processing pipeline.
const (
	TopicReadingsSaved    = "readings.saved"
	TopicProcessingFailed = "processing.failed"
)

// Event carries the outcome of processing one message.
type Event struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// ReadingsSaved is published after readings from a message were persisted.
type ReadingsSaved struct {
	MessageID string `json:"message_id"`
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
}

// ProcessingFailed is published when a message could not be processed.
type ProcessingFailed struct {
	MessageID string `json:"message_id"`
	Kind      string `json:"kind"`
	Reason    string `json:"reason"`
}

// Handler is a function that handles incoming events.
type Handler func(event Event)

// Bus defines the interface for publishing and subscribing to events.
type Bus interface {
	// Publish sends an event to all subscribers of its topic.
	Publish(event Event) error
	// Subscribe registers a handler for a topic. Returns an
	// unsubscribe function.
	Subscribe(topic string, handler Handler) (unsubscribe func())
}
