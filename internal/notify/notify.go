// Package notify posts pipeline outcome summaries to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/homemetrics/backend/internal/config"
	"github.com/homemetrics/backend/internal/events"
)

// Notifier delivers human-readable pipeline notifications.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// WebhookNotifier posts Slack-compatible JSON payloads to a webhook URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

func NewWebhookNotifier(cfg *config.NotifyConfig, log *slog.Logger) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Notify posts {"text": ...} to the configured webhook.
func (n *WebhookNotifier) Notify(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopNotifier discards notifications. Used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(ctx context.Context, text string) error { return nil }

// SubscribeBus wires a notifier to the event bus so saved readings and
// processing failures produce chat messages. Delivery failures are
// logged and never propagate to the pipeline.
func SubscribeBus(bus events.Bus, notifier Notifier, log *slog.Logger) {
	bus.Subscribe(events.TopicReadingsSaved, func(event events.Event) {
		saved, ok := event.Data.(events.ReadingsSaved)
		if !ok {
			return
		}
		text := fmt.Sprintf("Saved %d %s reading(s) from message %s", saved.Count, saved.Kind, saved.MessageID)
		if err := notifier.Notify(context.Background(), text); err != nil {
			log.Warn("notification delivery failed", "error", err)
		}
	})

	bus.Subscribe(events.TopicProcessingFailed, func(event events.Event) {
		failed, ok := event.Data.(events.ProcessingFailed)
		if !ok {
			return
		}
		text := fmt.Sprintf("Processing failed for %s message %s: %s", failed.Kind, failed.MessageID, failed.Reason)
		if err := notifier.Notify(context.Background(), text); err != nil {
			log.Warn("notification delivery failed", "error", err)
		}
	})
}
