package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/homemetrics/backend/internal/events"
	"github.com/homemetrics/backend/internal/logger"
	"github.com/homemetrics/backend/internal/metrics"
)

// LabeledStrategy pairs a mailbox label with the strategy that handles
// messages carrying it.
type LabeledStrategy struct {
	Label    string
	Strategy Strategy
}

// Runner periodically pulls labeled messages from the mail source and
// feeds them through the registered strategies.
type Runner struct {
	source       MailSource
	strategies   []LabeledStrategy
	bus          events.Bus
	messageLimit int
	interval     time.Duration
	log          *slog.Logger
}

func NewRunner(source MailSource, strategies []LabeledStrategy, bus events.Bus, messageLimit int, interval time.Duration, log *slog.Logger) *Runner {
	return &Runner{
		source:       source,
		strategies:   strategies,
		bus:          bus,
		messageLimit: messageLimit,
		interval:     interval,
		log:          log,
	}
}

// Start runs ingest passes until the context is cancelled. The first
// pass runs immediately.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single ingest pass over all registered strategies.
// A failing message is logged and skipped; it stays labeled and will be
// retried on the next pass.
func (r *Runner) RunOnce(ctx context.Context) {
	for _, ls := range r.strategies {
		ids, err := r.source.Search(ctx, ls.Label)
		if err != nil {
			r.log.Error("failed to search mailbox",
				"label", ls.Label,
				"error", err)
			continue
		}
		if r.messageLimit > 0 && len(ids) > r.messageLimit {
			ids = ids[:r.messageLimit]
		}
		if len(ids) > 0 {
			r.log.Info("processing messages",
				"label", ls.Label,
				"processor", ls.Strategy.Name(),
				"count", len(ids))
		}

		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			r.processOne(ctx, ls, id)
		}
	}
}

func (r *Runner) processOne(ctx context.Context, ls LabeledStrategy, id string) {
	msgCtx := logger.SetMessageID(ctx, id)
	log := r.log.With("message_id", id, "processor", ls.Strategy.Name())

	msg, err := r.source.Fetch(msgCtx, id)
	if err != nil {
		log.Error("failed to fetch message", "error", err)
		r.reportFailure(ls.Strategy.Name(), id, err)
		return
	}

	saved, err := ls.Strategy.Process(msgCtx, msg)
	if err != nil {
		log.Error("failed to process message", "error", err)
		r.reportFailure(ls.Strategy.Name(), id, err)
		return
	}
	if saved == 0 {
		// Nothing new was written. Leave the label in place so a
		// later run can retry.
		log.Info("no new readings from message")
		metrics.MessagesProcessedTotal.WithLabelValues(ls.Strategy.Name(), "empty").Inc()
		return
	}

	if err := r.source.MarkProcessed(msgCtx, id, ls.Label); err != nil {
		log.Error("failed to mark message processed", "error", err)
	}

	metrics.MessagesProcessedTotal.WithLabelValues(ls.Strategy.Name(), "ok").Inc()
	if r.bus != nil {
		r.bus.Publish(events.Event{
			Topic: events.TopicReadingsSaved,
			Data: events.ReadingsSaved{
				MessageID: id,
				Kind:      ls.Strategy.Name(),
				Count:     saved,
			},
		})
	}
}

func (r *Runner) reportFailure(kind, id string, err error) {
	metrics.MessagesProcessedTotal.WithLabelValues(kind, "failed").Inc()
	if r.bus != nil {
		r.bus.Publish(events.Event{
			Topic: events.TopicProcessingFailed,
			Data: events.ProcessingFailed{
				MessageID: id,
				Kind:      kind,
				Reason:    err.Error(),
			},
		})
	}
}
