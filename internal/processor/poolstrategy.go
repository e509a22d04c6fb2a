package processor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/homemetrics/backend/internal/metrics"
	"github.com/homemetrics/backend/internal/mimeparser"
	"github.com/homemetrics/backend/internal/pool"
)

var htmlBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>|</p>|<p[^>]*>`)

// PoolStrategy extracts pool chemistry values from the body text of
// monitoring emails.
type PoolStrategy struct {
	parser    *mimeparser.Parser
	store     ReadingStore
	sanitizer *bluemonday.Policy
	log       *slog.Logger
}

func NewPoolStrategy(parser *mimeparser.Parser, store ReadingStore, log *slog.Logger) *PoolStrategy {
	return &PoolStrategy{
		parser:    parser,
		store:     store,
		sanitizer: bluemonday.StrictPolicy(),
		log:       log,
	}
}

func (s *PoolStrategy) Name() string { return "pool" }

// Process pulls the message body, preferring the plain-text part,
// falling back to stripped HTML and finally to the raw bytes, then
// scans it for pool metrics.
func (s *PoolStrategy) Process(ctx context.Context, msg *Message) (int, error) {
	text := s.bodyText(msg)

	reading, err := pool.ExtractMetrics(text, msg.Date)
	if err != nil {
		metrics.ExtractionFailuresTotal.WithLabelValues("pool", "extract").Inc()
		return 0, fmt.Errorf("extract pool metrics from message %s: %w", msg.ID, err)
	}

	saved, err := s.store.SavePoolReading(ctx, msg.ID, reading)
	if err != nil {
		return 0, fmt.Errorf("save pool reading from message %s: %w", msg.ID, err)
	}
	if !saved {
		s.log.Info("pool reading already recorded", "message_id", msg.ID)
		return 0, nil
	}

	s.log.Info("saved pool reading",
		"message_id", msg.ID,
		"has_temperature", reading.Temperature != nil,
		"has_ph", reading.PH != nil,
		"has_orp", reading.ORP != nil)
	return 1, nil
}

func (s *PoolStrategy) bodyText(msg *Message) string {
	text, html, err := s.parser.BodyText(msg.Raw)
	if err != nil {
		s.log.Warn("failed to parse message body, scanning raw bytes",
			"message_id", msg.ID,
			"error", err)
		return strings.ToValidUTF8(string(msg.Raw), "�")
	}
	if text != "" {
		return text
	}
	if html != "" {
		// Turn block-level breaks into newlines before stripping
		// tags so values on separate lines stay separated.
		html = htmlBreakPattern.ReplaceAllString(html, "\n")
		return s.sanitizer.Sanitize(html)
	}
	return strings.ToValidUTF8(string(msg.Raw), "�")
}
