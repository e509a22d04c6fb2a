// Package processor drives the ingestion pipeline: it pulls labeled
// messages from a mail source, runs the matching extraction strategy,
// persists the readings and archives the source attachments.
package processor

import (
	"context"
	"time"

	"github.com/homemetrics/backend/internal/pool"
	"github.com/homemetrics/backend/internal/scanner"
	"github.com/homemetrics/backend/internal/temperature"
)

// Message is one raw email pulled from a mail source.
type Message struct {
	ID   string
	Date time.Time
	Raw  []byte
}

// MailSource lists and fetches messages carrying a label, and marks
// them processed so the next run skips them.
type MailSource interface {
	Search(ctx context.Context, label string) ([]string, error)
	Fetch(ctx context.Context, id string) (*Message, error)
	MarkProcessed(ctx context.Context, id string, label string) error
}

// ReadingStore persists extracted readings.
type ReadingStore interface {
	SaveTemperatureReadings(ctx context.Context, readings []temperature.Reading) (int, error)
	SavePoolReading(ctx context.Context, messageID string, reading pool.Reading) (bool, error)
}

// Archiver stores processed attachments for later inspection. Archive
// failures are reported but never fail the pipeline.
type Archiver interface {
	Store(ctx context.Context, att scanner.Attachment, emailDate time.Time) (string, error)
}

// Strategy processes one message and reports how many readings it saved.
type Strategy interface {
	Name() string
	Process(ctx context.Context, msg *Message) (int, error)
}
