package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/homemetrics/backend/internal/metrics"
	"github.com/homemetrics/backend/internal/scanner"
	"github.com/homemetrics/backend/internal/temperature"
)

// ThermoStrategy extracts temperature readings from data file
// attachments of sensor export emails.
type ThermoStrategy struct {
	scanner   *scanner.Scanner
	extractor *temperature.Extractor
	store     ReadingStore
	archive   Archiver
	log       *slog.Logger
}

func NewThermoStrategy(sc *scanner.Scanner, ex *temperature.Extractor, store ReadingStore, archive Archiver, log *slog.Logger) *ThermoStrategy {
	return &ThermoStrategy{
		scanner:   sc,
		extractor: ex,
		store:     store,
		archive:   archive,
		log:       log,
	}
}

func (s *ThermoStrategy) Name() string { return "thermo" }

// Process scans the message for attachments and extracts readings from
// each one. A failing attachment is logged and skipped; the message
// fails only when no attachment yields readings.
func (s *ThermoStrategy) Process(ctx context.Context, msg *Message) (int, error) {
	attachments := s.scanner.Scan(msg.Raw)
	if len(attachments) == 0 {
		return 0, fmt.Errorf("no attachments found in message %s", msg.ID)
	}

	saved := 0
	for _, att := range attachments {
		readings, err := s.extractor.ExtractFromAttachment(&att)
		if err != nil {
			s.log.Error("failed to extract readings from attachment",
				"message_id", msg.ID,
				"filename", att.Filename,
				"error", err)
			metrics.ExtractionFailuresTotal.WithLabelValues("temperature", "extract").Inc()
			continue
		}
		if len(readings) == 0 {
			s.log.Warn("attachment contained no readings",
				"message_id", msg.ID,
				"filename", att.Filename)
			continue
		}

		n, err := s.store.SaveTemperatureReadings(ctx, readings)
		if err != nil {
			return saved, fmt.Errorf("save readings from %s: %w", att.Filename, err)
		}
		s.log.Info("saved temperature readings",
			"message_id", msg.ID,
			"filename", att.Filename,
			"extracted", len(readings),
			"saved", n)
		saved += n

		if s.archive != nil {
			if key, err := s.archive.Store(ctx, att, msg.Date); err != nil {
				s.log.Warn("failed to archive attachment",
					"message_id", msg.ID,
					"filename", att.Filename,
					"error", err)
			} else {
				s.log.Debug("archived attachment", "key", key)
			}
		}
	}

	if saved == 0 {
		return 0, fmt.Errorf("no readings saved from message %s", msg.ID)
	}
	return saved, nil
}
