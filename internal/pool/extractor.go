// Package pool extracts pool chemistry readings from loosely formatted
// email text. Blue Riot monitors send human-readable status mails rather
// than structured exports, so each metric is hunted with an ordered list
// of patterns and validated against its physical range.
package pool

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/homemetrics/backend/internal/metrics"
)

// Physical validity ranges. Values outside these are pattern noise (a
// date fragment, a tracking number), not measurements.
const (
	phMin  = 0.0
	phMax  = 14.0
	orpMin = 0
	orpMax = 1000
)

// ErrNoMetrics is returned when none of the three metrics could be found.
var ErrNoMetrics = errors.New("no pool metrics found in email text")

// Reading is one pool chemistry measurement. At least one of Temperature,
// PH and ORP is always present; a reading with none is an extraction
// failure, not a value.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature,omitempty"`
	PH          *float64  `json:"ph,omitempty"`
	ORP         *int      `json:"orp,omitempty"`
}

// Pattern lists per metric, tried in order; the first pattern whose value
// parses and passes range validation wins. An out-of-range value does not
// block a later pattern from matching.
var (
	temperaturePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)temp[ée]rature[:\s]+([0-9]+[.,][0-9]+)`),
		regexp.MustCompile(`(?i)temp[:\s]+([0-9]+[.,][0-9]+)`),
		regexp.MustCompile(`([0-9]+[.,][0-9]+)\s*°C`),
	}
	phPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ph[:\s]+([0-9]+[.,][0-9]+)`),
		regexp.MustCompile(`(?i)ph\s*=\s*([0-9]+[.,][0-9]+)`),
	}
	orpPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)orp[:\s]+([0-9]+)\s*m?V?`),
		regexp.MustCompile(`(?i)redox[:\s]+([0-9]+)\s*m?V?`),
		regexp.MustCompile(`([0-9]+)\s*mV`),
	}
)

// ExtractMetrics scans email text for temperature, pH and ORP. The three
// metrics are independent; any non-empty subset is a success, all three
// absent is ErrNoMetrics.
func ExtractMetrics(text string, ts time.Time) (Reading, error) {
	reading := Reading{
		Timestamp:   ts,
		Temperature: extractTemperature(text),
		PH:          extractPH(text),
		ORP:         extractORP(text),
	}

	if reading.Temperature == nil && reading.PH == nil && reading.ORP == nil {
		metrics.ExtractionFailuresTotal.WithLabelValues("pool", "no_metrics").Inc()
		return Reading{}, ErrNoMetrics
	}

	return reading, nil
}

// extractTemperature matches "Temperature: 25.5°C", "Température: 24,8",
// "Temp: 26.2" or a bare "25.5°C". Comma decimal separators are
// normalized to dots.
func extractTemperature(text string) *float64 {
	for _, pattern := range temperaturePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if temp, err := strconv.ParseFloat(normalizeDecimal(m[1]), 64); err == nil {
			return &temp
		}
	}

	slog.Debug("temperature not found in text")
	return nil
}

// extractPH matches "pH: 7.2" or "ph = 7,15" and accepts only values in
// the 0-14 range.
func extractPH(text string) *float64 {
	for _, pattern := range phPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		ph, err := strconv.ParseFloat(normalizeDecimal(m[1]), 64)
		if err != nil {
			continue
		}
		if ph >= phMin && ph <= phMax {
			return &ph
		}
		slog.Warn("ph value out of range", slog.Float64("ph", ph))
	}

	return nil
}

// extractORP matches "ORP: 720 mV", "Redox: 680" or a bare "720mV" and
// accepts only values in the 0-1000 mV range.
func extractORP(text string) *int {
	for _, pattern := range orpPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		orp, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if orp >= orpMin && orp <= orpMax {
			return &orp
		}
		slog.Warn("orp value out of range", slog.Int("orp", orp))
	}

	return nil
}

func normalizeDecimal(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}
