// Package temperature converts recovered attachment bytes into typed
// temperature/humidity readings. CSV exports from X-Sense thermometers
// are the main source; JSON and line-oriented text exports from other
// vendors are handled tolerantly.
package temperature

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/homemetrics/backend/internal/metrics"
	"github.com/homemetrics/backend/internal/scanner"
	"github.com/homemetrics/backend/internal/timestamp"
)

// csvTimestampLayout is the X-Sense export format, e.g. "2023/12/26 23:59".
// Values are local time reinterpreted as UTC.
const csvTimestampLayout = "2006/01/02 15:04"

// sensorNamePattern matches export filenames like
// "Thermo-cabane_Exporter les données_20251104.csv".
var sensorNamePattern = regexp.MustCompile(`Thermo-([^_]+)_`)

// textLinePattern captures "<timestamp> <sensor> <value>" lines in plain
// text exports.
var textLinePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}[\sT]\d{2}:\d{2}:\d{2})[^\d]*(\w+)[^\d]*(-?\d+\.?\d*)`)

// Extractor converts attachments into readings.
type Extractor struct {
	log *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log}
}

// ExtractFromAttachment dispatches on the attachment's file extension.
// Unsupported extensions yield no readings and no error.
func (e *Extractor) ExtractFromAttachment(att *scanner.Attachment) ([]Reading, error) {
	sensorName := SensorName(att.Filename)

	name := strings.ToLower(att.Filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return e.extractFromCSV(att.Content, sensorName, att.Filename)
	case strings.HasSuffix(name, ".json"):
		return e.extractFromJSON(att.Content)
	case strings.HasSuffix(name, ".xml"):
		// No XML-exporting sensor observed yet.
		e.log.Warn("xml extraction not implemented", slog.String("filename", att.Filename))
		return nil, nil
	case strings.HasSuffix(name, ".txt"):
		return e.extractFromText(att.Content)
	default:
		e.log.Warn("unsupported file format", slog.String("filename", att.Filename))
		return nil, nil
	}
}

// SensorName derives the sensor identifier from an export filename using
// the Thermo-<name>_ convention. Filenames without the pattern fall back
// to the name up to the first dot.
func SensorName(filename string) string {
	if m := sensorNamePattern.FindStringSubmatch(filename); m != nil {
		return m[1]
	}

	if i := strings.Index(filename, "."); i >= 0 {
		return filename[:i]
	}
	return filename
}

// extractFromCSV parses an X-Sense CSV export: a header row followed by
// timestamp, temperature, humidity columns.
//
// Column-count drift is row-tolerant: a short row is logged and skipped.
// Type-parse failures are not: a timestamp or number that fails to parse
// aborts the whole attachment. The asymmetry is long-standing and callers
// rely on it to reject truncated exports instead of half-saving them.
func (e *Extractor) extractFromCSV(content []byte, sensorName, filename string) ([]Reading, error) {
	text := strings.ToValidUTF8(string(content), "�")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1 // tolerate column differences

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read CSV headers: %w", err)
	}
	if len(header) < 3 {
		metrics.ExtractionFailuresTotal.WithLabelValues("temperature", "format").Inc()
		return nil, &FormatError{Filename: filename, Columns: len(header)}
	}

	var readings []Reading
	for line := 2; ; line++ {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error on line %d: %w", line, err)
		}

		if len(record) < 3 {
			e.log.Warn("line skipped: not enough columns",
				slog.Int("line", line), slog.Int("columns", len(record)))
			continue
		}

		ts, err := time.Parse(csvTimestampLayout, record[0])
		if err != nil {
			metrics.ExtractionFailuresTotal.WithLabelValues("temperature", "timestamp").Inc()
			return nil, &RowError{Line: line, Field: "timestamp", Value: record[0], Err: err}
		}

		temp, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			metrics.ExtractionFailuresTotal.WithLabelValues("temperature", "value").Inc()
			return nil, &RowError{Line: line, Field: "temperature", Value: record[1], Err: err}
		}

		humidity, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			metrics.ExtractionFailuresTotal.WithLabelValues("temperature", "value").Inc()
			return nil, &RowError{Line: line, Field: "humidity", Value: record[2], Err: err}
		}

		location := sensorName
		readings = append(readings, Reading{
			SensorID:    sensorName,
			Timestamp:   ts.UTC(),
			Temperature: temp,
			Humidity:    &humidity,
			Location:    &location,
		})
	}

	e.log.Info("csv extraction completed",
		slog.String("sensor", sensorName), slog.Int("readings", len(readings)))
	return readings, nil
}

// extractFromJSON accepts either a direct array of readings or a wrapper
// object with a "data" or "readings" array whose objects use loose field
// names. Objects missing a required field are skipped, not fatal.
func (e *Extractor) extractFromJSON(content []byte) ([]Reading, error) {
	var direct []Reading
	if err := json.Unmarshal(content, &direct); err == nil && directDecodeValid(direct) {
		return direct, nil
	}

	var value any
	if err := json.Unmarshal(content, &value); err != nil {
		return nil, fmt.Errorf("unable to parse JSON: %w", err)
	}

	var items []any
	if obj, ok := value.(map[string]any); ok {
		if arr, ok := obj["data"].([]any); ok {
			items = arr
		} else if arr, ok := obj["readings"].([]any); ok {
			items = arr
		}
	}

	var readings []Reading
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		reading, err := readingFromJSONObject(obj)
		if err != nil {
			e.log.Debug("json object skipped", slog.String("error", err.Error()))
			continue
		}
		readings = append(readings, reading)
	}

	e.log.Info("json extraction completed", slog.Int("readings", len(readings)))
	return readings, nil
}

func readingFromJSONObject(item map[string]any) (Reading, error) {
	tsStr, ok := stringField(item, "timestamp", "time", "date")
	if !ok {
		return Reading{}, fmt.Errorf("missing timestamp")
	}
	ts, err := timestamp.Parse(tsStr)
	if err != nil {
		return Reading{}, err
	}

	sensorID, ok := stringField(item, "sensor_id", "sensor", "device_id")
	if !ok {
		sensorID = "unknown"
	}

	temp, ok := floatField(item, "temperature", "temp")
	if !ok {
		return Reading{}, fmt.Errorf("missing temperature")
	}

	reading := Reading{
		SensorID:    sensorID,
		Timestamp:   ts,
		Temperature: temp,
	}
	if humidity, ok := floatField(item, "humidity", "hum"); ok {
		reading.Humidity = &humidity
	}
	if location, ok := stringField(item, "location", "room"); ok {
		reading.Location = &location
	}

	return reading, nil
}

// extractFromText scans line-oriented text for timestamp/sensor/value
// triples. Lines that do not match, or whose values do not parse, are
// skipped silently.
func (e *Extractor) extractFromText(content []byte) ([]Reading, error) {
	text := strings.ToValidUTF8(string(content), "�")

	var readings []Reading
	for _, line := range strings.Split(text, "\n") {
		m := textLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		ts, err := timestamp.Parse(m[1])
		if err != nil {
			continue
		}
		temp, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			continue
		}

		readings = append(readings, Reading{
			SensorID:    m[2],
			Timestamp:   ts,
			Temperature: temp,
		})
	}

	e.log.Info("text extraction completed", slog.Int("readings", len(readings)))
	return readings, nil
}

// directDecodeValid guards the direct-array decode: unmarshalling fills
// missing fields with zero values instead of failing, so an array of
// foreign objects would otherwise pass as empty readings.
func directDecodeValid(readings []Reading) bool {
	for _, r := range readings {
		if r.SensorID == "" || r.Timestamp.IsZero() {
			return false
		}
	}
	return true
}

func stringField(item map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := item[key].(string); ok {
			return v, true
		}
	}
	return "", false
}

func floatField(item map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := item[key].(float64); ok {
			return v, true
		}
	}
	return 0, false
}
