package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/homemetrics/backend/internal/metrics"
	"github.com/homemetrics/backend/internal/pool"
	"github.com/homemetrics/backend/internal/temperature"
)

// ReadingRepository stores and queries sensor readings.
type ReadingRepository interface {
	SaveTemperatureReadings(ctx context.Context, readings []temperature.Reading) (int, error)
	SavePoolReading(ctx context.Context, messageID string, reading pool.Reading) (bool, error)
	LatestTemperature(ctx context.Context, sensorName string, limit int) ([]TemperatureRow, error)
	LatestPool(ctx context.Context, limit int) ([]PoolRow, error)
}

type readingRepository struct {
	db *sqlx.DB
}

func NewReadingRepository(db *sqlx.DB) ReadingRepository {
	return &readingRepository{db: db}
}

// SaveTemperatureReadings inserts readings inside a single transaction,
// creating sensors on first sight. Readings that already exist for the
// same sensor and timestamp are skipped. Returns the number actually saved.
func (r *readingRepository) SaveTemperatureReadings(ctx context.Context, readings []temperature.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	sensorIDs := make(map[string]string)
	saved := 0
	for _, reading := range readings {
		sensorID, ok := sensorIDs[reading.SensorID]
		if !ok {
			sensorID, err = ensureSensor(ctx, tx, reading.SensorID, reading.Location)
			if err != nil {
				return 0, fmt.Errorf("ensure sensor %q: %w", reading.SensorID, err)
			}
			sensorIDs[reading.SensorID] = sensorID
		}

		start := time.Now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO temperature_readings (sensor_id, timestamp, temperature, humidity, location)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (sensor_id, timestamp) DO NOTHING`,
			sensorID, reading.Timestamp, reading.Temperature, reading.Humidity, reading.Location)
		metrics.DBQueryDuration.WithLabelValues("insert_temperature_reading").Observe(time.Since(start).Seconds())
		if err != nil {
			return 0, fmt.Errorf("insert temperature reading: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		saved += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	if saved > 0 {
		metrics.ReadingsSavedTotal.WithLabelValues("temperature").Add(float64(saved))
	}
	return saved, nil
}

func ensureSensor(ctx context.Context, tx *sqlx.Tx, name string, location *string) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		INSERT INTO sensors (name, location)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		name, location)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SavePoolReading inserts one pool reading keyed by the source message id.
// A second reading for the same message is skipped. Returns whether a row
// was written.
func (r *readingRepository) SavePoolReading(ctx context.Context, messageID string, reading pool.Reading) (bool, error) {
	start := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO pool_readings (message_id, timestamp, temperature, ph, orp)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id) DO NOTHING`,
		messageID, reading.Timestamp, reading.Temperature, reading.PH, reading.ORP)
	metrics.DBQueryDuration.WithLabelValues("insert_pool_reading").Observe(time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("insert pool reading: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		metrics.ReadingsSavedTotal.WithLabelValues("pool").Inc()
	}
	return n > 0, nil
}

// LatestTemperature returns the most recent temperature rows, optionally
// filtered to a single sensor by name.
func (r *readingRepository) LatestTemperature(ctx context.Context, sensorName string, limit int) ([]TemperatureRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows := []TemperatureRow{}
	start := time.Now()
	var err error
	if sensorName != "" {
		err = r.db.SelectContext(ctx, &rows, `
			SELECT tr.id, tr.sensor_id, s.name AS sensor_name, tr.timestamp,
			       tr.temperature, tr.humidity, tr.location, tr.created_at
			FROM temperature_readings tr
			JOIN sensors s ON s.id = tr.sensor_id
			WHERE s.name = $1
			ORDER BY tr.timestamp DESC
			LIMIT $2`,
			sensorName, limit)
	} else {
		err = r.db.SelectContext(ctx, &rows, `
			SELECT tr.id, tr.sensor_id, s.name AS sensor_name, tr.timestamp,
			       tr.temperature, tr.humidity, tr.location, tr.created_at
			FROM temperature_readings tr
			JOIN sensors s ON s.id = tr.sensor_id
			ORDER BY tr.timestamp DESC
			LIMIT $1`,
			limit)
	}
	metrics.DBQueryDuration.WithLabelValues("select_temperature_readings").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("select temperature readings: %w", err)
	}
	return rows, nil
}

// LatestPool returns the most recent pool chemistry rows.
func (r *readingRepository) LatestPool(ctx context.Context, limit int) ([]PoolRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows := []PoolRow{}
	start := time.Now()
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, message_id, timestamp, temperature, ph, orp, created_at
		FROM pool_readings
		ORDER BY timestamp DESC
		LIMIT $1`,
		limit)
	metrics.DBQueryDuration.WithLabelValues("select_pool_readings").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("select pool readings: %w", err)
	}
	return rows, nil
}
