package repository

import (
	"time"

	"github.com/google/uuid"
)

// Sensor is a known temperature probe, created on first sight.
type Sensor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Location  *string   `db:"location" json:"location,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TemperatureRow is a stored temperature reading joined with its sensor name.
type TemperatureRow struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SensorID    uuid.UUID `db:"sensor_id" json:"sensor_id"`
	SensorName  string    `db:"sensor_name" json:"sensor_name"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	Temperature float64   `db:"temperature" json:"temperature"`
	Humidity    *float64  `db:"humidity" json:"humidity,omitempty"`
	Location    *string   `db:"location" json:"location,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PoolRow is a stored pool chemistry reading.
type PoolRow struct {
	ID          uuid.UUID `db:"id" json:"id"`
	MessageID   string    `db:"message_id" json:"message_id"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	Temperature *float64  `db:"temperature" json:"temperature,omitempty"`
	PH          *float64  `db:"ph" json:"ph,omitempty"`
	ORP         *int      `db:"orp" json:"orp,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
