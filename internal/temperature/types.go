package temperature

import "time"

// Reading is one temperature/humidity measurement from a sensor export.
// SensorID is always non-empty; Humidity and Location are absent when the
// source format does not carry them.
type Reading struct {
	SensorID    string    `json:"sensor_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Location    *string   `json:"location,omitempty"`
}
