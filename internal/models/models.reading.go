// FilePath: internal/models/models.reading.go
package models

import "time"

// Reading is a single immutable sensor sample. Readings are created exactly
// once per ingested frame and never mutated afterwards.
type Reading struct {
	ID          string    `json:"id" db:"id"`
	SensorID    string    `json:"sensor_id" db:"sensor_id"`
	VehicleID   string    `json:"vehicle_id" db:"vehicle_id"`
	Value       float64   `json:"value" db:"value"`
	Unit        string    `json:"unit" db:"unit"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Metadata    JSON      `json:"metadata,omitempty" db:"metadata"`
	OutOfRange  bool      `json:"out_of_range" db:"out_of_range"`
	AlertRaised bool      `json:"alert_raised" db:"alert_raised"`
}

// ReadingAggregate represents bucketed reading statistics for one sensor.
type ReadingAggregate struct {
	SensorID  string    `json:"sensor_id" db:"sensor_id"`
	Min       float64   `json:"min" db:"min_value"`
	Max       float64   `json:"max" db:"max_value"`
	Avg       float64   `json:"avg" db:"avg_value"`
	Count     int       `json:"count" db:"reading_count"`
	StartTime time.Time `json:"start_time" db:"bucket"`
	EndTime   time.Time `json:"end_time" db:"bucket_end"`
}
