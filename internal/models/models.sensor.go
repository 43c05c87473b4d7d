// FilePath: internal/models/models.sensor.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSON is a wrapper around map[string]interface{} for database storage
type JSON map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

type SensorKind string

const (
	Temperature SensorKind = "temperature"
	Pressure    SensorKind = "pressure"
	Voltage     SensorKind = "voltage"
	RPM         SensorKind = "rpm"
	Vibration   SensorKind = "vibration"
	FuelLevel   SensorKind = "fuel_level"
	Speed       SensorKind = "speed"
	Other       SensorKind = "other"
)

type SensorStatus string

const (
	SensorActive      SensorStatus = "active"
	SensorInactive    SensorStatus = "inactive"
	SensorError       SensorStatus = "error"
	SensorMaintenance SensorStatus = "maintenance"
)

// Sensor is a physical measurement source bound to exactly one vehicle.
// Sensors are soft-deleted only; every query filters on deleted_at.
type Sensor struct {
	ID               string        `json:"id" db:"id"`
	VehicleID        string        `json:"vehicle_id" db:"vehicle_id"`
	ComponentID      string        `json:"component_id" db:"component_id"`
	Name             string        `json:"name" db:"name"`
	Kind             SensorKind    `json:"kind" db:"kind"`
	Unit             string        `json:"unit" db:"unit"`
	SamplingInterval time.Duration `json:"sampling_interval" db:"sampling_interval"`
	MinValue         *float64      `json:"min_value,omitempty" db:"min_value"`
	MaxValue         *float64      `json:"max_value,omitempty" db:"max_value"`
	LastValue        float64       `json:"last_value" db:"last_value"`
	LastSeen         time.Time     `json:"last_seen" db:"last_seen"`
	Status           SensorStatus  `json:"status" db:"status"`
	ErrorMessage     string        `json:"error_message,omitempty" db:"error_message"`
	Metadata         JSON          `json:"metadata" db:"metadata"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsDeleted reports whether the sensor has been soft-deleted.
func (s *Sensor) IsDeleted() bool {
	return s.DeletedAt != nil
}

// OutOfRange reports whether a value falls outside the sensor's alert
// thresholds. Unset bounds never trigger.
func (s *Sensor) OutOfRange(value float64) bool {
	if s.MinValue != nil && value < *s.MinValue {
		return true
	}
	if s.MaxValue != nil && value > *s.MaxValue {
		return true
	}
	return false
}

// SensorTemplate describes one sensor to provision for a vehicle model.
// Provisioning instantiates every template matching the vehicle's model.
type SensorTemplate struct {
	ID               string        `json:"id" db:"id"`
	VehicleModel     string        `json:"vehicle_model" db:"vehicle_model"`
	ComponentID      string        `json:"component_id" db:"component_id"`
	Name             string        `json:"name" db:"name"`
	Kind             SensorKind    `json:"kind" db:"kind"`
	Unit             string        `json:"unit" db:"unit"`
	SamplingInterval time.Duration `json:"sampling_interval" db:"sampling_interval"`
	MinValue         *float64      `json:"min_value,omitempty" db:"min_value"`
	MaxValue         *float64      `json:"max_value,omitempty" db:"max_value"`
}

// Instantiate creates a concrete sensor for the given vehicle from the template.
func (t *SensorTemplate) Instantiate(id, vehicleID string, now time.Time) *Sensor {
	return &Sensor{
		ID:               id,
		VehicleID:        vehicleID,
		ComponentID:      t.ComponentID,
		Name:             t.Name,
		Kind:             t.Kind,
		Unit:             t.Unit,
		SamplingInterval: t.SamplingInterval,
		MinValue:         t.MinValue,
		MaxValue:         t.MaxValue,
		Status:           SensorActive,
		Metadata:         JSON{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
