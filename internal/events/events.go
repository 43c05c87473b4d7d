// FilePath: internal/events/events.go
package events

import (
	"time"

	"github.com/fleetpulse/hub/internal/models"
)

// Type tags an event variant. The set is closed: producers publish only the
// variants below and subscribers key their registration on the tag.
type Type string

const (
	TypeReadingRegistered         Type = "reading.registered"
	TypeStateChanged              Type = "health.state_changed"
	TypeCriticalThresholdViolated Type = "health.critical_threshold"
	TypeSensorOutOfRange          Type = "sensor.out_of_range"
)

// Event is a typed, immutable record. The bus dispatches events and owns
// nothing beyond the subscriber registry; persistence is a subscriber's job.
type Event interface {
	EventType() Type
	OccurredAt() time.Time
}

// ReadingRegistered is published for every accepted reading.
type ReadingRegistered struct {
	Reading models.Reading
	At      time.Time
}

func (e ReadingRegistered) EventType() Type       { return TypeReadingRegistered }
func (e ReadingRegistered) OccurredAt() time.Time { return e.At }

// StateChanged is published when a component's health tier transitions.
type StateChanged struct {
	VehicleID   string
	ComponentID string
	OldTier     models.HealthTier
	NewTier     models.HealthTier
	Value       float64
	At          time.Time
}

func (e StateChanged) EventType() Type       { return TypeStateChanged }
func (e StateChanged) OccurredAt() time.Time { return e.At }

// CriticalThresholdViolated is published whenever a reading lands in the
// critical band, whether or not it caused a transition.
type CriticalThresholdViolated struct {
	VehicleID   string
	ComponentID string
	SensorID    string
	Value       float64
	At          time.Time
}

func (e CriticalThresholdViolated) EventType() Type       { return TypeCriticalThresholdViolated }
func (e CriticalThresholdViolated) OccurredAt() time.Time { return e.At }

// SensorOutOfRange is published when a reading falls outside the sensor's
// own min/max alert thresholds.
type SensorOutOfRange struct {
	VehicleID   string
	ComponentID string
	SensorID    string
	Value       float64
	At          time.Time
}

func (e SensorOutOfRange) EventType() Type       { return TypeSensorOutOfRange }
func (e SensorOutOfRange) OccurredAt() time.Time { return e.At }
