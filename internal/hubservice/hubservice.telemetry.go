// FilePath: internal/hubservice/hubservice.telemetry.go
package hubservice

import (
	"context"
	"time"

	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/events"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/rules"
	nuts "github.com/vaudience/go-nuts"
)

// RecordReading is the ingestion flow behind every accepted telemetry
// frame: validate the sensor, persist the immutable reading, classify the
// value, commit the health transition and publish the resulting events.
// History and last-value bookkeeping are best-effort; evaluation and the
// state upsert are not.
func (s *HubService) RecordReading(ctx context.Context, vehicleID, sensorID string, value float64, timestamp time.Time, metadata models.JSON) (*models.Reading, error) {
	sensor, err := s.Sensors.Get(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if sensor.VehicleID != vehicleID {
		return nil, errors.NewNotFoundError("sensor does not belong to this vehicle", nil)
	}
	if sensor.Status == models.SensorInactive {
		return nil, errors.NewValidationError("sensor is not accepting readings", nil)
	}

	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	tier := rules.Evaluate(value, s.RuleSet.Find(sensor.ComponentID, sensor.Kind))

	reading := &models.Reading{
		ID:          nuts.NID("rd", 12),
		SensorID:    sensor.ID,
		VehicleID:   vehicleID,
		Value:       value,
		Unit:        sensor.Unit,
		Timestamp:   timestamp,
		Metadata:    metadata,
		OutOfRange:  sensor.OutOfRange(value),
		AlertRaised: tier == models.TierCritical,
	}

	// History is analytics-only; a failed append must not drop the frame.
	if err := s.History.Append(ctx, reading); err != nil {
		nuts.L.Warnf("[TelemetryService] Failed to append reading %s to history: %v", reading.ID, err)
	}
	if err := s.Sensors.UpdateLastValue(ctx, sensor.ID, value, timestamp); err != nil {
		nuts.L.Warnf("[TelemetryService] Failed to update sensor last value: %v", err)
	}
	if err := s.Vehicles.UpdateLastTelemetry(ctx, vehicleID, timestamp); err != nil {
		nuts.L.Warnf("[TelemetryService] Failed to update vehicle last telemetry: %v", err)
	}

	previous, current := s.State.Upsert(vehicleID, sensor.ComponentID, value, tier)

	now := time.Now().UTC()
	s.Bus.Publish(events.ReadingRegistered{Reading: *reading, At: now})
	if previous != current {
		s.Bus.Publish(events.StateChanged{
			VehicleID:   vehicleID,
			ComponentID: sensor.ComponentID,
			OldTier:     previous,
			NewTier:     current,
			Value:       value,
			At:          now,
		})
	}
	if current == models.TierCritical {
		s.Bus.Publish(events.CriticalThresholdViolated{
			VehicleID:   vehicleID,
			ComponentID: sensor.ComponentID,
			SensorID:    sensor.ID,
			Value:       value,
			At:          now,
		})
	}
	if reading.OutOfRange {
		s.Bus.Publish(events.SensorOutOfRange{
			VehicleID:   vehicleID,
			ComponentID: sensor.ComponentID,
			SensorID:    sensor.ID,
			Value:       value,
			At:          now,
		})
	}

	return reading, nil
}

// VehicleHealth assembles the aggregated health view for a vehicle from
// the live in-memory state.
func (s *HubService) VehicleHealth(ctx context.Context, vehicleID string) (*models.VehicleHealth, error) {
	if _, err := s.Vehicles.Get(ctx, vehicleID); err != nil {
		return nil, err
	}

	components := s.State.Snapshot(vehicleID)
	return &models.VehicleHealth{
		VehicleID:  vehicleID,
		Overall:    s.State.Aggregate(vehicleID),
		Components: components,
	}, nil
}

// ProvisionSensors instantiates every sensor template registered for the
// vehicle's model. Called when a vehicle is onboarded.
func (s *HubService) ProvisionSensors(ctx context.Context, vehicleID string) ([]*models.Sensor, error) {
	vehicle, err := s.Vehicles.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	templates, err := s.Sensors.TemplatesForModel(ctx, vehicle.Model)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	provisioned := make([]*models.Sensor, 0, len(templates))
	for _, template := range templates {
		sensor := template.Instantiate(nuts.NID("sn", 12), vehicleID, now)
		if err := s.Sensors.Create(ctx, sensor); err != nil {
			nuts.L.Errorf("[TelemetryService] Failed to provision sensor %s for vehicle %s: %v", template.Name, vehicleID, err)
			continue
		}
		provisioned = append(provisioned, sensor)
	}

	nuts.L.Infof("[TelemetryService] Provisioned %d sensors for vehicle %s (model %s)", len(provisioned), vehicleID, vehicle.Model)
	return provisioned, nil
}
