// FilePath: internal/hubservice/hubservice.read.go
package hubservice

import (
	"context"
	"time"

	"github.com/fleetpulse/hub/internal/auth"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/itsatony/struccy"
)

// Read-side accessors backing the REST surface. Most are thin
// pass-throughs; the repositories own the query discipline.

// GetVehicle retrieves a vehicle with role-based field filtering: fields
// tagged for restricted read access (VIN, owner id) are only visible to the
// vehicle's owner and to admin/system callers.
func (s *HubService) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle, err := s.Vehicles.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	roles := auth.Roles(ctx)
	if auth.UserID(ctx) == vehicle.OwnerID {
		roles = append(roles, "owner")
	}

	filteredMap, err := struccy.StructToMapFieldsWithReadXS(vehicle, roles)
	if err != nil {
		return nil, errors.NewInternalError("failed to filter vehicle fields", err)
	}
	filtered := &models.Vehicle{}
	if _, err := struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, roles); err != nil {
		return nil, errors.NewInternalError("failed to map filtered vehicle fields", err)
	}

	return filtered, nil
}

func (s *HubService) ListVehicles(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	return s.Vehicles.List(ctx, offset, limit)
}

func (s *HubService) GetSensor(ctx context.Context, id string) (*models.Sensor, error) {
	return s.Sensors.Get(ctx, id)
}

func (s *HubService) ListSensors(ctx context.Context, filters models.SensorFilters, offset, limit int) (int64, []*models.Sensor, error) {
	return s.Sensors.List(ctx, filters, offset, limit)
}

func (s *HubService) GetSensorReadings(ctx context.Context, sensorID string, start, end time.Time, interval string) ([]models.ReadingAggregate, error) {
	return s.History.GetAggregates(ctx, sensorID, start, end, interval)
}

func (s *HubService) GetRawReadings(ctx context.Context, sensorID string, start, end time.Time) ([]models.Reading, error) {
	return s.History.GetReadings(ctx, sensorID, start, end)
}
