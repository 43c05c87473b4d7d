// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// VehicleRepository defines the interface for vehicle data operations
type VehicleRepository interface {
	database.Repository
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Get(ctx context.Context, id string) (*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error)
	UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error
	UpdateLastTelemetry(ctx context.Context, id string, receivedAt time.Time) error
}

// SensorRepository defines the interface for sensor data operations
type SensorRepository interface {
	database.Repository
	Create(ctx context.Context, sensor *models.Sensor) error
	Get(ctx context.Context, id string) (*models.Sensor, error)
	Update(ctx context.Context, sensor *models.Sensor) error
	SoftDelete(ctx context.Context, id string) error
	ListByVehicle(ctx context.Context, vehicleID string) ([]*models.Sensor, error)
	List(ctx context.Context, filters models.SensorFilters, offset, limit int) (int64, []*models.Sensor, error)
	UpdateLastValue(ctx context.Context, id string, value float64, timestamp time.Time) error
	TemplatesForModel(ctx context.Context, vehicleModel string) ([]*models.SensorTemplate, error)
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

// RuleRepository defines the interface for threshold rule lookups. Rules are
// mutated only by administrative flows; the pipeline loads them read-only.
type RuleRepository interface {
	database.Repository
	Get(ctx context.Context, id string) (*models.Rule, error)
	ListAll(ctx context.Context) ([]*models.Rule, error)
	ListByComponent(ctx context.Context, componentID string) ([]*models.Rule, error)
}

// HealthStateRepository persists the current health snapshot per
// (vehicle, component). One row per pair, enforced by upsert.
type HealthStateRepository interface {
	database.Repository
	Upsert(ctx context.Context, state *models.CurrentHealthState) error
	ListAll(ctx context.Context) ([]models.CurrentHealthState, error)
}

// ReadingHistoryRepository appends immutable readings for analytics. Writes
// on the ingestion path are best-effort.
type ReadingHistoryRepository interface {
	database.Repository
	Append(ctx context.Context, reading *models.Reading) error
	GetReadings(ctx context.Context, sensorID string, start, end time.Time) ([]models.Reading, error)
	GetAggregates(ctx context.Context, sensorID string, start, end time.Time, interval string) ([]models.ReadingAggregate, error)
	DeleteOldData(ctx context.Context, before time.Time) error
}
