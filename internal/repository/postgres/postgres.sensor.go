// FilePath: internal/repository/postgres/postgres.sensor.go
package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type SensorRepo struct {
	PostgresBaseRepo
}

func NewSensorRepository(db database.DB) *SensorRepo {
	repo := &PostgresBaseRepo{db: db}
	return &SensorRepo{PostgresBaseRepo: *repo}
}

func (r *SensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	query := `
		INSERT INTO sensors (
			id, vehicle_id, component_id, name, kind, unit,
			sampling_interval, min_value, max_value,
			last_value, last_seen, status, error_message,
			metadata, created_at, updated_at
		) VALUES (
			:id, :vehicle_id, :component_id, :name, :kind, :unit,
			:sampling_interval, :min_value, :max_value,
			:last_value, :last_seen, :status, :error_message,
			:metadata, :created_at, :updated_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, sensor)
	if err != nil {
		return errors.NewDatabaseError("failed to create sensor", err)
	}
	return nil
}

func (r *SensorRepo) Get(ctx context.Context, id string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT * FROM sensors WHERE id = $1 AND deleted_at IS NULL`

	err := r.db.GetDB().GetContext(ctx, sensor, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get sensor", err)
	}
	return sensor, nil
}

func (r *SensorRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]*models.Sensor, error) {
	sensors := []*models.Sensor{}
	query := `SELECT * FROM sensors WHERE vehicle_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &sensors, query, vehicleID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensors", err)
	}

	return sensors, nil
}

func (r *SensorRepo) Update(ctx context.Context, sensor *models.Sensor) error {
	query := `
		UPDATE sensors SET
			name = :name,
			kind = :kind,
			unit = :unit,
			sampling_interval = :sampling_interval,
			min_value = :min_value,
			max_value = :max_value,
			status = :status,
			error_message = :error_message,
			metadata = :metadata,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, sensor)
	if err != nil {
		return errors.NewDatabaseError("failed to update sensor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}

func (r *SensorRepo) UpdateLastValue(ctx context.Context, id string, value float64, timestamp time.Time) error {
	query := `
		UPDATE sensors SET
			last_value = $1,
			last_seen = $2,
			updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL`

	result, err := r.db.GetDB().ExecContext(ctx, query, value, timestamp, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last value", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}

func (r *SensorRepo) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE sensors SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.GetDB().ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete sensor", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}

func (r *SensorRepo) TemplatesForModel(ctx context.Context, vehicleModel string) ([]*models.SensorTemplate, error) {
	templates := []*models.SensorTemplate{}
	query := `SELECT * FROM sensor_templates WHERE vehicle_model = $1 ORDER BY name`

	err := r.db.GetDB().SelectContext(ctx, &templates, query, vehicleModel)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor templates", err)
	}

	return templates, nil
}

// PurgeDeleted removes sensors whose soft-delete timestamp is older than the
// retention window. Called by the cleanup sweep only.
func (r *SensorRepo) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM sensors WHERE deleted_at IS NOT NULL AND deleted_at < $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to purge deleted sensors", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[SensorRepo] Purged %d soft-deleted sensors older than %v", rows, before)
	return rows, nil
}

// sensorListRow carries the window-function total alongside each sensor so
// one query yields both the page and the unpaginated count.
type sensorListRow struct {
	models.Sensor
	Count int64 `db:"count"`
}

func (r *SensorRepo) List(ctx context.Context, filters models.SensorFilters, offset, limit int) (int64, []*models.Sensor, error) {
	query := `SELECT COUNT(*) OVER() AS count, sensors.* FROM sensors WHERE 1=1`
	args := []interface{}{}

	if !filters.Deleted {
		query += ` AND deleted_at IS NULL`
	}
	if filters.VehicleID != "" {
		args = append(args, filters.VehicleID)
		query += ` AND vehicle_id = $` + itoa(len(args))
	}
	if filters.ComponentID != "" {
		args = append(args, filters.ComponentID)
		query += ` AND component_id = $` + itoa(len(args))
	}
	if filters.Kind != "" {
		args = append(args, filters.Kind)
		query += ` AND kind = $` + itoa(len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += ` AND status = $` + itoa(len(args))
	}

	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + itoa(len(args))

	rows := []sensorListRow{}
	err := r.db.GetDB().SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return 0, nil, errors.NewDatabaseError("failed to list sensors", err)
	}

	var total int64
	sensors := make([]*models.Sensor, 0, len(rows))
	for i := range rows {
		total = rows[i].Count
		sensor := rows[i].Sensor
		sensors = append(sensors, &sensor)
	}

	return total, sensors, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
