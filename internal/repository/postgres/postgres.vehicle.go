// FilePath: internal/repository/postgres/postgres.vehicle.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
)

type VehicleRepo struct {
	PostgresBaseRepo
}

func NewVehicleRepository(db database.DB) *VehicleRepo {
	repo := &PostgresBaseRepo{db: db}
	return &VehicleRepo{PostgresBaseRepo: *repo}
}

func (r *VehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (
			id, owner_id, name, model, vin, year,
			last_seen, last_telemetry_at, created_at, updated_at
		) VALUES (
			:id, :owner_id, :name, :model, :vin, :year,
			:last_seen, :last_telemetry_at, :created_at, :updated_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, vehicle)
	if err != nil {
		return errors.NewDatabaseError("failed to create vehicle", err)
	}
	return nil
}

func (r *VehicleRepo) Get(ctx context.Context, id string) (*models.Vehicle, error) {
	vehicle := &models.Vehicle{}
	query := `SELECT * FROM vehicles WHERE id = $1 AND deleted_at IS NULL`

	err := r.db.GetDB().GetContext(ctx, vehicle, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("vehicle not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get vehicle", err)
	}
	return vehicle, nil
}

func (r *VehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	query := `
		UPDATE vehicles SET
			name = :name,
			model = :model,
			vin = :vin,
			year = :year,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, vehicle)
	if err != nil {
		return errors.NewDatabaseError("failed to update vehicle", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("vehicle not found", nil)
	}

	return nil
}

func (r *VehicleRepo) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE vehicles SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.GetDB().ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete vehicle", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("vehicle not found", nil)
	}

	return nil
}

func (r *VehicleRepo) List(ctx context.Context, offset, limit int) ([]*models.Vehicle, error) {
	vehicles := []*models.Vehicle{}
	query := `SELECT * FROM vehicles WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	err := r.db.GetDB().SelectContext(ctx, &vehicles, query, limit, offset)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list vehicles", err)
	}

	return vehicles, nil
}

func (r *VehicleRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	query := `UPDATE vehicles SET last_seen = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.GetDB().ExecContext(ctx, query, lastSeen, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last seen", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("vehicle not found", nil)
	}

	return nil
}

func (r *VehicleRepo) UpdateLastTelemetry(ctx context.Context, id string, receivedAt time.Time) error {
	query := `UPDATE vehicles SET last_telemetry_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.GetDB().ExecContext(ctx, query, receivedAt, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last telemetry", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("vehicle not found", nil)
	}

	return nil
}
