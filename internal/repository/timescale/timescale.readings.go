// FilePath: internal/repository/timescale/timescale.readings.go
package timescale

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingHistoryRepo struct {
	db database.DB
}

func NewReadingHistoryRepository(db database.DB) (*ReadingHistoryRepo, error) {
	repo := &ReadingHistoryRepo{db: db}
	err := repo.initializeSchema()
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReadingHistoryRepo) initializeSchema() error {
	// Create hypertable for readings
	queries := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id TEXT NOT NULL,
			sensor_id TEXT NOT NULL,
			vehicle_id TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			unit TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			metadata JSONB,
			out_of_range BOOLEAN NOT NULL DEFAULT FALSE,
			alert_raised BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`SELECT create_hypertable('readings', 'timestamp',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE MATERIALIZED VIEW IF NOT EXISTS readings_hourly
			WITH (timescaledb.continuous) AS
			SELECT sensor_id,
				time_bucket('1 hour', timestamp) AS bucket,
				MIN(value) as min_value,
				MAX(value) as max_value,
				AVG(value) as avg_value,
				COUNT(*) as reading_count
			FROM readings
			GROUP BY sensor_id, time_bucket('1 hour', timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_sensor_timestamp
		 ON readings(sensor_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_vehicle_timestamp
		 ON readings(vehicle_id, timestamp DESC)`,
	}

	for _, query := range queries {
		_, err := r.db.GetDB().Exec(query)
		if err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}

	return nil
}

func (r *ReadingHistoryRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to begin transaction", err)
	}
	return tx, nil
}

func (r *ReadingHistoryRepo) Append(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO readings (
			id, sensor_id, vehicle_id, value, unit, timestamp,
			metadata, out_of_range, alert_raised
		) VALUES (
			:id, :sensor_id, :vehicle_id, :value, :unit, :timestamp,
			:metadata, :out_of_range, :alert_raised
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, reading)
	if err != nil {
		return errors.NewDatabaseError("failed to append reading", err)
	}
	return nil
}

func (r *ReadingHistoryRepo) GetReadings(ctx context.Context, sensorID string, start, end time.Time) ([]models.Reading, error) {
	readings := []models.Reading{}
	query := `
		SELECT * FROM readings
		WHERE sensor_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp DESC`

	err := r.db.GetDB().SelectContext(ctx, &readings, query, sensorID, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get readings", err)
	}

	return readings, nil
}

func (r *ReadingHistoryRepo) GetAggregates(ctx context.Context, sensorID string, start, end time.Time, interval string) ([]models.ReadingAggregate, error) {
	bucket, err := bucketForInterval(interval)
	if err != nil {
		return nil, err
	}

	aggregates := []models.ReadingAggregate{}
	query := fmt.Sprintf(`
		SELECT sensor_id,
			time_bucket('%s', timestamp) AS bucket,
			time_bucket('%s', timestamp) + INTERVAL '%s' AS bucket_end,
			MIN(value) as min_value,
			MAX(value) as max_value,
			AVG(value) as avg_value,
			COUNT(*) as reading_count
		FROM readings
		WHERE sensor_id = $1 AND timestamp BETWEEN $2 AND $3
		GROUP BY sensor_id, time_bucket('%s', timestamp)
		ORDER BY bucket`, bucket, bucket, bucket, bucket)

	err = r.db.GetDB().SelectContext(ctx, &aggregates, query, sensorID, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get aggregates", err)
	}

	return aggregates, nil
}

// bucketForInterval whitelists the supported time_bucket widths; the value
// is interpolated into SQL and must never come from user input unchecked.
func bucketForInterval(interval string) (string, error) {
	switch interval {
	case "1min":
		return "1 minute", nil
	case "20min":
		return "20 minutes", nil
	case "1hour", "":
		return "1 hour", nil
	case "6hour":
		return "6 hours", nil
	case "1day":
		return "1 day", nil
	default:
		return "", errors.NewValidationError("unsupported aggregation interval", nil)
	}
}

func (r *ReadingHistoryRepo) DeleteOldData(ctx context.Context, before time.Time) error {
	query := `DELETE FROM readings WHERE timestamp < $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return errors.NewDatabaseError("failed to delete old readings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[ReadingHistoryRepo] Deleted %d readings older than %v", rows, before)
	return nil
}
