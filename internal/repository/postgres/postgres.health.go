// FilePath: internal/repository/postgres/postgres.health.go
package postgres

import (
	"context"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
)

type HealthStateRepo struct {
	PostgresBaseRepo
}

func NewHealthStateRepository(db database.DB) *HealthStateRepo {
	repo := &PostgresBaseRepo{db: db}
	return &HealthStateRepo{PostgresBaseRepo: *repo}
}

// Upsert writes the current verdict for a (vehicle, component) pair. The
// unique constraint on the pair guarantees at most one row survives
// concurrent writers.
func (r *HealthStateRepo) Upsert(ctx context.Context, state *models.CurrentHealthState) error {
	query := `
		INSERT INTO current_health_states (
			vehicle_id, component_id, last_value, tier, updated_at
		) VALUES (
			:vehicle_id, :component_id, :last_value, :tier, :updated_at
		)
		ON CONFLICT (vehicle_id, component_id) DO UPDATE SET
			last_value = EXCLUDED.last_value,
			tier = EXCLUDED.tier,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, state)
	if err != nil {
		return errors.NewDatabaseError("failed to upsert health state", err)
	}
	return nil
}

// ListAll returns the full persisted snapshot. Used once at startup to warm
// the in-memory store so a restart does not forget every verdict.
func (r *HealthStateRepo) ListAll(ctx context.Context) ([]models.CurrentHealthState, error) {
	states := []models.CurrentHealthState{}
	query := `SELECT * FROM current_health_states ORDER BY vehicle_id, component_id`

	err := r.db.GetDB().SelectContext(ctx, &states, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list health states", err)
	}

	return states, nil
}
