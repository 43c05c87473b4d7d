// FilePath: internal/repository/postgres/postgres.rule.go
package postgres

import (
	"context"
	"database/sql"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
)

type RuleRepo struct {
	PostgresBaseRepo
}

func NewRuleRepository(db database.DB) *RuleRepo {
	repo := &PostgresBaseRepo{db: db}
	return &RuleRepo{PostgresBaseRepo: *repo}
}

func (r *RuleRepo) Get(ctx context.Context, id string) (*models.Rule, error) {
	rule := &models.Rule{}
	query := `SELECT * FROM threshold_rules WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, rule, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("rule not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get rule", err)
	}
	return rule, nil
}

func (r *RuleRepo) ListAll(ctx context.Context) ([]*models.Rule, error) {
	rules := []*models.Rule{}
	query := `SELECT * FROM threshold_rules ORDER BY component_id, parameter`

	err := r.db.GetDB().SelectContext(ctx, &rules, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list rules", err)
	}

	return rules, nil
}

func (r *RuleRepo) ListByComponent(ctx context.Context, componentID string) ([]*models.Rule, error) {
	rules := []*models.Rule{}
	query := `SELECT * FROM threshold_rules WHERE component_id = $1 ORDER BY parameter`

	err := r.db.GetDB().SelectContext(ctx, &rules, query, componentID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list rules", err)
	}

	return rules, nil
}
