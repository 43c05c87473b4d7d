// FilePath: internal/rules/ruleset_test.go
package rules_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/fleetpulse/hub/internal/database"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type fakeRuleRepo struct {
	rules []*models.Rule
}

func (f *fakeRuleRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (f *fakeRuleRepo) Get(ctx context.Context, id string) (*models.Rule, error) { return nil, nil }

func (f *fakeRuleRepo) ListAll(ctx context.Context) ([]*models.Rule, error) {
	return f.rules, nil
}

func (f *fakeRuleRepo) ListByComponent(ctx context.Context, componentID string) ([]*models.Rule, error) {
	return nil, nil
}

func TestLoadIndexesRulesByComponentAndParameter(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*models.Rule{
		{ID: "r1", ComponentID: "engine", Parameter: models.Temperature, Logic: models.GreaterThan},
		{ID: "r2", ComponentID: "engine", Parameter: models.RPM, Logic: models.GreaterThan},
		{ID: "r3", ComponentID: "battery", Parameter: models.Voltage, Logic: models.LessThan},
	}}

	set := rules.NewRuleSet()
	require.NoError(t, set.Load(context.Background(), repo))

	assert.Equal(t, 3, set.Len())
	require.NotNil(t, set.Find("engine", models.Temperature))
	assert.Equal(t, "r1", set.Find("engine", models.Temperature).ID)
	assert.Nil(t, set.Find("engine", models.Voltage))
}

func TestLoadKeepsFirstDuplicate(t *testing.T) {
	repo := &fakeRuleRepo{rules: []*models.Rule{
		{ID: "first", ComponentID: "engine", Parameter: models.Temperature},
		{ID: "second", ComponentID: "engine", Parameter: models.Temperature},
	}}

	set := rules.NewRuleSet()
	require.NoError(t, set.Load(context.Background(), repo))

	assert.Equal(t, 1, set.Len(), "one rule per (component, parameter) pair")
	assert.Equal(t, "first", set.Find("engine", models.Temperature).ID)
}

func TestLoadReplacesPreviousIndex(t *testing.T) {
	set := rules.NewRuleSet()
	set.Put(&models.Rule{ID: "stale", ComponentID: "engine", Parameter: models.Temperature})

	repo := &fakeRuleRepo{rules: []*models.Rule{
		{ID: "fresh", ComponentID: "battery", Parameter: models.Voltage},
	}}
	require.NoError(t, set.Load(context.Background(), repo))

	assert.Nil(t, set.Find("engine", models.Temperature), "reload is wholesale replacement")
	assert.NotNil(t, set.Find("battery", models.Voltage))
}
