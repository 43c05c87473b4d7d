// FilePath: internal/rules/engine_test.go
package rules_test

import (
	"testing"

	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func engineTempRule() *models.Rule {
	return &models.Rule{
		ID:             "rule-engine-temp",
		ComponentID:    "engine",
		Parameter:      models.Temperature,
		Logic:          models.GreaterThan,
		GoodValue:      f64(90),
		AttentionValue: f64(105),
		CriticalValue:  f64(120),
	}
}

func TestEvaluateGreaterThan(t *testing.T) {
	rule := engineTempRule()

	tests := []struct {
		name  string
		value float64
		want  models.HealthTier
	}{
		{"below all thresholds", 70, models.TierExcellent},
		{"at good threshold", 90, models.TierGood},
		{"between good and attention", 100, models.TierGood},
		{"at attention threshold", 105, models.TierAttention},
		{"at critical threshold", 120, models.TierCritical},
		{"overheating", 130, models.TierCritical},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rules.Evaluate(tc.value, rule))
		})
	}
}

func TestEvaluateLessThan(t *testing.T) {
	rule := &models.Rule{
		ComponentID:    "battery",
		Parameter:      models.Voltage,
		Logic:          models.LessThan,
		GoodValue:      f64(12.5),
		AttentionValue: f64(11.8),
		CriticalValue:  f64(11.0),
	}

	assert.Equal(t, models.TierExcellent, rules.Evaluate(13.2, rule))
	assert.Equal(t, models.TierGood, rules.Evaluate(12.3, rule))
	assert.Equal(t, models.TierAttention, rules.Evaluate(11.5, rule))
	assert.Equal(t, models.TierCritical, rules.Evaluate(10.4, rule))
}

func TestEvaluateMonotonicSeverity(t *testing.T) {
	rule := engineTempRule()

	previous := rules.Evaluate(0, rule)
	for v := 1.0; v <= 200; v++ {
		current := rules.Evaluate(v, rule)
		require.GreaterOrEqual(t, current.Severity(), previous.Severity(),
			"severity regressed at value %f", v)
		previous = current
	}
	assert.Equal(t, models.TierCritical, rules.Evaluate(200, rule))
}

func TestEvaluateUnsetThresholdSkipsTier(t *testing.T) {
	rule := &models.Rule{
		ComponentID:   "brakes",
		Parameter:     models.Pressure,
		Logic:         models.GreaterThan,
		GoodValue:     f64(2.0),
		CriticalValue: f64(4.0),
	}

	// attention is unset, so the tier jumps straight from GOOD to CRITICAL
	assert.Equal(t, models.TierGood, rules.Evaluate(3.5, rule))
	assert.Equal(t, models.TierCritical, rules.Evaluate(4.0, rule))
}

func TestEvaluateNoRuleDefaultsToGood(t *testing.T) {
	assert.Equal(t, models.TierGood, rules.Evaluate(9999, nil))
}

func TestEvaluateBetweenAlwaysGood(t *testing.T) {
	rule := &models.Rule{
		ComponentID:    "coolant",
		Parameter:      models.Temperature,
		Logic:          models.Between,
		GoodValue:      f64(60),
		AttentionValue: f64(100),
		CriticalValue:  f64(120),
	}

	for _, v := range []float64{-50, 0, 80, 150, 1e9} {
		assert.Equal(t, models.TierGood, rules.Evaluate(v, rule))
	}
}
