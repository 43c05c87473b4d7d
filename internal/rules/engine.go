// FilePath: internal/rules/engine.go
package rules

import "github.com/fleetpulse/hub/internal/models"

// Evaluate classifies a raw numeric value against a threshold rule. It is
// pure: no I/O, fully deterministic.
//
// GREATER_THAN escalates EXCELLENT -> GOOD -> ATTENTION -> CRITICAL as the
// value crosses the good, attention and critical thresholds in ascending
// order. LESS_THAN is the same with the inequality reversed (lower = worse).
// An unset threshold skips its tier entirely.
//
// BETWEEN returns GOOD unconditionally: the interval bands are accepted but
// never compared. Dashboards depend on this leniency for interval rules, so
// changing it needs a data migration first.
//
// A nil rule means no rule is configured for the (component, parameter)
// pair; unknown sensors do not block diagnostics, so the default is GOOD.
func Evaluate(value float64, rule *models.Rule) models.HealthTier {
	if rule == nil {
		return models.TierGood
	}

	switch rule.Logic {
	case models.GreaterThan:
		return escalate(value, rule, func(v, threshold float64) bool {
			return v >= threshold
		})
	case models.LessThan:
		return escalate(value, rule, func(v, threshold float64) bool {
			return v <= threshold
		})
	case models.Between:
		return models.TierGood
	default:
		return models.TierGood
	}
}

func escalate(value float64, rule *models.Rule, crossed func(v, threshold float64) bool) models.HealthTier {
	tier := models.TierExcellent
	if rule.GoodValue != nil && crossed(value, *rule.GoodValue) {
		tier = models.TierGood
	}
	if rule.AttentionValue != nil && crossed(value, *rule.AttentionValue) {
		tier = models.TierAttention
	}
	if rule.CriticalValue != nil && crossed(value, *rule.CriticalValue) {
		tier = models.TierCritical
	}
	return tier
}
