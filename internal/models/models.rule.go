// FilePath: internal/models/models.rule.go
package models

import "time"

// RuleLogic selects the comparison direction of a threshold rule.
type RuleLogic string

const (
	GreaterThan RuleLogic = "GREATER_THAN"
	LessThan    RuleLogic = "LESS_THAN"
	Between     RuleLogic = "BETWEEN"
)

// Rule maps a (component, parameter) pair to threshold bands. At most one
// rule exists per pair; rules are read-only at evaluation time.
type Rule struct {
	ID             string     `json:"id" db:"id"`
	ComponentID    string     `json:"component_id" db:"component_id"`
	Parameter      SensorKind `json:"parameter" db:"parameter"`
	Logic          RuleLogic  `json:"logic" db:"logic"`
	GoodValue      *float64   `json:"good_value,omitempty" db:"good_value"`
	AttentionValue *float64   `json:"attention_value,omitempty" db:"attention_value"`
	CriticalValue  *float64   `json:"critical_value,omitempty" db:"critical_value"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// HealthTier ranks the severity of a component's current condition.
type HealthTier string

const (
	TierUnknown   HealthTier = "UNKNOWN"
	TierExcellent HealthTier = "EXCELLENT"
	TierGood      HealthTier = "GOOD"
	TierAttention HealthTier = "ATTENTION"
	TierCritical  HealthTier = "CRITICAL"
)

// Severity orders tiers for worst-of aggregation.
// CRITICAL > ATTENTION > GOOD > EXCELLENT > UNKNOWN.
func (t HealthTier) Severity() int {
	switch t {
	case TierCritical:
		return 4
	case TierAttention:
		return 3
	case TierGood:
		return 2
	case TierExcellent:
		return 1
	default:
		return 0
	}
}

// WorseThan reports whether t ranks above other in severity.
func (t HealthTier) WorseThan(other HealthTier) bool {
	return t.Severity() > other.Severity()
}
