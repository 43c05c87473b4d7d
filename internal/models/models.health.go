// FilePath: internal/models/models.health.go
package models

import "time"

// CurrentHealthState is the single current verdict for a (vehicle, component)
// pair. Exactly one row exists per pair; it is continuously overwritten by
// upserts and created lazily on the first reading for that component.
type CurrentHealthState struct {
	VehicleID   string     `json:"vehicle_id" db:"vehicle_id"`
	ComponentID string     `json:"component_id" db:"component_id"`
	LastValue   float64    `json:"last_value" db:"last_value"`
	Tier        HealthTier `json:"tier" db:"tier"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// VehicleHealth is the aggregated view served to dashboards: the worst tier
// across all of a vehicle's components plus the per-component breakdown.
type VehicleHealth struct {
	VehicleID  string               `json:"vehicle_id"`
	Overall    HealthTier           `json:"overall"`
	Components []CurrentHealthState `json:"components"`
}
