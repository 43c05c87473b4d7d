// FilePath: internal/models/models.vehicle.go
package models

import "time"

// Vehicle is an IoT-connected vehicle that owns sensors and components.
type Vehicle struct {
	ID              string     `json:"id" db:"id"`
	OwnerID         string     `json:"owner_id" db:"owner_id" readxs:"owner,admin,system" writexs:"owner,admin,system"`
	Name            string     `json:"name" db:"name"`
	Model           string     `json:"model" db:"model"`
	Vin             string     `json:"vin" db:"vin" readxs:"owner,admin,system" writexs:"owner,admin,system"`
	Year            int        `json:"year" db:"year"`
	LastSeen        time.Time  `json:"last_seen" db:"last_seen"`
	LastTelemetryAt time.Time  `json:"last_telemetry_at" db:"last_telemetry_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Component is a physical assembly on a vehicle (e.g. "front brake").
// Components are static reference data; threshold rules hang off them.
type Component struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
