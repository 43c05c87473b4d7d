// FilePath: internal/models/api.models.filters.go
package models

// SensorFilters narrows sensor list queries. Decoded from query parameters.
type SensorFilters struct {
	VehicleID   string       `schema:"vehicle_id"`
	ComponentID string       `schema:"component_id"`
	Kind        SensorKind   `schema:"kind"`
	Status      SensorStatus `schema:"status"`
	Deleted     bool         `schema:"deleted"`
}

// ReadingFilters narrows reading history queries.
type ReadingFilters struct {
	SensorID string `schema:"sensor_id"`
	Start    string `schema:"start"`
	End      string `schema:"end"`
	Interval string `schema:"interval"`
}
