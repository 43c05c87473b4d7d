// FilePath: api/resources/resources.go
package resources

import (
	"net/http"

	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/hubservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Vehicles    *VehicleHandlers
	Sensors     *SensorHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService, simCfg config.SimulatorConfig) *Resources {
	return &Resources{
		Vehicles: &VehicleHandlers{hubservice: svc},
		Sensors:  &SensorHandlers{hubservice: svc, sim: simCfg},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}
