package api

import (
	"net/http"

	"github.com/fleetpulse/hub/api/middleware"
	"github.com/fleetpulse/hub/api/resources"
	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/hubservice"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.JWTMiddleware
	resources *resources.Resources
}

func NewRouter(svc *hubservice.HubService, validator middleware.TokenValidator, simCfg config.SimulatorConfig, health, metrics http.HandlerFunc) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      middleware.NewJWTMiddleware(validator),
		resources: resources.NewResources(svc, simCfg),
	}
	r.resources.SetHealthCheck(health)
	r.resources.SetMetrics(metrics)

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Vehicles
	vehicles := protected.PathPrefix("/vehicles").Subrouter()
	vehicles.HandleFunc("", r.resources.Vehicles.ListVehicles).Methods(http.MethodGet)
	vehicles.HandleFunc("/{id}", r.resources.Vehicles.GetVehicle).Methods(http.MethodGet)
	vehicles.HandleFunc("/{id}/health", r.resources.Vehicles.GetVehicleHealth).Methods(http.MethodGet)
	vehicles.HandleFunc("/{id}/sensors/provision", r.resources.Vehicles.ProvisionSensors).Methods(http.MethodPost)

	// Sensors
	sensors := protected.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("", r.resources.Sensors.ListSensors).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}", r.resources.Sensors.GetSensor).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}/readings", r.resources.Sensors.GetSensorReadings).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}/readings/raw", r.resources.Sensors.GetRawReadings).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}/simulate", r.resources.Sensors.SimulateReadings).Methods(http.MethodPost)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
