// FilePath: api/resources/api.resource.vehicles.go
package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/hubservice"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// VehicleHandlers encapsulates the vehicle-related HTTP handlers
type VehicleHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List vehicles
// @Description Get a paginated list of vehicles
// @Tags vehicles
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.Vehicle
// @Router /vehicles [get]
// @Security BearerAuth
func (h *VehicleHandlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	offset, limit := getPaginationParams(r)

	vehicles, err := h.hubservice.ListVehicles(r.Context(), offset, limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list vehicles", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, vehicles)
}

// @Summary Get a vehicle by ID
// @Description Get detailed information about a specific vehicle
// @Tags vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} models.Vehicle
// @Failure 404 {object} errors.APIError
// @Router /vehicles/{id} [get]
// @Security BearerAuth
func (h *VehicleHandlers) GetVehicle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	vehicle, err := h.hubservice.GetVehicle(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.NewNotFoundError("vehicle not found", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, vehicle)
}

// @Summary Get vehicle health
// @Description Get the aggregated health verdict and per-component breakdown
// @Tags vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} models.VehicleHealth
// @Failure 404 {object} errors.APIError
// @Router /vehicles/{id}/health [get]
// @Security BearerAuth
func (h *VehicleHandlers) GetVehicleHealth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	health, err := h.hubservice.VehicleHealth(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.NewNotFoundError("vehicle not found", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, health)
}

// @Summary Provision sensors for a vehicle
// @Description Instantiate all sensor templates registered for the vehicle's model
// @Tags vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 201 {array} models.Sensor
// @Failure 404 {object} errors.APIError
// @Router /vehicles/{id}/sensors/provision [post]
// @Security BearerAuth
func (h *VehicleHandlers) ProvisionSensors(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	sensors, err := h.hubservice.ProvisionSensors(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, sensors)
}

// Helper functions

func getPaginationParams(r *http.Request) (offset, limit int) {
	query := r.URL.Query()
	offset, _ = strconv.Atoi(query.Get("offset"))
	limit, _ = strconv.Atoi(query.Get("limit"))

	if limit <= 0 || limit > 100 {
		limit = 50 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	return offset, limit
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
