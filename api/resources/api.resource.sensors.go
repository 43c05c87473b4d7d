// FilePath: api/resources/api.resource.sensors.go
package resources

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/hubservice"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/simulator"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// SensorHandlers encapsulates the sensor-related HTTP handlers
type SensorHandlers struct {
	hubservice *hubservice.HubService
	sim        config.SimulatorConfig
}

// @Summary List sensors
// @Description Get a paginated list of sensors with optional filters
// @Tags sensors
// @Produce json
// @Param vehicle_id query string false "Filter by vehicle"
// @Param component_id query string false "Filter by component"
// @Param kind query string false "Filter by sensor kind"
// @Param status query string false "Filter by lifecycle status"
// @Success 200 {object} map[string]interface{}
// @Router /sensors [get]
// @Security BearerAuth
func (h *SensorHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var filters models.SensorFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid filter parameters", err).WithRequestID(requestID))
		return
	}
	offset, limit := getPaginationParams(r)

	total, sensors, err := h.hubservice.ListSensors(r.Context(), filters, offset, limit)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to list sensors", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"sensors": sensors,
	})
}

// @Summary Get a sensor by ID
// @Description Get detailed information about a specific sensor
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Success 200 {object} models.Sensor
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id} [get]
// @Security BearerAuth
func (h *SensorHandlers) GetSensor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	sensor, err := h.hubservice.GetSensor(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.NewNotFoundError("sensor not found", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, sensor)
}

// @Summary Get sensor readings
// @Description Get aggregated readings for a sensor with optional time range and interval
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Param start query string false "Start time (RFC3339)"
// @Param end query string false "End time (RFC3339)"
// @Param interval query string false "Aggregation interval (1min, 20min, 1hour, 6hour, 1day)"
// @Success 200 {array} models.ReadingAggregate
// @Router /sensors/{id}/readings [get]
// @Security BearerAuth
func (h *SensorHandlers) GetSensorReadings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	timeRange := parseTimeRange(r)
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = determineDefaultInterval(timeRange.start, timeRange.end)
	}

	readings, err := h.hubservice.GetSensorReadings(r.Context(), id, timeRange.start, timeRange.end, interval)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to get sensor readings", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Get raw sensor readings
// @Description Get unaggregated readings for a sensor within a time range
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Param start query string false "Start time (RFC3339)"
// @Param end query string false "End time (RFC3339)"
// @Success 200 {array} models.Reading
// @Router /sensors/{id}/readings/raw [get]
// @Security BearerAuth
func (h *SensorHandlers) GetRawReadings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	timeRange := parseTimeRange(r)
	readings, err := h.hubservice.GetRawReadings(r.Context(), id, timeRange.start, timeRange.end)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to get raw readings", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

type simulateRequest struct {
	Scenario   string `json:"scenario"`
	Count      int    `json:"count"`
	IntervalMS int    `json:"interval_ms"`
	Seed       int64  `json:"seed"`
}

// @Summary Simulate sensor readings
// @Description Generate a synthetic reading sequence and feed it through the regular ingestion pipeline
// @Tags sensors
// @Accept json
// @Produce json
// @Param id path string true "Sensor ID"
// @Param body body simulateRequest true "Simulation parameters"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.APIError
// @Router /sensors/{id}/simulate [post]
// @Security BearerAuth
func (h *SensorHandlers) SimulateReadings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if req.Scenario == "" {
		respondWithError(w, errors.NewValidationError("scenario is required", nil).WithRequestID(requestID))
		return
	}

	count := req.Count
	if count <= 0 {
		count = h.sim.DefaultCount
	}
	if count > h.sim.MaxCount {
		respondWithError(w, errors.NewValidationError("count exceeds simulator limit", nil).WithRequestID(requestID))
		return
	}
	interval := time.Duration(req.IntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = h.sim.DefaultInterval
	}

	readings, err := h.hubservice.SimulateReadings(r.Context(), id, hubservice.SimulationParams{
		Scenario: simulator.Scenario(req.Scenario),
		Count:    count,
		Interval: interval,
		Seed:     req.Seed,
	})
	if err != nil {
		respondWithError(w, errors.AsAPIError(err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"generated": len(readings),
		"readings":  readings,
	})
}

// Helper functions and types

type timeRange struct {
	start time.Time
	end   time.Time
}

func parseTimeRange(r *http.Request) timeRange {
	query := r.URL.Query()
	now := time.Now()

	// Default to last 24 hours
	start := now.Add(-24 * time.Hour)
	if startStr := query.Get("start"); startStr != "" {
		if parsed, err := time.Parse(time.RFC3339, startStr); err == nil {
			start = parsed
		}
	}

	end := now
	if endStr := query.Get("end"); endStr != "" {
		if parsed, err := time.Parse(time.RFC3339, endStr); err == nil {
			end = parsed
		}
	}

	return timeRange{start: start, end: end}
}

func determineDefaultInterval(start, end time.Time) string {
	duration := end.Sub(start)
	switch {
	case duration <= 30*time.Hour:
		return "1min"
	case duration <= 70*24*time.Hour:
		return "20min"
	case duration <= 13*30*24*time.Hour:
		return "6hour"
	default:
		return "1day"
	}
}
