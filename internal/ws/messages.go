// FilePath: internal/ws/messages.go
package ws

import (
	"time"

	"github.com/fleetpulse/hub/internal/models"
)

// Inbound message types accepted on the telemetry socket.
const (
	MessageTypePublishReading = "publish_reading"
	MessageTypePing           = "ping"
)

// Outbound message types.
const (
	MessageTypeConnectionAck  = "connection_ack"
	MessageTypeReadingAck     = "reading_ack"
	MessageTypeStateUpdated   = "component_state_updated"
	MessageTypeAlert          = "alert"
	MessageTypePong           = "pong"
	MessageTypeError          = "error"
)

// Inbound is the envelope every client frame is parsed into. Fields beyond
// Type are populated per message type.
type Inbound struct {
	Type      string      `json:"type"`
	SensorID  string      `json:"sensor_id,omitempty"`
	Timestamp string      `json:"ts,omitempty"`
	Value     *float64    `json:"value,omitempty"`
	Metadata  models.JSON `json:"metadata,omitempty"`
}

// ConnectionAck confirms a successful handshake and room join.
type ConnectionAck struct {
	Type      string    `json:"type"`
	VehicleID string    `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadingAck confirms one accepted reading.
type ReadingAck struct {
	Type      string    `json:"type"`
	ReadingID string    `json:"reading_id"`
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// StateUpdated notifies a room about a component health transition.
type StateUpdated struct {
	Type        string            `json:"type"`
	ComponentID string            `json:"component_id"`
	VehicleID   string            `json:"vehicle_id"`
	Tier        models.HealthTier `json:"tier"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Alert notifies a room about a critical or out-of-range condition.
type Alert struct {
	Type        string    `json:"type"`
	ComponentID string    `json:"component_id"`
	Value       float64   `json:"value"`
	Severity    string    `json:"severity"` // "critical" or "warning"
	Timestamp   time.Time `json:"timestamp"`
}

// Pong answers a ping heartbeat.
type Pong struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorReply is a non-fatal, per-message error. The connection stays open.
type ErrorReply struct {
	Type      string `json:"type"`
	ErrorType string `json:"error_type"` // validation_error | not_found | internal_error
	Message   string `json:"message"`
}

func NewConnectionAck(vehicleID string) ConnectionAck {
	return ConnectionAck{Type: MessageTypeConnectionAck, VehicleID: vehicleID, Timestamp: time.Now().UTC()}
}

func NewReadingAck(readingID, sensorID string, ts time.Time) ReadingAck {
	return ReadingAck{Type: MessageTypeReadingAck, ReadingID: readingID, SensorID: sensorID, Timestamp: ts}
}

func NewStateUpdated(vehicleID, componentID string, tier models.HealthTier, ts time.Time) StateUpdated {
	return StateUpdated{Type: MessageTypeStateUpdated, ComponentID: componentID, VehicleID: vehicleID, Tier: tier, Timestamp: ts}
}

func NewAlert(componentID string, value float64, severity string, ts time.Time) Alert {
	return Alert{Type: MessageTypeAlert, ComponentID: componentID, Value: value, Severity: severity, Timestamp: ts}
}

func NewPong() Pong {
	return Pong{Type: MessageTypePong, Timestamp: time.Now().UTC()}
}

func NewErrorReply(errorType, message string) ErrorReply {
	return ErrorReply{Type: MessageTypeError, ErrorType: errorType, Message: message}
}
