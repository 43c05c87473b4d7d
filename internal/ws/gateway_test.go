// FilePath: internal/ws/gateway_test.go
package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/ws"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelemetry struct {
	mu       sync.Mutex
	readings int
	fail     error
}

func (f *fakeTelemetry) RecordReading(ctx context.Context, vehicleID, sensorID string, value float64, timestamp time.Time, metadata models.JSON) (*models.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	f.readings++
	return &models.Reading{
		ID:        "rd-test",
		SensorID:  sensorID,
		VehicleID: vehicleID,
		Value:     value,
		Timestamp: timestamp,
	}, nil
}

func (f *fakeTelemetry) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readings
}

type fakeAccess struct {
	userID       string
	authErr      error
	authorizeErr error
}

func (f *fakeAccess) Authenticate(ctx context.Context, token string) (string, error) {
	if f.authErr != nil {
		return "", f.authErr
	}
	return f.userID, nil
}

func (f *fakeAccess) Authorize(ctx context.Context, userID, vehicleID string) error {
	return f.authorizeErr
}

func gatewayTestConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		SendBufferSize:  16,
		MaxMessageSize:  4096,
		IdleTimeout:     5 * time.Second,
		PingInterval:    time.Minute,
		WriteTimeout:    time.Second,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

func startGateway(t *testing.T, svc ws.TelemetryService, access ws.AccessController) (*httptest.Server, *ws.Hub) {
	t.Helper()
	hub := ws.NewHub()
	gateway := ws.NewGateway(hub, svc, access, gatewayTestConfig())

	router := mux.NewRouter()
	router.HandleFunc("/ws/telemetry/{vehicle_id}", gateway.HandleTelemetry)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, hub
}

func dialTelemetry(t *testing.T, server *httptest.Server, vehicleID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/telemetry/" + vehicleID + "?token=test-token"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var reply map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &reply))
	return reply
}

func TestHandshakeSendsConnectionAck(t *testing.T) {
	server, hub := startGateway(t, &fakeTelemetry{}, &fakeAccess{userID: "user-1"})
	conn := dialTelemetry(t, server, "veh-1")

	ack := readReply(t, conn)
	assert.Equal(t, "connection_ack", ack["type"])
	assert.Equal(t, "veh-1", ack["vehicle_id"])

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.RoomSize("veh-1"))
}

func TestPingYieldsPongPerMessage(t *testing.T) {
	server, _ := startGateway(t, &fakeTelemetry{}, &fakeAccess{userID: "user-1"})
	conn := dialTelemetry(t, server, "veh-1")
	readReply(t, conn) // connection_ack

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	}
	for i := 0; i < n; i++ {
		reply := readReply(t, conn)
		assert.Equal(t, "pong", reply["type"])
	}
}

func TestPublishReadingYieldsAck(t *testing.T) {
	svc := &fakeTelemetry{}
	server, _ := startGateway(t, svc, &fakeAccess{userID: "user-1"})
	conn := dialTelemetry(t, server, "veh-1")
	readReply(t, conn)

	frame := `{"type":"publish_reading","sensor_id":"sen-1","value":130,"metadata":{"battery":0.92}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	ack := readReply(t, conn)
	assert.Equal(t, "reading_ack", ack["type"])
	assert.Equal(t, "rd-test", ack["reading_id"])
	assert.Equal(t, "sen-1", ack["sensor_id"])
}

func TestMalformedJSONIsNonFatal(t *testing.T) {
	server, _ := startGateway(t, &fakeTelemetry{}, &fakeAccess{userID: "user-1"})
	conn := dialTelemetry(t, server, "veh-1")
	readReply(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	reply := readReply(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, "validation_error", reply["error_type"])

	// connection survives and keeps processing valid messages
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", readReply(t, conn)["type"])
}

func TestUnknownMessageTypeIsNonFatal(t *testing.T) {
	server, _ := startGateway(t, &fakeTelemetry{}, &fakeAccess{userID: "user-1"})
	conn := dialTelemetry(t, server, "veh-1")
	readReply(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)))
	reply := readReply(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, "validation_error", reply["error_type"])
}

func TestPublishReadingMissingFields(t *testing.T) {
	svc := &fakeTelemetry{}
	server, _ := startGateway(t, svc, &fakeAccess{userID: "user-1"})
	conn := dialTelemetry(t, server, "veh-1")
	readReply(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"publish_reading","value":42}`)))
	reply := readReply(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, "validation_error", reply["error_type"])
	assert.Equal(t, 0, svc.count())
}

func TestUnknownSensorYieldsNotFound(t *testing.T) {
	svc := &fakeTelemetry{fail: errors.NewNotFoundError("sensor not found", nil)}
	server, _ := startGateway(t, svc, &fakeAccess{userID: "user-1"})
	conn := dialTelemetry(t, server, "veh-1")
	readReply(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"publish_reading","sensor_id":"ghost","value":42}`)))
	reply := readReply(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, "not_found", reply["error_type"])
}

func TestInvalidTokenClosesWithPolicyViolation(t *testing.T) {
	access := &fakeAccess{authErr: errors.NewAuthError("bad token", nil)}
	server, hub := startGateway(t, &fakeTelemetry{}, access)
	conn := dialTelemetry(t, server, "veh-1")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
		"expected policy violation close, got %v", err)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestForeignVehicleClosesWithPolicyViolation(t *testing.T) {
	access := &fakeAccess{userID: "user-1", authorizeErr: errors.NewAuthorizationError("not your vehicle", nil)}
	server, _ := startGateway(t, &fakeTelemetry{}, access)
	conn := dialTelemetry(t, server, "veh-1")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

func TestMissingVehicleClosesWithUnsupportedData(t *testing.T) {
	access := &fakeAccess{userID: "user-1", authorizeErr: errors.NewNotFoundError("vehicle not found", nil)}
	server, _ := startGateway(t, &fakeTelemetry{}, access)
	conn := dialTelemetry(t, server, "ghost")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseUnsupportedData))
}
