// FilePath: internal/ws/gateway.go
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetpulse/hub/internal/config"
	"github.com/fleetpulse/hub/internal/errors"
	"github.com/fleetpulse/hub/internal/models"
	"github.com/fleetpulse/hub/internal/monitoring"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

// TelemetryService is the ingestion flow behind publish_reading frames.
type TelemetryService interface {
	RecordReading(ctx context.Context, vehicleID, sensorID string, value float64, timestamp time.Time, metadata models.JSON) (*models.Reading, error)
}

// AccessController validates handshake tokens and vehicle access. Both are
// external collaborators as far as this gateway is concerned.
type AccessController interface {
	Authenticate(ctx context.Context, token string) (string, error)
	Authorize(ctx context.Context, userID, vehicleID string) error
}

const publishRateLimit = 200 // frames per second per connection

// Gateway upgrades telemetry connections and runs the per-connection
// message loop: CONNECTING -> AUTHENTICATING -> AUTHENTICATED -> message
// loop -> CLOSING -> CLOSED. Handshake failures are fatal and close the
// socket with a typed close code; message-level failures are non-fatal
// `error` replies.
type Gateway struct {
	hub      *Hub
	svc      TelemetryService
	access   AccessController
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	handlers map[string]MessageHandler
}

func NewGateway(hub *Hub, svc TelemetryService, access AccessController, cfg config.WebSocketConfig) *Gateway {
	g := &Gateway{
		hub:    hub,
		svc:    svc,
		access: access,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	g.handlers = map[string]MessageHandler{
		MessageTypePublishReading: Chain(g.handlePublishReading,
			Recover(), RateLimit(publishRateLimit, time.Second), ValidateReading()),
		MessageTypePing: Chain(g.handlePing, Recover()),
	}
	return g
}

// HandleTelemetry is the HTTP handler for GET /ws/telemetry/{vehicle_id}.
func (g *Gateway) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	vehicleID := mux.Vars(r)["vehicle_id"]
	token := extractToken(r)

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[Gateway] Upgrade failed: %v", err)
		return
	}

	// AUTHENTICATING: no frames are processed before the token and the
	// vehicle access check pass.
	userID, err := g.access.Authenticate(r.Context(), token)
	if err != nil {
		g.closeWith(conn, errors.AsAPIError(errors.NewAuthError("invalid or missing token", err)))
		return
	}
	if err := g.access.Authorize(r.Context(), userID, vehicleID); err != nil {
		g.closeWith(conn, errors.AsAPIError(err))
		return
	}

	client := NewClient(nuts.NID("conn", 12), userID, vehicleID, conn, g.cfg)
	g.hub.Connect(client)
	g.hub.JoinRoom(client.ID, vehicleID)
	go client.WritePump()

	defer func() {
		// Runs on every exit path; deregistration is idempotent.
		g.hub.Disconnect(client.ID)
		monitoring.ConnectionsClosed.Add(1)
	}()
	monitoring.ConnectionsOpened.Add(1)

	if payload, err := json.Marshal(NewConnectionAck(vehicleID)); err == nil {
		client.Enqueue(payload)
	}

	g.readLoop(r.Context(), conn, client)
}

// readLoop processes frames in arrival order until the socket errors, the
// peer closes, or the idle deadline passes without traffic.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	conn.SetReadLimit(g.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(g.cfg.IdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.cfg.IdleTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				nuts.L.Debugf("[Gateway] Connection %s read error: %v", client.ID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(g.cfg.IdleTimeout))
		monitoring.FramesReceived.Add(1)

		g.handleFrame(ctx, client, raw)
	}
}

// handleFrame parses and dispatches one frame. Every failure here is
// non-fatal: the client gets an `error` reply and the loop continues.
func (g *Gateway) handleFrame(ctx context.Context, client *Client, raw []byte) {
	var envelope Inbound
	if err := json.Unmarshal(raw, &envelope); err != nil {
		g.reply(client, NewErrorReply("validation_error", "malformed JSON"))
		return
	}

	handler, ok := g.handlers[envelope.Type]
	if !ok {
		g.reply(client, NewErrorReply("validation_error", "unknown message type: "+envelope.Type))
		return
	}

	result, err := handler(ctx, &MessageContext{Client: client, Envelope: envelope})
	if err != nil {
		apiErr := errors.AsAPIError(err)
		if apiErr.Type == errors.ErrorTypeInternal || apiErr.Type == errors.ErrorTypeDatabase {
			nuts.L.Errorf("[Gateway] %s frame from connection %s failed: %v", envelope.Type, client.ID, apiErr)
		}
		g.reply(client, NewErrorReply(apiErr.WireType(), apiErr.Message))
		return
	}
	if result != nil {
		g.reply(client, result)
	}
}

func (g *Gateway) handlePublishReading(ctx context.Context, mc *MessageContext) (interface{}, error) {
	timestamp := time.Now().UTC()
	if mc.Envelope.Timestamp != "" {
		// already validated by the middleware chain
		timestamp, _ = time.Parse(time.RFC3339, mc.Envelope.Timestamp)
	}

	reading, err := g.svc.RecordReading(ctx, mc.Client.VehicleID, mc.Envelope.SensorID,
		*mc.Envelope.Value, timestamp, mc.Envelope.Metadata)
	if err != nil {
		return nil, err
	}

	monitoring.ReadingsAccepted.Add(1)
	return NewReadingAck(reading.ID, reading.SensorID, reading.Timestamp), nil
}

func (g *Gateway) handlePing(ctx context.Context, mc *MessageContext) (interface{}, error) {
	return NewPong(), nil
}

func (g *Gateway) reply(client *Client, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		nuts.L.Errorf("[Gateway] Failed to marshal reply for connection %s: %v", client.ID, err)
		return
	}
	if err := client.Enqueue(payload); err != nil {
		nuts.L.Warnf("[Gateway] Reply to connection %s failed: %v", client.ID, err)
		g.hub.Disconnect(client.ID)
	}
}

// closeWith terminates a handshake with a close frame carrying the error's
// close code, then drops the socket. CLOSING -> CLOSED.
func (g *Gateway) closeWith(conn *websocket.Conn, apiErr *errors.APIError) {
	deadline := time.Now().Add(g.cfg.WriteTimeout)
	message := websocket.FormatCloseMessage(apiErr.CloseCode(), apiErr.Message)
	conn.WriteControl(websocket.CloseMessage, message, deadline)
	conn.Close()
	nuts.L.Infof("[Gateway] Handshake rejected: %s", apiErr.Message)
}

func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}
