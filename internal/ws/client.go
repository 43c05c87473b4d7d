// FilePath: internal/ws/client.go
package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/fleetpulse/hub/internal/config"
	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

var (
	// ErrSendBufferFull is returned when a client cannot keep up with its
	// outbound queue. The caller is expected to evict the connection.
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrClientClosed is returned when enqueueing to a closed client.
	ErrClientClosed = errors.New("client closed")
)

// Conn is the write side of a websocket connection. *websocket.Conn
// satisfies it; tests substitute a fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one live connection: an authenticated user bound to a vehicle
// room with a bounded outbound queue. The queue bound is the backpressure
// policy: a slow consumer overflows it and is disconnected rather than
// growing memory without limit.
type Client struct {
	ID        string
	UserID    string
	VehicleID string

	conn      Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}

	pingInterval time.Duration
	writeTimeout time.Duration
}

func NewClient(id, userID, vehicleID string, conn Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:           id,
		UserID:       userID,
		VehicleID:    vehicleID,
		conn:         conn,
		send:         make(chan []byte, cfg.SendBufferSize),
		done:         make(chan struct{}),
		pingInterval: cfg.PingInterval,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Enqueue hands a payload to the write pump without blocking. It fails when
// the client is closed or its outbound queue is full.
func (c *Client) Enqueue(payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSendBufferFull
	}
}

// WritePump drains the outbound queue onto the socket and keeps the
// connection alive with periodic pings. It exits on the first write error
// or when the client is closed; either way the socket ends up closed, which
// unblocks the read loop.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				nuts.L.Debugf("[Client] Write failed for connection %s: %v", c.ID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close is idempotent; it wakes the write pump and closes the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
