// FilePath: internal/ws/hub.go
package ws

import (
	"sync"

	nuts "github.com/vaudience/go-nuts"
)

// Hub owns the connection registry and the room membership map, and nothing
// else: no business data ever lives here. All mutation happens under the
// lock; broadcasts iterate a snapshot so concurrent joins and leaves cannot
// invalidate the iteration.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Client
	rooms map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Client),
		rooms: make(map[string]map[string]*Client),
	}
}

// Connect registers a client. Registering the same connection ID twice is a
// no-op, which makes the call idempotent per physical socket.
func (h *Hub) Connect(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.conns[client.ID]; exists {
		return
	}
	h.conns[client.ID] = client
	nuts.L.Infof("[Hub] Connection %s registered for user %s (%d live)", client.ID, client.UserID, len(h.conns))
}

// Disconnect removes the connection from every room and the registry, then
// closes it. Calling it again for the same ID is a no-op.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	client, exists := h.conns[connID]
	if !exists {
		h.mu.Unlock()
		return
	}
	delete(h.conns, connID)
	for roomID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	remaining := len(h.conns)
	h.mu.Unlock()

	client.Close()
	nuts.L.Infof("[Hub] Connection %s removed (%d live)", connID, remaining)
}

// JoinRoom adds a connection to a room, creating the room lazily.
func (h *Hub) JoinRoom(connID, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, exists := h.conns[connID]
	if !exists {
		return false
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[connID] = client
	return true
}

// LeaveRoom removes a connection from a room; empty rooms are deleted.
func (h *Hub) LeaveRoom(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Broadcast delivers a payload to every connection currently in the room.
// A failed send never aborts delivery to the rest; the failing connection
// is evicted from the registry as part of handling the failure.
func (h *Hub) Broadcast(roomID string, payload []byte) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for _, client := range h.rooms[roomID] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	var failed []string
	for _, client := range members {
		if err := client.Enqueue(payload); err != nil {
			nuts.L.Warnf("[Hub] Broadcast to connection %s failed: %v", client.ID, err)
			failed = append(failed, client.ID)
		}
	}

	for _, connID := range failed {
		h.Disconnect(connID)
	}
}

// SendTo delivers a payload to a single connection with the same eviction
// policy as Broadcast.
func (h *Hub) SendTo(connID string, payload []byte) error {
	h.mu.RLock()
	client, exists := h.conns[connID]
	h.mu.RUnlock()
	if !exists {
		return ErrClientClosed
	}

	if err := client.Enqueue(payload); err != nil {
		h.Disconnect(connID)
		return err
	}
	return nil
}

// RoomSize reports the current number of members in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll disconnects every client; used on graceful shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.conns))
	for _, client := range h.conns {
		clients = append(clients, client)
	}
	h.conns = make(map[string]*Client)
	h.rooms = make(map[string]map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
