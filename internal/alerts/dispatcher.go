// FilePath: internal/alerts/dispatcher.go
package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fleetpulse/hub/internal/events"
	"github.com/fleetpulse/hub/internal/monitoring"
	"github.com/fleetpulse/hub/internal/notify"
	"github.com/fleetpulse/hub/internal/ws"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const dispatchTimeout = 5 * time.Second

// Broadcaster is the room fan-out the dispatcher writes to.
type Broadcaster interface {
	Broadcast(roomID string, payload []byte)
}

// OwnerResolver maps a vehicle to the user who should be notified.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, vehicleID string) (string, error)
}

// Deduper suppresses repeated alerts for the same (vehicle, component)
// pair within a cooldown window.
type Deduper interface {
	Seen(ctx context.Context, key string) bool
}

// Dispatcher is a pure event-bus subscriber. It turns health transitions
// into room broadcasts and critical conditions into alert broadcasts plus
// fire-and-forget notification requests. All handlers are registered async
// so a slow notification path never blocks the publisher.
type Dispatcher struct {
	rooms  Broadcaster
	sender notify.Sender
	owners OwnerResolver
	dedup  Deduper
}

func NewDispatcher(rooms Broadcaster, sender notify.Sender, owners OwnerResolver, dedup Deduper) *Dispatcher {
	return &Dispatcher{rooms: rooms, sender: sender, owners: owners, dedup: dedup}
}

// Register subscribes the dispatcher on the bus.
func (d *Dispatcher) Register(bus *events.Bus) {
	bus.SubscribeAsync(events.TypeStateChanged, "alerts.state_broadcast", d.onStateChanged)
	bus.SubscribeAsync(events.TypeCriticalThresholdViolated, "alerts.critical", d.onCritical)
	bus.SubscribeAsync(events.TypeSensorOutOfRange, "alerts.out_of_range", d.onOutOfRange)
}

func (d *Dispatcher) onStateChanged(event events.Event) {
	e, ok := event.(events.StateChanged)
	if !ok {
		return
	}
	monitoring.StateTransitions.Add(1)

	d.broadcast(e.VehicleID, ws.NewStateUpdated(e.VehicleID, e.ComponentID, e.NewTier, e.At))
}

func (d *Dispatcher) onCritical(event events.Event) {
	e, ok := event.(events.CriticalThresholdViolated)
	if !ok {
		return
	}

	d.broadcast(e.VehicleID, ws.NewAlert(e.ComponentID, e.Value, "critical", e.At))
	monitoring.AlertsDispatched.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if d.dedup != nil && d.dedup.Seen(ctx, dedupKey(e.VehicleID, e.ComponentID)) {
		return
	}

	userID, err := d.owners.OwnerOf(ctx, e.VehicleID)
	if err != nil {
		nuts.L.Warnf("[AlertDispatcher] Cannot resolve owner of vehicle %s: %v", e.VehicleID, err)
		return
	}
	message := fmt.Sprintf("Component %s on vehicle %s is CRITICAL (value %.2f)", e.ComponentID, e.VehicleID, e.Value)
	d.sender.Send(ctx, userID, message)
}

func (d *Dispatcher) onOutOfRange(event events.Event) {
	e, ok := event.(events.SensorOutOfRange)
	if !ok {
		return
	}

	d.broadcast(e.VehicleID, ws.NewAlert(e.ComponentID, e.Value, "warning", e.At))
	monitoring.AlertsDispatched.Add(1)
}

func (d *Dispatcher) broadcast(roomID string, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		nuts.L.Errorf("[AlertDispatcher] Failed to marshal broadcast for room %s: %v", roomID, err)
		return
	}
	d.rooms.Broadcast(roomID, payload)
	monitoring.BroadcastsSent.Add(1)
}

func dedupKey(vehicleID, componentID string) string {
	return fmt.Sprintf("alert:%s:%s", vehicleID, componentID)
}

// RedisDeduper implements Deduper with a SET NX cooldown key.
type RedisDeduper struct {
	client   *redis.Client
	cooldown time.Duration
}

func NewRedisDeduper(client *redis.Client, cooldown time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, cooldown: cooldown}
}

// Seen reports whether the key fired within the cooldown window, arming the
// window as a side effect when it had not.
func (r *RedisDeduper) Seen(ctx context.Context, key string) bool {
	set, err := r.client.SetNX(ctx, key, 1, r.cooldown).Result()
	if err != nil {
		nuts.L.Warnf("[AlertDispatcher] Dedup check failed for %s: %v", key, err)
		return false
	}
	return !set
}

// MemoryDeduper is the process-local Deduper used when no Redis endpoint is
// configured. Cooldown windows are not shared across instances.
type MemoryDeduper struct {
	mu       sync.Mutex
	cooldown time.Duration
	armed    map[string]time.Time
}

func NewMemoryDeduper(cooldown time.Duration) *MemoryDeduper {
	return &MemoryDeduper{cooldown: cooldown, armed: make(map[string]time.Time)}
}

func (m *MemoryDeduper) Seen(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if expiry, ok := m.armed[key]; ok && now.Before(expiry) {
		return true
	}
	for k, expiry := range m.armed {
		if now.After(expiry) {
			delete(m.armed, k)
		}
	}
	m.armed[key] = now.Add(m.cooldown)
	return false
}
