// FilePath: internal/events/bus.go
package events

import (
	"sync"

	nuts "github.com/vaudience/go-nuts"
)

// Handler consumes one event. Handlers must not retain the event past the
// call for async subscribers; events are delivered at most once.
type Handler func(event Event)

const asyncQueueSize = 256

type subscriber struct {
	id    string
	fn    Handler
	queue chan Event // nil for synchronous subscribers
}

// Bus is the in-process publish/subscribe hub. It is constructed once at
// process start, injected explicitly, and shut down with Close on exit.
//
// Synchronous subscribers run inline in publish order. Each asynchronous
// subscriber owns a worker goroutine fed by a bounded queue, so a publisher
// never waits on a slow handler while per-subscriber delivery order is
// still the publish order. A handler panic is logged and isolated; it never
// reaches the publisher or sibling handlers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]*subscriber
	wg     sync.WaitGroup
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]*subscriber)}
}

// Subscribe registers a synchronous handler for an event type.
func (b *Bus) Subscribe(t Type, id string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.subs[t] = append(b.subs[t], &subscriber{id: id, fn: fn})
}

// SubscribeAsync registers a handler that runs on its own goroutine. The
// publisher enqueues and moves on; if the subscriber's queue is full the
// event is dropped and logged (delivery is at-most-once, best-effort).
func (b *Bus) SubscribeAsync(t Type, id string, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	sub := &subscriber{id: id, fn: fn, queue: make(chan Event, asyncQueueSize)}
	b.subs[t] = append(b.subs[t], sub)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range sub.queue {
			b.invoke(sub, event)
		}
	}()
}

// Publish dispatches an event to every subscriber registered for its type.
// A subscriber registered after Publish returns never sees the event.
// The read lock is held across the enqueue: Close closes the queues under
// the write lock, so a publisher can never hit a closed channel. Queue
// sends are non-blocking (drop on overflow), so the lock is held briefly.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs[event.EventType()] {
		if sub.queue == nil {
			b.invoke(sub, event)
			continue
		}
		select {
		case sub.queue <- event:
		default:
			nuts.L.Warnf("[EventBus] Dropping %s for slow subscriber %s (queue full)", event.EventType(), sub.id)
		}
	}
}

func (b *Bus) invoke(sub *subscriber, event Event) {
	defer func() {
		if r := recover(); r != nil {
			nuts.L.Errorf("[EventBus] Handler %s panicked on %s: %v", sub.id, event.EventType(), r)
		}
	}()
	sub.fn(event)
}

// Close stops accepting events, drains async queues and waits for workers.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			if sub.queue != nil {
				close(sub.queue)
			}
		}
	}
	b.mu.Unlock()

	b.wg.Wait()
	nuts.L.Infof("[EventBus] Shut down")
}
