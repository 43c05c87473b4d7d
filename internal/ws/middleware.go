// FilePath: internal/ws/middleware.go
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/fleetpulse/hub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// MessageContext carries one inbound frame through the handler chain.
type MessageContext struct {
	Client   *Client
	Envelope Inbound
}

// MessageHandler processes one frame and returns the reply payload. Errors
// are converted to non-fatal `error` replies by the gateway; they never
// close the connection.
type MessageHandler func(ctx context.Context, mc *MessageContext) (interface{}, error)

// Middleware wraps a MessageHandler with a cross-cutting concern.
type Middleware func(next MessageHandler) MessageHandler

// Chain composes middlewares around a handler, first in the slice being the
// outermost stage.
func Chain(handler MessageHandler, middlewares ...Middleware) MessageHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// Recover converts a handler panic into an internal error reply so a single
// bad frame cannot crash the connection task.
func Recover() Middleware {
	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, mc *MessageContext) (result interface{}, err error) {
			defer func() {
				if r := recover(); r != nil {
					nuts.L.Errorf("[Gateway] Handler panic on %s frame from connection %s: %v",
						mc.Envelope.Type, mc.Client.ID, r)
					result = nil
					err = errors.NewInternalError("message handling failed", nil)
				}
			}()
			return next(ctx, mc)
		}
	}
}

// ValidateReading rejects publish_reading frames with missing required
// fields before they reach the service layer.
func ValidateReading() Middleware {
	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, mc *MessageContext) (interface{}, error) {
			if mc.Envelope.SensorID == "" {
				return nil, errors.NewValidationError("sensor_id is required", nil)
			}
			if mc.Envelope.Value == nil {
				return nil, errors.NewValidationError("value is required", nil)
			}
			if mc.Envelope.Timestamp != "" {
				if _, err := time.Parse(time.RFC3339, mc.Envelope.Timestamp); err != nil {
					return nil, errors.NewValidationError("ts must be ISO8601", err)
				}
			}
			return next(ctx, mc)
		}
	}
}

// RateLimit applies a fixed-window per-connection message cap. State for a
// connection is dropped lazily once its window has expired.
func RateLimit(max int, window time.Duration) Middleware {
	type bucket struct {
		windowStart time.Time
		count       int
	}
	var mu sync.Mutex
	buckets := make(map[string]*bucket)

	return func(next MessageHandler) MessageHandler {
		return func(ctx context.Context, mc *MessageContext) (interface{}, error) {
			now := time.Now()

			mu.Lock()
			b, ok := buckets[mc.Client.ID]
			if !ok || now.Sub(b.windowStart) >= window {
				b = &bucket{windowStart: now}
				buckets[mc.Client.ID] = b
			}
			b.count++
			over := b.count > max
			if len(buckets) > 1024 {
				for id, old := range buckets {
					if now.Sub(old.windowStart) >= window {
						delete(buckets, id)
					}
				}
			}
			mu.Unlock()

			if over {
				return nil, errors.NewRateLimitError("too many messages", nil)
			}
			return next(ctx, mc)
		}
	}
}
