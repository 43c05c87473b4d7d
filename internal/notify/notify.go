// FilePath: internal/notify/notify.go
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// Sender delivers a notification to a user. Delivery is fire-and-forget:
// implementations log failures and never propagate them.
type Sender interface {
	Send(ctx context.Context, userID, message string)
}

// RedisSender publishes notification requests onto a Redis channel where the
// external notification service picks them up.
type RedisSender struct {
	client  *redis.Client
	channel string
}

func NewRedisSender(client *redis.Client, channel string) *RedisSender {
	return &RedisSender{client: client, channel: channel}
}

func (s *RedisSender) Send(ctx context.Context, userID, message string) {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":  userID,
		"message":  message,
		"sent_at":  time.Now().Unix(),
		"channel":  "vehicle_alerts",
		"severity": "high",
	})
	if err != nil {
		nuts.L.Errorf("[NotifySender] Failed to marshal notification for user %s: %v", userID, err)
		return
	}

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		nuts.L.Warnf("[NotifySender] Failed to publish notification for user %s: %v", userID, err)
	}
}

// LogSender is used when no Redis endpoint is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, userID, message string) {
	nuts.L.Infof("[NotifySender] Notification for user %s: %s", userID, message)
}
