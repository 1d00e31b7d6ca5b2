package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Notification statuses.
const (
	NotifyCompleted = "completed"
	NotifyError     = "error"
)

// ExportNotifyMessage is published on Redis and forwarded as-is to the
// user's WebSocket.
type ExportNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	ExportID      string `json:"export_id"`
	CVID          string `json:"cv_id"`
	Format        string `json:"format,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// NotifyChannel is the per-user Redis channel the API subscribes to.
func NotifyChannel(userID string) string {
	return "user_notify:" + userID
}

// Notifier delivers export notifications to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, msg ExportNotifyMessage) error
}

// RedisNotifier publishes notifications on NotifyChannel.
type RedisNotifier struct {
	client redis.UniversalClient
}

func NewRedisNotifier(client redis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID string, msg ExportNotifyMessage) error {
	if msg.Type == "" {
		msg.Type = "export"
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(userID)
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
