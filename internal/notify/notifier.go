package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/internal/domain/entity"
)

// Notifier is the live push channel. Push is best effort: an offline user or
// a broken channel is not an error the caller sees.
type Notifier interface {
	Push(ctx context.Context, userID string, n *entity.Notification) error
}

// NoopNotifier drops every push.
type NoopNotifier struct{}

func (NoopNotifier) Push(context.Context, string, *entity.Notification) error { return nil }

// RedisNotifier publishes notification events on a per-user pub/sub channel.
// A websocket front (or any other consumer) subscribes to notify:user:<id>.
type RedisNotifier struct {
	RDB    *redis.Client
	Logger *logrus.Logger
}

func NewRedisNotifier(rdb *redis.Client, logger *logrus.Logger) *RedisNotifier {
	return &RedisNotifier{RDB: rdb, Logger: logger}
}

func channelFor(userID string) string { return "notify:user:" + userID }

func (n *RedisNotifier) Push(ctx context.Context, userID string, notice *entity.Notification) error {
	if n.RDB == nil {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"id":         notice.ID,
		"type":       notice.Type,
		"title":      notice.Title,
		"message":    notice.Message,
		"reference":  notice.Reference,
		"created_at": notice.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := n.RDB.Publish(ctx, channelFor(userID), payload).Err(); err != nil {
		if n.Logger != nil {
			n.Logger.WithError(err).WithField("user_id", userID).Warn("notification push failed")
		}
		return err
	}
	return nil
}

var (
	_ Notifier = (*RedisNotifier)(nil)
	_ Notifier = NoopNotifier{}
)
