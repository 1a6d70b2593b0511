package realtime

import (
	"context"
	"fmt"

	"notihub/pkg/events"
	"notihub/pkg/logger"
	"notihub/pkg/models"

	"github.com/redis/go-redis/v9"
)

// ChannelFor returns the pub/sub channel carrying a user's push events.
func ChannelFor(userID string) string {
	return fmt.Sprintf("notifications:%s", userID)
}

// EventPublisher fans push envelopes out to every websocket a user has
// open, on any instance of the hub.
type EventPublisher interface {
	PublishNewNotification(ctx context.Context, n *models.Notification) error
	PublishUnreadCount(ctx context.Context, userID string, count int) error
	PublishStatusUpdate(ctx context.Context, userID, kind, notificationID string, status models.NotificationStatus) error
}

type redisPublisher struct {
	client *redis.Client
	logger *logger.Logger
}

func NewRedisPublisher(client *redis.Client, log *logger.Logger) EventPublisher {
	return &redisPublisher{client: client, logger: log}
}

func (p *redisPublisher) PublishNewNotification(ctx context.Context, n *models.Notification) error {
	payload, err := events.NewNotification(n)
	if err != nil {
		return err
	}
	return p.publish(ctx, n.UserID, payload)
}

func (p *redisPublisher) PublishUnreadCount(ctx context.Context, userID string, count int) error {
	payload, err := events.UnreadCount(count)
	if err != nil {
		return err
	}
	return p.publish(ctx, userID, payload)
}

func (p *redisPublisher) PublishStatusUpdate(ctx context.Context, userID, kind, notificationID string, status models.NotificationStatus) error {
	payload, err := events.StatusUpdate(kind, notificationID, status)
	if err != nil {
		return err
	}
	return p.publish(ctx, userID, payload)
}

func (p *redisPublisher) publish(ctx context.Context, userID string, payload []byte) error {
	subscribers, err := p.client.Publish(ctx, ChannelFor(userID), payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", ChannelFor(userID), err)
	}
	p.logger.Info("Published push event to %s, subscribers=%d", ChannelFor(userID), subscribers)
	return nil
}
