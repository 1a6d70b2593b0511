package usecase

import (
	"context"
	"fmt"
	"time"

	"notihub/internal/realtime"
	"notihub/internal/repo/persistent"
	"notihub/pkg/events"
	"notihub/pkg/logger"
	"notihub/pkg/models"
	"notihub/pkg/queue"
)

type NotificationUseCase interface {
	Create(userID, tenantID, title, message string, tipo models.NotificationTipo, dados map[string]string, actionURL string) (*models.Notification, error)
	CreateFromTask(task *queue.NotificationTask) error
	Broadcast(userIDs []string, title, message string, tipo models.NotificationTipo, dados map[string]string, actionURL string) (int, error)
	List(userID string, filter persistent.ListFilter) ([]models.Notification, int64, error)
	UnreadCount(userID string) (int64, error)
	MarkAsRead(userID string, ids []string) (int64, error)
	MarkAllAsRead(userID string) (int64, error)
	Delete(userID, id string) error
	Archive(userID, id string) error
	Stats(userID string) (*models.NotificationStats, error)
	PurgeExpired(ttl time.Duration) (int64, error)
}

type notificationUseCase struct {
	repo      persistent.NotificationRepository
	publisher realtime.EventPublisher
	logger    *logger.Logger
}

func NewNotificationUseCase(repo persistent.NotificationRepository, publisher realtime.EventPublisher, log *logger.Logger) NotificationUseCase {
	return &notificationUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

func (uc *notificationUseCase) Create(userID, tenantID, title, message string, tipo models.NotificationTipo, dados map[string]string, actionURL string) (*models.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if tipo != "" && !models.ValidTipo(tipo) {
		return nil, fmt.Errorf("invalid tipo: %s", tipo)
	}

	n := &models.Notification{
		UserID:    userID,
		TenantID:  tenantID,
		Title:     title,
		Message:   message,
		Tipo:      tipo,
		Dados:     dados,
		ActionURL: actionURL,
	}

	if err := uc.repo.Create(n); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := uc.publisher.PublishNewNotification(ctx, n); err != nil {
		uc.logger.Warn("Failed to push new notification %s: %v", n.ID, err)
	}
	uc.pushUnreadCount(ctx, userID)

	uc.logger.Info("Notification %s created for user %s: %s", n.ID, userID, title)
	return n, nil
}

func (uc *notificationUseCase) CreateFromTask(task *queue.NotificationTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	_, err := uc.Create(task.UserID, task.TenantID, task.Title, task.Message,
		models.NotificationTipo(task.Tipo), task.Dados, task.ActionURL)
	return err
}

func (uc *notificationUseCase) Broadcast(userIDs []string, title, message string, tipo models.NotificationTipo, dados map[string]string, actionURL string) (int, error) {
	sentCount := 0
	for _, userID := range userIDs {
		if _, err := uc.Create(userID, "", title, message, tipo, dados, actionURL); err != nil {
			uc.logger.Error("Failed to send notification to user %s: %v", userID, err)
			continue
		}
		sentCount++
	}

	uc.logger.Info("Broadcast notification sent to %d users: %s", sentCount, title)
	return sentCount, nil
}

func (uc *notificationUseCase) List(userID string, filter persistent.ListFilter) ([]models.Notification, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	return uc.repo.List(userID, filter)
}

func (uc *notificationUseCase) UnreadCount(userID string) (int64, error) {
	return uc.repo.UnreadCount(userID)
}

func (uc *notificationUseCase) MarkAsRead(userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("notification IDs are required")
	}

	updated, err := uc.repo.MarkAsRead(userID, ids, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	ctx := context.Background()
	for _, id := range ids {
		if err := uc.publisher.PublishStatusUpdate(ctx, userID, events.KindNotificationUpdated, id, models.StatusRead); err != nil {
			uc.logger.Warn("Failed to push status update for %s: %v", id, err)
		}
	}
	uc.pushUnreadCount(ctx, userID)

	return updated, nil
}

func (uc *notificationUseCase) MarkAllAsRead(userID string) (int64, error) {
	updated, err := uc.repo.MarkAllAsRead(userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	// Other sessions only need the fresh counter; their lists converge on
	// the next fetch.
	uc.pushUnreadCount(context.Background(), userID)

	uc.logger.Info("Marked %d notifications as read for user %s", updated, userID)
	return updated, nil
}

// Delete removes a notification. Deleting an id that does not exist is a
// no-op success, so concurrent deletes from multiple sessions cannot fail.
func (uc *notificationUseCase) Delete(userID, id string) error {
	deleted, err := uc.repo.Delete(userID, id)
	if err != nil {
		return err
	}

	if deleted > 0 {
		ctx := context.Background()
		if err := uc.publisher.PublishStatusUpdate(ctx, userID, events.KindNotificationDeleted, id, ""); err != nil {
			uc.logger.Warn("Failed to push delete for %s: %v", id, err)
		}
		uc.pushUnreadCount(ctx, userID)
	}

	return nil
}

func (uc *notificationUseCase) Archive(userID, id string) error {
	if err := uc.repo.Archive(userID, id); err != nil {
		return err
	}

	ctx := context.Background()
	if err := uc.publisher.PublishStatusUpdate(ctx, userID, events.KindNotificationUpdated, id, models.StatusArchived); err != nil {
		uc.logger.Warn("Failed to push archive for %s: %v", id, err)
	}
	uc.pushUnreadCount(ctx, userID)

	return nil
}

func (uc *notificationUseCase) Stats(userID string) (*models.NotificationStats, error) {
	return uc.repo.Stats(userID)
}

func (uc *notificationUseCase) PurgeExpired(ttl time.Duration) (int64, error) {
	purged, err := uc.repo.DeleteOlderThan(time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		uc.logger.Info("Purged %d expired notifications", purged)
	}
	return purged, nil
}

func (uc *notificationUseCase) pushUnreadCount(ctx context.Context, userID string) {
	count, err := uc.repo.UnreadCount(userID)
	if err != nil {
		uc.logger.Warn("Failed to recount unread for user %s: %v", userID, err)
		return
	}
	if err := uc.publisher.PublishUnreadCount(ctx, userID, int(count)); err != nil {
		uc.logger.Warn("Failed to push unread count for user %s: %v", userID, err)
	}
}
