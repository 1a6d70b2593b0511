package persistent

import (
	"errors"
	"fmt"
	"time"

	"notihub/pkg/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("notification not found")

type ListFilter struct {
	Status models.NotificationStatus
	Tipo   models.NotificationTipo
	Page   int
	Limit  int
}

type NotificationRepository interface {
	Create(n *models.Notification) error
	GetByID(userID, id string) (*models.Notification, error)
	List(userID string, filter ListFilter) ([]models.Notification, int64, error)
	UnreadCount(userID string) (int64, error)
	MarkAsRead(userID string, ids []string, at time.Time) (int64, error)
	MarkAllAsRead(userID string, at time.Time) (int64, error)
	Delete(userID, id string) (int64, error)
	Archive(userID, id string) error
	Stats(userID string) (*models.NotificationStats, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *models.Notification) error {
	if err := r.db.Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(userID, id string) (*models.Notification, error) {
	var n models.Notification
	err := r.db.Where("user_id = ? AND id = ?", userID, id).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) List(userID string, filter ListFilter) ([]models.Notification, int64, error) {
	query := r.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Tipo != "" {
		query = query.Where("tipo = ?", filter.Tipo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	var notifications []models.Notification
	err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&notifications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

func (r *notificationRepository) UnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, models.StatusUnread).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead only touches rows still unread, so re-marking an already read
// notification leaves its read_at unchanged.
func (r *notificationRepository) MarkAsRead(userID string, ids []string, at time.Time) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ? AND status = ?", userID, ids, models.StatusUnread).
		Updates(map[string]interface{}{
			"status":  models.StatusRead,
			"read_at": at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) MarkAllAsRead(userID string, at time.Time) (int64, error) {
	result := r.db.Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, models.StatusUnread).
		Updates(map[string]interface{}{
			"status":  models.StatusRead,
			"read_at": at,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Delete(userID, id string) (int64, error) {
	result := r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Archive(userID, id string) error {
	n, err := r.GetByID(userID, id)
	if err != nil {
		return err
	}
	if !models.CanTransition(n.Status, models.StatusArchived) {
		return fmt.Errorf("cannot archive notification in status %s", n.Status)
	}

	updates := map[string]interface{}{"status": models.StatusArchived}
	if n.ReadAt == nil {
		// Archiving an unread notification implies it was seen
		updates["read_at"] = time.Now().UTC()
	}
	err = r.db.Model(&models.Notification{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to archive notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Stats(userID string) (*models.NotificationStats, error) {
	stats := &models.NotificationStats{ByType: make(map[string]int64)}

	err := r.db.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&stats.Total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	unread, err := r.UnreadCount(userID)
	if err != nil {
		return nil, err
	}
	stats.Unread = unread

	rows := []struct {
		Tipo  string
		Count int64
	}{}
	err = r.db.Model(&models.Notification{}).
		Select("tipo, count(*) as count").
		Where("user_id = ?", userID).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notifications by tipo: %w", err)
	}
	for _, row := range rows {
		stats.ByType[row.Tipo] = row.Count
	}

	return stats, nil
}

func (r *notificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}
