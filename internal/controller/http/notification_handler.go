package http

import (
	"errors"
	"net/http"
	"strconv"

	"notihub/internal/repo/persistent"
	"notihub/internal/usecase"
	"notihub/pkg/jwt"
	"notihub/pkg/logger"
	"notihub/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type NotificationHandler struct {
	notificationUseCase usecase.NotificationUseCase
	redisClient         *redis.Client
	logger              *logger.Logger
	jwtService          *jwt.Service
	maxPageSize         int
}

func NewNotificationHandler(notificationUseCase usecase.NotificationUseCase, redisClient *redis.Client, log *logger.Logger, jwtService *jwt.Service, maxPageSize int) *NotificationHandler {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
		redisClient:         redisClient,
		logger:              log,
		jwtService:          jwtService,
		maxPageSize:         maxPageSize,
	}
}

type SendNotificationRequest struct {
	UserID    string            `json:"user_id" binding:"required"`
	TenantID  string            `json:"tenant_id"`
	Title     string            `json:"title" binding:"required"`
	Message   string            `json:"message" binding:"required"`
	Tipo      string            `json:"tipo"`
	Dados     map[string]string `json:"dados,omitempty"`
	ActionURL string            `json:"action_url"`
}

type BroadcastNotificationRequest struct {
	UserIDs   []string          `json:"user_ids" binding:"required,min=1"`
	Title     string            `json:"title" binding:"required"`
	Message   string            `json:"message" binding:"required"`
	Tipo      string            `json:"tipo"`
	Dados     map[string]string `json:"dados,omitempty"`
	ActionURL string            `json:"action_url"`
}

type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notificationIds" binding:"required,min=1"`
}

// GetNotifications godoc
// @Summary      List notifications
// @Description  Paged notifications for the authenticated user, newest first
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number (1-based)"
// @Param        limit query int false "Page size"
// @Param        status query string false "Filter by status (nao_lida, lida, arquivada)"
// @Param        tipo query string false "Filter by category (info, success, warning, error)"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
			page = parsed
		}
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= h.maxPageSize {
			limit = parsed
		}
	}

	filter := persistent.ListFilter{
		Status: models.NotificationStatus(c.Query("status")),
		Tipo:   models.NotificationTipo(c.Query("tipo")),
		Page:   page,
		Limit:  limit,
	}

	notifications, total, err := h.notificationUseCase.List(userID, filter)
	if err != nil {
		h.logger.Error("Failed to list notifications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// GetUnreadCount godoc
// @Summary      Unread notification count
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int
// @Failure      500  {object}  map[string]string
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	count, err := h.notificationUseCase.UnreadCount(userID)
	if err != nil {
		h.logger.Error("Failed to get unread count: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkAsRead godoc
// @Summary      Mark notifications as read
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body MarkAsReadRequest true "Notification IDs"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /notifications/mark-read [post]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req MarkAsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.notificationUseCase.MarkAsRead(userID, req.NotificationIDs)
	if err != nil {
		h.logger.Error("Failed to mark notifications as read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notifications marked as read", "updated": updated})
}

// MarkAllAsRead godoc
// @Summary      Mark every notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /notifications/mark-all-read [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	updated, err := h.notificationUseCase.MarkAllAsRead(userID)
	if err != nil {
		h.logger.Error("Failed to mark all notifications as read: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark all notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})
}

// DeleteNotification godoc
// @Summary      Delete one notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Notification ID"
// @Success      200  {object}  map[string]string
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notification ID required"})
		return
	}

	if err := h.notificationUseCase.Delete(userID, id); err != nil {
		h.logger.Error("Failed to delete notification: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// ArchiveNotification godoc
// @Summary      Archive one notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Notification ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notifications/{id}/archive [post]
func (h *NotificationHandler) ArchiveNotification(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	err := h.notificationUseCase.Archive(userID, id)
	if errors.Is(err, persistent.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to archive notification: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification archived"})
}

// GetStats godoc
// @Summary      Notification statistics
// @Description  Total, unread and per-category counts for the authenticated user
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.NotificationStats
// @Router       /notifications/stats [get]
func (h *NotificationHandler) GetStats(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	stats, err := h.notificationUseCase.Stats(userID)
	if err != nil {
		h.logger.Error("Failed to get notification stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *NotificationHandler) SendNotification(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.notificationUseCase.Create(req.UserID, req.TenantID, req.Title, req.Message,
		models.NotificationTipo(req.Tipo), req.Dados, req.ActionURL)
	if err != nil {
		h.logger.Error("Failed to send notification: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Notification sent successfully",
		"notification": notification,
	})
}

func (h *NotificationHandler) BroadcastNotification(c *gin.Context) {
	var req BroadcastNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sentCount, err := h.notificationUseCase.Broadcast(req.UserIDs, req.Title, req.Message,
		models.NotificationTipo(req.Tipo), req.Dados, req.ActionURL)
	if err != nil {
		h.logger.Error("Failed to broadcast notification: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to broadcast notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Notifications sent successfully",
		"sent_count": sentCount,
	})
}
