package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notihub/internal/repo/persistent"
	"notihub/internal/usecase"
	"notihub/pkg/logger"
	"notihub/pkg/models"
	"notihub/pkg/queue"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupNotificationTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func authAs(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

// stubUseCase returns canned data so handler tests need no database.
type stubUseCase struct {
	notifications []models.Notification
	unread        int64
	updated       int64
	deletedIDs    []string
	err           error
}

func (s *stubUseCase) Create(userID, tenantID, title, message string, tipo models.NotificationTipo, dados map[string]string, actionURL string) (*models.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Notification{ID: "n-1", UserID: userID, Title: title, Message: message, Tipo: tipo}, nil
}

func (s *stubUseCase) CreateFromTask(task *queue.NotificationTask) error { return s.err }

func (s *stubUseCase) Broadcast(userIDs []string, title, message string, tipo models.NotificationTipo, dados map[string]string, actionURL string) (int, error) {
	return len(userIDs), s.err
}

func (s *stubUseCase) List(userID string, filter persistent.ListFilter) ([]models.Notification, int64, error) {
	return s.notifications, int64(len(s.notifications)), s.err
}

func (s *stubUseCase) UnreadCount(userID string) (int64, error) { return s.unread, s.err }

func (s *stubUseCase) MarkAsRead(userID string, ids []string) (int64, error) {
	return s.updated, s.err
}

func (s *stubUseCase) MarkAllAsRead(userID string) (int64, error) { return s.updated, s.err }

func (s *stubUseCase) Delete(userID, id string) error {
	s.deletedIDs = append(s.deletedIDs, id)
	return s.err
}

func (s *stubUseCase) Archive(userID, id string) error { return s.err }

func (s *stubUseCase) Stats(userID string) (*models.NotificationStats, error) {
	return &models.NotificationStats{Total: 3, Unread: s.unread, ByType: map[string]int64{"info": 3}}, s.err
}

func (s *stubUseCase) PurgeExpired(ttl time.Duration) (int64, error) { return 0, s.err }

var _ usecase.NotificationUseCase = (*stubUseCase)(nil)

func newTestHandler(uc usecase.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: uc,
		logger:              logger.New(),
		maxPageSize:         100,
	}
}

func TestGetNotifications_Unauthorized(t *testing.T) {
	handler := newTestHandler(&stubUseCase{})

	router := setupNotificationTestRouter()
	router.GET("/notifications", handler.GetNotifications)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response["error"], "Unauthorized")
}

func TestGetNotifications_Success(t *testing.T) {
	uc := &stubUseCase{notifications: []models.Notification{
		{ID: "n-2", UserID: "user-1", Title: "b", Status: models.StatusUnread},
		{ID: "n-1", UserID: "user-1", Title: "a", Status: models.StatusRead},
	}}
	handler := newTestHandler(uc)

	router := setupNotificationTestRouter()
	router.GET("/notifications", authAs("user-1"), handler.GetNotifications)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications?page=1&limit=10&status=nao_lida&tipo=info", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Notifications []models.Notification `json:"notifications"`
		Total         int64                 `json:"total"`
		Page          int                   `json:"page"`
		Limit         int                   `json:"limit"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Notifications, 2)
	assert.Equal(t, int64(2), response.Total)
	assert.Equal(t, 1, response.Page)
	assert.Equal(t, 10, response.Limit)
}

func TestGetNotifications_EmptyListIsNotNull(t *testing.T) {
	handler := newTestHandler(&stubUseCase{})

	router := setupNotificationTestRouter()
	router.GET("/notifications", authAs("user-1"), handler.GetNotifications)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notifications":[]`)
}

func TestGetUnreadCount(t *testing.T) {
	handler := newTestHandler(&stubUseCase{unread: 42})

	router := setupNotificationTestRouter()
	router.GET("/notifications/unread-count", authAs("user-1"), handler.GetUnreadCount)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/unread-count", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]int
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, 42, response["count"])
}

func TestMarkAsRead_EmptyIDs(t *testing.T) {
	handler := newTestHandler(&stubUseCase{})

	router := setupNotificationTestRouter()
	router.POST("/notifications/mark-read", authAs("user-1"), handler.MarkAsRead)

	body, _ := json.Marshal(map[string][]string{"notificationIds": {}})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/mark-read", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAsRead_Success(t *testing.T) {
	handler := newTestHandler(&stubUseCase{updated: 2})

	router := setupNotificationTestRouter()
	router.POST("/notifications/mark-read", authAs("user-1"), handler.MarkAsRead)

	body, _ := json.Marshal(map[string][]string{"notificationIds": {"n-1", "n-2"}})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/mark-read", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":2`)
}

func TestMarkAllAsRead_Unauthorized(t *testing.T) {
	handler := newTestHandler(&stubUseCase{})

	router := setupNotificationTestRouter()
	router.POST("/notifications/mark-all-read", handler.MarkAllAsRead)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/mark-all-read", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteNotification(t *testing.T) {
	uc := &stubUseCase{}
	handler := newTestHandler(uc)

	router := setupNotificationTestRouter()
	router.DELETE("/notifications/:id", authAs("user-1"), handler.DeleteNotification)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/notifications/n-9", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"n-9"}, uc.deletedIDs)
}

func TestGetStats(t *testing.T) {
	handler := newTestHandler(&stubUseCase{unread: 1})

	router := setupNotificationTestRouter()
	router.GET("/notifications/stats", authAs("user-1"), handler.GetStats)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/stats", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.NotificationStats
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Unread)
	assert.Equal(t, int64(3), stats.ByType["info"])
}

func TestSendNotification_MissingFields(t *testing.T) {
	handler := newTestHandler(&stubUseCase{})

	router := setupNotificationTestRouter()
	router.POST("/notifications/send", handler.SendNotification)

	body, _ := json.Marshal(map[string]string{"user_id": "user-1"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/notifications/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWebSocket_NoToken(t *testing.T) {
	handler := newTestHandler(&stubUseCase{})

	router := setupNotificationTestRouter()
	router.GET("/notifications/ws", handler.HandleWebSocket)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/ws", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
