package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"notihub/pkg/models"

	"github.com/stretchr/testify/assert"
)

type hubStub struct {
	server   *httptest.Server
	requests int32

	listStatus int
	list       []models.Notification
	count      int
	mutStatus  int
}

func newHubStub() *hubStub {
	h := &hubStub{listStatus: http.StatusOK, mutStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.requests, 1)
		json.NewEncoder(w).Encode(map[string]int{"count": h.count})
	})
	mux.HandleFunc("/api/v1/notifications/mark-read", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.requests, 1)
		w.WriteHeader(h.mutStatus)
	})
	mux.HandleFunc("/api/v1/notifications/mark-all-read", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.requests, 1)
		w.WriteHeader(h.mutStatus)
	})
	mux.HandleFunc("/api/v1/notifications/stats", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.requests, 1)
		json.NewEncoder(w).Encode(models.NotificationStats{
			Total: 5, Unread: 2, ByType: map[string]int64{"info": 5},
		})
	})
	mux.HandleFunc("/api/v1/notifications/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.requests, 1)
		w.WriteHeader(h.mutStatus)
	})
	mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.requests, 1)
		if h.listStatus != http.StatusOK {
			w.WriteHeader(h.listStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"notifications": h.list,
			"total":         len(h.list),
		})
	})
	h.server = httptest.NewServer(mux)
	return h
}

func newTestClient(h *hubStub) *Client {
	return New(Config{BaseURL: h.server.URL})
}

// setToken arms the facade without opening the push channel.
func setToken(c *Client, token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func TestFacade_NoToken_NoOp(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	c := newTestClient(h)

	ctx := context.Background()
	assert.NoError(t, c.List(ctx, ListOptions{}))
	assert.NoError(t, c.UnreadCount(ctx))
	assert.NoError(t, c.MarkAsRead(ctx, []string{"n-1"}))
	assert.NoError(t, c.MarkAllAsRead(ctx))
	assert.NoError(t, c.Delete(ctx, "n-1"))

	stats, err := c.Stats(ctx)
	assert.NoError(t, err)
	assert.Nil(t, stats)

	// Nothing ever reached the server
	assert.Equal(t, int32(0), atomic.LoadInt32(&h.requests))
}

func TestList_ReplacesStoreWholesale(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	h.list = []models.Notification{
		{ID: "n-2", Status: models.StatusUnread},
		{ID: "n-1", Status: models.StatusRead},
	}
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{{ID: "stale"}})

	err := c.List(context.Background(), ListOptions{Page: 1, Limit: 20})
	assert.NoError(t, err)

	snap := c.Store().Snapshot()
	assert.Len(t, snap.Notifications, 2)
	assert.Equal(t, "n-2", snap.Notifications[0].ID)
}

func TestList_FailureLeavesStoreUntouched(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	h.listStatus = http.StatusInternalServerError
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{{ID: "kept"}})

	err := c.List(context.Background(), ListOptions{})
	assert.Error(t, err)

	var reqErr *RequestError
	assert.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)

	snap := c.Store().Snapshot()
	assert.Len(t, snap.Notifications, 1)
	assert.Equal(t, "kept", snap.Notifications[0].ID)
}

func TestUnreadCount_SetsCounter(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	h.count = 7
	c := newTestClient(h)
	setToken(c, "token-1")

	assert.NoError(t, c.UnreadCount(context.Background()))
	assert.Equal(t, 7, c.Store().Snapshot().UnreadCount)
}

func TestMarkAsRead_PatchesThenRefreshesCount(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	h.count = 1
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{
		{ID: "n-1", Status: models.StatusUnread},
		{ID: "n-2", Status: models.StatusUnread},
	})
	c.Store().SetUnreadCount(2)

	err := c.MarkAsRead(context.Background(), []string{"n-1"})
	assert.NoError(t, err)

	snap := c.Store().Snapshot()
	assert.Equal(t, models.StatusRead, snap.Notifications[0].Status)
	assert.NotNil(t, snap.Notifications[0].ReadAt)
	assert.Equal(t, models.StatusUnread, snap.Notifications[1].Status)
	// Counter came back from the server, not from local arithmetic
	assert.Equal(t, 1, snap.UnreadCount)
}

func TestMarkAsRead_EmptyIDs(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	c := newTestClient(h)
	setToken(c, "token-1")

	err := c.MarkAsRead(context.Background(), nil)
	assert.Error(t, err)
}

func TestMarkAsRead_FailureLeavesStoreUntouched(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	h.mutStatus = http.StatusBadGateway
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{{ID: "n-1", Status: models.StatusUnread}})
	c.Store().SetUnreadCount(1)

	err := c.MarkAsRead(context.Background(), []string{"n-1"})
	assert.Error(t, err)

	snap := c.Store().Snapshot()
	assert.Equal(t, models.StatusUnread, snap.Notifications[0].Status)
	assert.Equal(t, 1, snap.UnreadCount)
}

func TestMarkAllAsRead(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{
		{ID: "n-1", Status: models.StatusUnread},
		{ID: "n-2", Status: models.StatusUnread},
	})
	c.Store().SetUnreadCount(2)

	err := c.MarkAllAsRead(context.Background())
	assert.NoError(t, err)

	snap := c.Store().Snapshot()
	assert.Equal(t, 0, snap.UnreadCount)
	for _, n := range snap.Notifications {
		assert.Equal(t, models.StatusRead, n.Status)
	}
}

func TestDelete_DropsAndRefreshes(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	h.count = 0
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{{ID: "n-1", Status: models.StatusUnread}})
	c.Store().SetUnreadCount(1)

	err := c.Delete(context.Background(), "n-1")
	assert.NoError(t, err)

	snap := c.Store().Snapshot()
	assert.Empty(t, snap.Notifications)
	assert.Equal(t, 0, snap.UnreadCount)
}

func TestDelete_UnknownID_NoError(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{{ID: "n-1"}})

	// The server treats deleting a missing id as success
	err := c.Delete(context.Background(), "gone-already")
	assert.NoError(t, err)
	assert.Len(t, c.Store().Snapshot().Notifications, 1)
}

func TestStats_DoesNotMutateList(t *testing.T) {
	h := newHubStub()
	defer h.server.Close()
	c := newTestClient(h)
	setToken(c, "token-1")
	c.Store().ReplaceAll([]models.Notification{{ID: "n-1"}})

	stats, err := c.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(2), stats.Unread)
	assert.Equal(t, int64(5), stats.ByType["info"])

	assert.Len(t, c.Store().Snapshot().Notifications, 1)
}
