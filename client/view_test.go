package client

import (
	"testing"

	"notihub/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestBadgeLabel(t *testing.T) {
	assert.Equal(t, "", BadgeLabel(0))
	assert.Equal(t, "1", BadgeLabel(1))
	assert.Equal(t, "42", BadgeLabel(42))
	assert.Equal(t, "99", BadgeLabel(99))
	assert.Equal(t, "99+", BadgeLabel(100))
	assert.Equal(t, "99+", BadgeLabel(150))
}

func TestBuildBadge(t *testing.T) {
	b := BuildBadge(42, true)
	assert.Equal(t, "42", b.Label)
	assert.True(t, b.ShowPill)
	assert.True(t, b.Connected)

	b = BuildBadge(0, false)
	assert.Empty(t, b.Label)
	assert.False(t, b.ShowPill)
	assert.False(t, b.Connected)
}

func TestFilterNotifications_DoesNotMutateInput(t *testing.T) {
	items := []models.Notification{
		{ID: "n-1", Status: models.StatusUnread},
		{ID: "n-2", Status: models.StatusRead},
		{ID: "n-3", Status: models.StatusUnread},
	}

	unread := FilterNotifications(items, FilterUnread)
	read := FilterNotifications(items, FilterRead)
	all := FilterNotifications(items, FilterAll)

	assert.Len(t, unread, 2)
	assert.Len(t, read, 1)
	assert.Len(t, all, 3)

	// The input survives every filter untouched
	assert.Len(t, items, 3)
	assert.Equal(t, models.StatusUnread, items[0].Status)

	// Unread filter result matches a direct count over the full list
	directCount := 0
	for _, n := range items {
		if n.Status == models.StatusUnread {
			directCount++
		}
	}
	assert.Equal(t, directCount, len(unread))
}

func TestFilterNotifications_ReadIncludesArchived(t *testing.T) {
	items := []models.Notification{
		{ID: "n-1", Status: models.StatusRead},
		{ID: "n-2", Status: models.StatusArchived},
	}

	read := FilterNotifications(items, FilterRead)
	assert.Len(t, read, 2)
}

func TestBuildPanel_MarkAllVisibility(t *testing.T) {
	snap := Snapshot{
		Notifications: []models.Notification{{ID: "n-1", Status: models.StatusUnread}},
		UnreadCount:   1,
	}
	panel := BuildPanel(snap, FilterAll)
	assert.True(t, panel.ShowMarkAll)

	snap.UnreadCount = 0
	panel = BuildPanel(snap, FilterAll)
	assert.False(t, panel.ShowMarkAll)
}

func TestBuildPanel_EmptyStatesPerFilter(t *testing.T) {
	snap := Snapshot{}

	assert.Equal(t, "No notifications", BuildPanel(snap, FilterAll).EmptyText)
	assert.Equal(t, "No unread notifications", BuildPanel(snap, FilterUnread).EmptyText)
	assert.Equal(t, "No read notifications", BuildPanel(snap, FilterRead).EmptyText)

	// A populated tab has no empty text
	snap.Notifications = []models.Notification{{ID: "n-1", Status: models.StatusUnread}}
	assert.Empty(t, BuildPanel(snap, FilterAll).EmptyText)
}

func TestBuildPanel_PreservesOrder(t *testing.T) {
	snap := Snapshot{Notifications: []models.Notification{
		{ID: "newest", Status: models.StatusUnread},
		{ID: "older", Status: models.StatusUnread},
	}}

	panel := BuildPanel(snap, FilterUnread)
	assert.Equal(t, "newest", panel.Items[0].ID)
	assert.Equal(t, "older", panel.Items[1].ID)
}
