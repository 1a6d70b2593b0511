package client

import (
	"strconv"

	"notihub/pkg/models"
)

// Filter selects which slice of the loaded list the panel shows. Filtering
// is purely client-side over the snapshot; it never mutates the store.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
	FilterRead   Filter = "read"
)

// BadgeLabel renders the unread pill text: the literal count up to 99,
// "99+" beyond, and nothing at zero.
func BadgeLabel(count int) string {
	if count <= 0 {
		return ""
	}
	if count > 99 {
		return "99+"
	}
	return strconv.Itoa(count)
}

// Badge is the bell binding: pill text plus the connectivity dot state.
type Badge struct {
	Label     string
	ShowPill  bool
	Connected bool
}

func BuildBadge(unreadCount int, connected bool) Badge {
	label := BadgeLabel(unreadCount)
	return Badge{
		Label:     label,
		ShowPill:  label != "",
		Connected: connected,
	}
}

// FilterNotifications returns the records matching the filter, preserving
// order. The input snapshot is not modified.
func FilterNotifications(items []models.Notification, f Filter) []models.Notification {
	out := make([]models.Notification, 0, len(items))
	for _, n := range items {
		switch f {
		case FilterUnread:
			if n.Status == models.StatusUnread {
				out = append(out, n)
			}
		case FilterRead:
			if n.Status != models.StatusUnread {
				out = append(out, n)
			}
		default:
			out = append(out, n)
		}
	}
	return out
}

// Panel is the slide-over binding for one filter tab.
type Panel struct {
	Filter      Filter
	Items       []models.Notification
	ShowMarkAll bool
	EmptyText   string
}

func BuildPanel(snap Snapshot, f Filter) Panel {
	items := FilterNotifications(snap.Notifications, f)

	emptyText := ""
	if len(items) == 0 {
		switch f {
		case FilterUnread:
			emptyText = "No unread notifications"
		case FilterRead:
			emptyText = "No read notifications"
		default:
			emptyText = "No notifications"
		}
	}

	return Panel{
		Filter:      f,
		Items:       items,
		ShowMarkAll: snap.UnreadCount > 0,
		EmptyText:   emptyText,
	}
}
