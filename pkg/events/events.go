// Package events defines the push envelope exchanged over the notification
// websocket. Both the hub and the Go client decode payloads here, at the
// transport boundary, instead of passing untyped maps around.
package events

import (
	"encoding/json"
	"fmt"

	"notihub/pkg/models"
)

const (
	EventNewNotification = "new_notification"
	EventUnreadCount     = "unread_count"
	EventStatusUpdate    = "status_update"
	EventRealTimeUpdate  = "real_time_update"
)

// Status update kinds.
const (
	KindNotificationUpdated = "notification_updated"
	KindNotificationDeleted = "notification_deleted"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type UnreadCountPayload struct {
	Count int `json:"count"`
}

type StatusUpdatePayload struct {
	Kind           string                    `json:"kind"`
	NotificationID string                    `json:"notificationId"`
	Status         models.NotificationStatus `json:"status,omitempty"`
}

func marshal(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

func NewNotification(n *models.Notification) ([]byte, error) {
	return marshal(EventNewNotification, n)
}

func UnreadCount(count int) ([]byte, error) {
	return marshal(EventUnreadCount, UnreadCountPayload{Count: count})
}

func StatusUpdate(kind, notificationID string, status models.NotificationStatus) ([]byte, error) {
	return marshal(EventStatusUpdate, StatusUpdatePayload{
		Kind:           kind,
		NotificationID: notificationID,
		Status:         status,
	})
}

func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("envelope missing event name")
	}
	return &env, nil
}

func (e *Envelope) DecodeNotification() (*models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(e.Data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode notification payload: %w", err)
	}
	return &n, nil
}

func (e *Envelope) DecodeUnreadCount() (int, error) {
	var p UnreadCountPayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return 0, fmt.Errorf("failed to decode unread count payload: %w", err)
	}
	return p.Count, nil
}

func (e *Envelope) DecodeStatusUpdate() (*StatusUpdatePayload, error) {
	var p StatusUpdatePayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode status update payload: %w", err)
	}
	if p.Kind == "" {
		return nil, fmt.Errorf("status update missing kind")
	}
	return &p, nil
}
