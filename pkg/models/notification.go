package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationStatus values are the wire vocabulary consumed by existing
// clients and must not be renamed.
type NotificationStatus string

const (
	StatusUnread   NotificationStatus = "nao_lida"
	StatusRead     NotificationStatus = "lida"
	StatusArchived NotificationStatus = "arquivada"
)

// NotificationTipo is the severity/category of a notification.
type NotificationTipo string

const (
	TipoInfo    NotificationTipo = "info"
	TipoSuccess NotificationTipo = "success"
	TipoWarning NotificationTipo = "warning"
	TipoError   NotificationTipo = "error"
)

func ValidTipo(t NotificationTipo) bool {
	switch t {
	case TipoInfo, TipoSuccess, TipoWarning, TipoError:
		return true
	}
	return false
}

// CanTransition reports whether a status change is allowed. The lifecycle
// only moves forward: nao_lida -> lida -> arquivada. Deletion is not a
// status and can happen from any state.
func CanTransition(from, to NotificationStatus) bool {
	switch from {
	case StatusUnread:
		return to == StatusRead || to == StatusArchived
	case StatusRead:
		return to == StatusArchived
	default:
		return false
	}
}

type Notification struct {
	ID        string             `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string             `gorm:"type:uuid;not null;index:idx_notifications_user" json:"usuarioId"`
	TenantID  string             `gorm:"type:uuid;index" json:"tenantId,omitempty"`
	Title     string             `gorm:"type:varchar(255);not null" json:"title"`
	Message   string             `gorm:"type:text;not null" json:"message"`
	Tipo      NotificationTipo   `gorm:"type:varchar(20);not null;default:'info'" json:"tipo"`
	Dados     map[string]string  `gorm:"serializer:json" json:"dados,omitempty"`
	ActionURL string             `gorm:"type:text" json:"actionUrl,omitempty"`
	Status    NotificationStatus `gorm:"type:varchar(20);not null;default:'nao_lida';index:idx_notifications_user" json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	ReadAt    *time.Time         `json:"readAt,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Status == "" {
		n.Status = StatusUnread
	}
	if n.Tipo == "" {
		n.Tipo = TipoInfo
	}
	return nil
}

func (n *Notification) IsUnread() bool {
	return n.Status == StatusUnread
}

// NotificationStats is the aggregate returned by the stats endpoint.
type NotificationStats struct {
	Total  int64            `json:"total"`
	Unread int64            `json:"unread"`
	ByType map[string]int64 `json:"byType"`
}
