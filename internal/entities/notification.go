package entities

import (
	"time"

	"github.com/aarondl/null/v8"
)

// Приоритеты уведомлений.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// NormalizePriority приводит неизвестный или пустой приоритет к normal.
func NormalizePriority(priority string) string {
	switch priority {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return priority
	default:
		return PriorityNormal
	}
}

// Адресация уведомления.
const (
	TargetAllStaff = "all_staff"
	TargetRoles    = "roles"
	TargetUsers    = "users"
)

// NotificationRecord - само уведомление. Создается внешним отправителем,
// здесь только читается.
type NotificationRecord struct {
	ID        uint64      `json:"id"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Type      string      `json:"type"`
	Priority  string      `json:"priority"`
	SenderID  null.Uint64 `json:"sender_id"`
	Target    string      `json:"target"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserNotification - связка уведомления с одним получателем в одном ресторане.
// Мутируется только отметкой о прочтении.
type UserNotification struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	RestaurantID   uint64    `json:"restaurant_id"`
	NotificationID uint64    `json:"notification_id"`
	IsRead         bool      `json:"is_read"`
	ReadAt         null.Time `json:"read_at"`
	CreatedAt      time.Time `json:"created_at"`
}
