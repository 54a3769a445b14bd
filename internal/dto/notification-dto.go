package dto

import "time"

// SenderDTO - отображаемая информация об отправителе уведомления.
type SenderDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// NotificationDTO - проверенная на границе форма уведомления.
// Собирается сразу после выборки; обработчики дальше работают
// только с ней, а не с сырыми полями события.
type NotificationDTO struct {
	ID        uint64    `json:"id" validate:"required"`
	Title     string    `json:"title" validate:"required"`
	Message   string    `json:"message" validate:"required"`
	Type      string    `json:"type"`
	Priority  string    `json:"priority"`
	Sender    SenderDTO `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationEntryDTO - элемент списка уведомлений пользователя:
// связка user_notification + само уведомление. Идентичность - ID связки.
type NotificationEntryDTO struct {
	ID           uint64          `json:"id"`
	UserID       uint64          `json:"user_id"`
	RestaurantID uint64          `json:"restaurant_id"`
	Notification NotificationDTO `json:"notification"`
	IsRead       bool            `json:"is_read"`
	ReadAt       *time.Time      `json:"read_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MarkAllReadDTO - запрос на массовую отметку о прочтении.
type MarkAllReadDTO struct {
	UserID       uint64 `json:"user_id" validate:"required"`
	RestaurantID uint64 `json:"restaurant_id" validate:"required"`
}
