package dto

import "time"

// OrderItemDTO - позиция заказа в виде для интерфейса.
type OrderItemDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// SessionSummaryDTO - сводка сессии стола для интерфейса официанта.
type SessionSummaryDTO struct {
	SessionID   uint64         `json:"session_id"`
	TableNumber int            `json:"table_number"`
	OrderID     uint64         `json:"order_id"`
	Status      string         `json:"status"`
	Total       float64        `json:"total"`
	Items       []OrderItemDTO `json:"items"`
	OpenedAt    time.Time      `json:"opened_at"`
}

// EnterContextDTO - вход в контекст ресторана (официант открыл смену).
type EnterContextDTO struct {
	UserID       uint64 `json:"user_id" validate:"required"`
	RestaurantID uint64 `json:"restaurant_id" validate:"required"`
}

// ChooseTableDTO - выбранный стол, попадает в сохраняемое состояние.
type ChooseTableDTO struct {
	TableNumber int `json:"table_number" validate:"required"`
}

// DevTokenDTO - токен для локальной разработки без хостинг-бэкенда.
type DevTokenDTO struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
