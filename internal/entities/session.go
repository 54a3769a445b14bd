package entities

import "time"

// Статусы сессии стола.
const (
	SessionStatusOpen    = "open"
	SessionStatusBilling = "billing"
	SessionStatusClosed  = "closed"
)

// SessionSummaryView - денормализованный вид текущей сессии одного стола.
// Клиент не владеет этой сущностью: при любом изменении она
// перечитывается целиком, частичные поля из событий не используются.
type SessionSummaryView struct {
	SessionID    uint64      `json:"session_id"`
	RestaurantID uint64      `json:"restaurant_id"`
	TableNumber  int         `json:"table_number"`
	OrderID      uint64      `json:"order_id"`
	Status       string      `json:"status"`
	Total        float64     `json:"total"`
	Items        []OrderItem `json:"items"`
	OpenedAt     time.Time   `json:"opened_at"`
}

// OrderItem - одна позиция заказа внутри сессии.
type OrderItem struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}
