package websocket

import "time"

// Типы сообщений, которые понимает фронтенд.
const (
	MessageTypeState = "state"
	MessageTypeToast = "toast"
)

// Envelope - конверт для сообщений к вкладкам интерфейса.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ToastPayload - всплывающее оповещение. AutoDismissMs == 0 означает,
// что тост не закрывается сам (приоритет urgent).
type ToastPayload struct {
	EntryID       uint64    `json:"entryId"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Priority      string    `json:"priority"`
	AutoDismissMs int64     `json:"autoDismissMs"`
	Sound         string    `json:"sound,omitempty"`
	SenderName    string    `json:"senderName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
