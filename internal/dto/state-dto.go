package dto

// ViewStateDTO - материализованное состояние, которое читает интерфейс.
// Инвариант: UnreadCount всегда равен числу элементов с IsRead == false.
type ViewStateDTO struct {
	Notifications []NotificationEntryDTO `json:"notifications"`
	UnreadCount   int                    `json:"unread_count"`
	Sessions      []SessionSummaryDTO    `json:"sessions"`
	ChosenTable   int                    `json:"chosen_table,omitempty"`
}
