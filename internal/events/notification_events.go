package events

import "resto-sync/internal/dto"

// NotificationReceivedEvent возникает после того, как реле приняло,
// проверило и положило в состояние новое уведомление. Слушатели
// выполняют рассылку оповещений (тост, системное уведомление, звук).
type NotificationReceivedEvent struct {
	UserID uint64
	Entry  dto.NotificationEntryDTO
}

func (e NotificationReceivedEvent) Name() string {
	return "notification.received"
}
