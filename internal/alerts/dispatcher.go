package alerts

import (
	"go.uber.org/zap"

	"resto-sync/internal/dto"
	appwebsocket "resto-sync/pkg/websocket"
)

// ToastSender - доставка тостов во вкладки интерфейса. Реализуется хабом.
type ToastSender interface {
	SendToUser(userID uint64, payload interface{}, messageType string) error
}

// DispatcherInterface - рассылка оповещений по одному принятому уведомлению.
type DispatcherInterface interface {
	Dispatch(userID uint64, entry dto.NotificationEntryDTO)
}

// Dispatcher применяет политику приоритета: тост всегда, системное
// уведомление и звук - по таблице. Ошибки здесь никогда не всплывают
// наружу: оповещение - это украшение, а не требование корректности.
type Dispatcher struct {
	toasts   ToastSender
	notifier SystemNotifier
	logger   *zap.Logger
}

func NewDispatcher(toasts ToastSender, notifier SystemNotifier, logger *zap.Logger) DispatcherInterface {
	return &Dispatcher{
		toasts:   toasts,
		notifier: notifier,
		logger:   logger,
	}
}

func (d *Dispatcher) Dispatch(userID uint64, entry dto.NotificationEntryDTO) {
	policy := PolicyFor(entry.Notification.Priority)

	toast := appwebsocket.ToastPayload{
		EntryID:       entry.ID,
		Title:         entry.Notification.Title,
		Message:       entry.Notification.Message,
		Priority:      entry.Notification.Priority,
		AutoDismissMs: policy.AutoDismiss.Milliseconds(),
		SenderName:    entry.Notification.Sender.Name,
		CreatedAt:     entry.Notification.CreatedAt,
	}
	if policy.PlaySound {
		toast.Sound = policy.Sound
	}

	if err := d.toasts.SendToUser(userID, toast, appwebsocket.MessageTypeToast); err != nil {
		d.logger.Warn("Тост не доставлен", zap.Uint64("userID", userID), zap.Error(err))
	}

	if err := d.notifier.Notify(entry.Notification.Title, entry.Notification.Message, policy.RequireInteraction); err != nil {
		// разрешение не выдано или нет рабочего стола - молча пропускаем
		d.logger.Debug("Системное уведомление пропущено", zap.Error(err))
	}

	if policy.PlaySound {
		if err := d.notifier.Beep(); err != nil {
			d.logger.Debug("Звуковой сигнал пропущен", zap.Error(err))
		}
	}
}
