package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"resto-sync/internal/alerts"
	"resto-sync/internal/events"
	"resto-sync/pkg/eventbus"
)

// AlertListener слушает принятые уведомления и выполняет рассылку
// оповещений. Реле к этому моменту уже проверило и сохранило запись.
type AlertListener struct {
	dispatcher alerts.DispatcherInterface
	logger     *zap.Logger
}

func NewAlertListener(dispatcher alerts.DispatcherInterface, logger *zap.Logger) *AlertListener {
	return &AlertListener{dispatcher: dispatcher, logger: logger}
}

func (l *AlertListener) Register(bus *eventbus.Bus) {
	bus.Subscribe("notification.received", l.handleNotificationReceived)
	l.logger.Info("AlertListener подписан на событие 'notification.received'")
}

func (l *AlertListener) handleNotificationReceived(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.NotificationReceivedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %s", event.Name())
	}

	l.dispatcher.Dispatch(e.UserID, e.Entry)
	return nil
}
