package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"resto-sync/internal/dto"
	"resto-sync/internal/entities"
	"resto-sync/internal/events"
	"resto-sync/internal/repositories"
	"resto-sync/internal/state"
	apperrors "resto-sync/pkg/errors"
	"resto-sync/pkg/eventbus"
	"resto-sync/pkg/realtime"
)

const (
	initialFetchLimit = 50
	fetchTimeout      = 10 * time.Second
)

// NotificationRelayInterface доставляет оповещения вошедшему пользователю
// и поддерживает список уведомлений со счетчиком непрочитанных.
type NotificationRelayInterface interface {
	FetchInitial(ctx context.Context, userID, restaurantID uint64) error
	Subscribe(ctx context.Context, userID, restaurantID uint64) error
	MarkAsRead(ctx context.Context, userNotificationID uint64) error
	MarkAllAsRead(ctx context.Context, userID, restaurantID uint64) error
	Unsubscribe()
}

type NotificationRelay struct {
	rt        realtime.Subscriber
	notifRepo repositories.NotificationRepositoryInterface
	store     *state.Store
	bus       *eventbus.Bus
	validate  *validator.Validate
	logger    *zap.Logger

	mu           sync.Mutex
	sub          realtime.Subscription
	gen          uint64
	genSeq       uint64
	userID       uint64
	restaurantID uint64
}

func NewNotificationRelay(
	rt realtime.Subscriber,
	notifRepo repositories.NotificationRepositoryInterface,
	store *state.Store,
	bus *eventbus.Bus,
	validate *validator.Validate,
	logger *zap.Logger,
) *NotificationRelay {
	return &NotificationRelay{
		rt:        rt,
		notifRepo: notifRepo,
		store:     store,
		bus:       bus,
		validate:  validate,
		logger:    logger,
	}
}

// FetchInitial выбирает до 50 последних уведомлений пользователя в
// ресторане и атомарно замещает список и счетчик в состоянии.
func (r *NotificationRelay) FetchInitial(ctx context.Context, userID, restaurantID uint64) error {
	if userID == 0 || restaurantID == 0 {
		return apperrors.ErrInvalidScope
	}

	entries, err := r.notifRepo.GetRecent(ctx, userID, restaurantID, initialFetchLimit)
	if err != nil {
		r.logger.Error("Начальная выборка уведомлений не удалась", zap.Error(err))
		return err
	}

	// SetNotifications дедуплицирует по ID (бэкенд через join может вернуть
	// строку дважды) и пересчитывает счетчик в той же критической секции
	r.store.SetNotifications(entries)
	return nil
}

// Subscribe открывает подписку строго по user_id: серверный фильтр
// исключает утечку между арендаторами. Прежняя подписка освобождается.
func (r *NotificationRelay) Subscribe(ctx context.Context, userID, restaurantID uint64) error {
	if userID == 0 || restaurantID == 0 {
		return apperrors.ErrInvalidScope
	}

	r.Unsubscribe()

	r.mu.Lock()
	r.genSeq++
	gen := r.genSeq
	r.gen = gen
	r.userID = userID
	r.restaurantID = restaurantID
	r.mu.Unlock()

	opts := realtime.SubscribeOptions{
		Channel: fmt.Sprintf("notifications:%d:%s", userID, uuid.NewString()[:8]),
		Bindings: []realtime.Binding{
			{Event: "*", Schema: "public", Table: "user_notifications", Filter: fmt.Sprintf("user_id=eq.%d", userID)},
		},
		OnEvent: func(ev realtime.ChangeEvent) { r.handleChange(gen, ev) },
		OnError: func(err error) {
			r.logger.Warn("Подписка на уведомления оборвалась", zap.Error(err))
		},
	}

	sub, err := r.rt.Subscribe(ctx, opts)
	if err != nil {
		r.logger.Error("Не удалось подписаться на уведомления",
			zap.Uint64("userID", userID), zap.Error(err))
		return err
	}

	r.mu.Lock()
	if r.gen != gen {
		r.mu.Unlock()
		_ = sub.Unsubscribe()
		return nil
	}
	r.sub = sub
	r.mu.Unlock()
	return nil
}

func (r *NotificationRelay) isActive(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen == gen
}

// handleChange - обработка одного события вставки из канала изменений.
// Оповещение строится только из проверенной канонической записи,
// никогда из сырой полезной нагрузки события.
func (r *NotificationRelay) handleChange(gen uint64, ev realtime.ChangeEvent) {
	if ev.Type != realtime.ChangeInsert {
		return
	}
	if !r.isActive(gen) {
		return
	}

	r.mu.Lock()
	expectedUser := r.userID
	restaurantID := r.restaurantID
	r.mu.Unlock()

	// защита от неверно настроенного серверного фильтра
	eventUser := recordUint64(ev.Record, "user_id")
	if eventUser != expectedUser {
		r.logger.Debug("Событие чужого пользователя отброшено",
			zap.Uint64("eventUser", eventUser), zap.Uint64("expected", expectedUser))
		return
	}

	notificationID := recordUint64(ev.Record, "notification_id")
	if notificationID == 0 {
		r.logger.Warn("Событие без notification_id отброшено")
		return
	}

	entryID := recordUint64(ev.Record, "id")
	if entryID == 0 {
		r.logger.Warn("Событие без идентификатора записи отброшено")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	notification, err := r.notifRepo.FindNotificationByID(ctx, notificationID)
	if err != nil {
		// пропущенное оповещение не страшно: следующая начальная выборка его поднимет
		r.logger.Warn("Выборка уведомления не удалась, событие отброшено",
			zap.Uint64("notificationID", notificationID), zap.Error(err))
		return
	}

	if err := r.validate.Struct(notification); err != nil {
		r.logger.Warn("Уведомление неожиданной формы отброшено на границе",
			zap.Uint64("notificationID", notificationID), zap.Error(err))
		return
	}
	notification.Priority = entities.NormalizePriority(notification.Priority)

	entry := dto.NotificationEntryDTO{
		ID:           entryID,
		UserID:       eventUser,
		RestaurantID: restaurantID,
		Notification: *notification,
		IsRead:       recordBool(ev.Record, "is_read"),
		CreatedAt:    recordTime(ev.Record, "created_at"),
	}

	if !r.isActive(gen) {
		return
	}

	if added := r.store.PrependNotification(entry); !added {
		// повторная доставка, запись уже в списке
		r.logger.Debug("Дубликат уведомления отброшен", zap.Uint64("entryID", entry.ID))
		return
	}

	r.bus.Publish(ctx, events.NotificationReceivedEvent{UserID: eventUser, Entry: entry})
}

// MarkAsRead отмечает запись прочитанной на сервере и в локальном
// состоянии. Счетчик уменьшается не больше чем на единицу и не уходит
// ниже нуля (см. state.Store).
func (r *NotificationRelay) MarkAsRead(ctx context.Context, userNotificationID uint64) error {
	if err := r.notifRepo.MarkAsRead(ctx, userNotificationID); err != nil {
		return err
	}
	r.store.MarkRead(userNotificationID)
	return nil
}

// MarkAllAsRead - одно массовое обновление на сервере, затем локально
// все записи помечаются прочитанными и счетчик обнуляется.
func (r *NotificationRelay) MarkAllAsRead(ctx context.Context, userID, restaurantID uint64) error {
	if userID == 0 || restaurantID == 0 {
		return apperrors.ErrInvalidScope
	}

	affected, err := r.notifRepo.MarkAllAsRead(ctx, userID, restaurantID)
	if err != nil {
		return err
	}
	r.store.MarkAllRead()
	r.logger.Info("Все уведомления отмечены прочитанными", zap.Int64("affected", affected))
	return nil
}

// Unsubscribe освобождает подписку. Идемпотентен.
func (r *NotificationRelay) Unsubscribe() {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.gen = 0
	r.mu.Unlock()

	if sub != nil {
		_ = sub.Unsubscribe()
	}
}
