package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resto-sync/internal/repositories"
	"resto-sync/internal/state"
	apperrors "resto-sync/pkg/errors"
	"resto-sync/pkg/realtime"
)

const refreshTimeout = 15 * time.Second

// SessionRelayInterface держит вид активных сессий официанта свежим без опроса.
type SessionRelayInterface interface {
	Subscribe(ctx context.Context, restaurantID, waiterID uint64) error
	Unsubscribe()
	Refresh(ctx context.Context) error
}

// SessionRelay подписан на два логических потока - мутации сессий столов
// и мутации позиций заказов. Политика: любое событие инвалидирует весь
// вид, и он перечитывается целиком. Никакого разбора полезной нагрузки:
// частичное слияние реляционного вида чревато ошибками, простота
// важнее экономии запросов.
type SessionRelay struct {
	rt          realtime.Subscriber
	sessionRepo repositories.SessionRepositoryInterface
	store       *state.Store
	logger      *zap.Logger

	mu           sync.Mutex
	sub          realtime.Subscription
	gen          uint64
	genSeq       uint64
	restaurantID uint64
	waiterID     uint64
}

func NewSessionRelay(
	rt realtime.Subscriber,
	sessionRepo repositories.SessionRepositoryInterface,
	store *state.Store,
	logger *zap.Logger,
) *SessionRelay {
	return &SessionRelay{
		rt:          rt,
		sessionRepo: sessionRepo,
		store:       store,
		logger:      logger,
	}
}

// Subscribe открывает подписку на изменения для ресторана. Если реле уже
// было подписано на другую область, прежняя подписка освобождается:
// на одно реле - не больше одной активной подписки.
func (r *SessionRelay) Subscribe(ctx context.Context, restaurantID, waiterID uint64) error {
	if restaurantID == 0 || waiterID == 0 {
		return apperrors.ErrInvalidScope
	}

	r.Unsubscribe()

	r.mu.Lock()
	r.genSeq++
	gen := r.genSeq
	r.gen = gen
	r.restaurantID = restaurantID
	r.waiterID = waiterID
	r.mu.Unlock()

	opts := realtime.SubscribeOptions{
		// uuid в имени исключает коллизию каналов при быстрой переподписке
		Channel: fmt.Sprintf("sessions:%d:%d:%s", restaurantID, waiterID, uuid.NewString()[:8]),
		Bindings: []realtime.Binding{
			{Event: "*", Schema: "public", Table: "table_sessions", Filter: fmt.Sprintf("restaurant_id=eq.%d", restaurantID)},
			{Event: "*", Schema: "public", Table: "order_items"},
		},
		OnEvent: func(ev realtime.ChangeEvent) { r.handleChange(gen) },
		OnError: func(err error) {
			// не фатально: вид остается устаревшим до переподписки
			r.logger.Warn("Подписка на сессии оборвалась", zap.Error(err))
		},
	}

	sub, err := r.rt.Subscribe(ctx, opts)
	if err != nil {
		r.logger.Error("Не удалось подписаться на изменения сессий",
			zap.Uint64("restaurantID", restaurantID), zap.Error(err))
		return err
	}

	r.mu.Lock()
	if r.gen != gen {
		// нас успели переподписать или отписать, новая подписка лишняя
		r.mu.Unlock()
		_ = sub.Unsubscribe()
		return nil
	}
	r.sub = sub
	r.mu.Unlock()

	return r.refresh(ctx, gen)
}

// Refresh перечитывает вид вручную для текущей области.
func (r *SessionRelay) Refresh(ctx context.Context) error {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()
	if gen == 0 {
		return apperrors.ErrNotSubscribed
	}
	return r.refresh(ctx, gen)
}

func (r *SessionRelay) handleChange(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	_ = r.refresh(ctx, gen)
}

func (r *SessionRelay) refresh(ctx context.Context, gen uint64) error {
	r.mu.Lock()
	restaurantID := r.restaurantID
	waiterID := r.waiterID
	active := r.gen == gen
	r.mu.Unlock()
	if !active {
		return nil
	}

	sessions, err := r.sessionRepo.GetActiveSessions(ctx, restaurantID, waiterID)
	if err != nil {
		// вид остается на последнем удачном значении
		r.logger.Warn("Выборка активных сессий не удалась, вид устарел", zap.Error(err))
		return err
	}

	// сверка с текущей подпиской: выборка могла завершиться уже после
	// переключения ресторана, такой результат выбрасывается
	r.mu.Lock()
	active = r.gen == gen
	r.mu.Unlock()
	if !active {
		return nil
	}

	r.store.SetSessions(sessions)
	return nil
}

// Unsubscribe освобождает подписку. Идемпотентен; после возврата ни один
// обработчик не изменит состояние.
func (r *SessionRelay) Unsubscribe() {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.gen = 0
	r.mu.Unlock()

	if sub != nil {
		_ = sub.Unsubscribe()
	}
}
