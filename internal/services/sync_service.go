package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"resto-sync/internal/relay"
	"resto-sync/internal/state"
	apperrors "resto-sync/pkg/errors"
)

// SyncServiceInterface - жизненный цикл контекста ресторана.
// Вход: восстановить снимок, сделать начальную выборку, открыть обе
// подписки. Выход: закрыть подписки, сохранить или стереть снимок.
type SyncServiceInterface interface {
	EnterRestaurant(ctx context.Context, userID, restaurantID uint64) error
	LeaveRestaurant(ctx context.Context) error
	SignOut(ctx context.Context) error
	CurrentScope() (userID, restaurantID uint64)
}

type syncService struct {
	sessionRelay relay.SessionRelayInterface
	notifRelay   relay.NotificationRelayInterface
	store        *state.Store
	logger       *zap.Logger

	mu           sync.Mutex
	userID       uint64
	restaurantID uint64
}

func NewSyncService(
	sessionRelay relay.SessionRelayInterface,
	notifRelay relay.NotificationRelayInterface,
	store *state.Store,
	logger *zap.Logger,
) SyncServiceInterface {
	return &syncService{
		sessionRelay: sessionRelay,
		notifRelay:   notifRelay,
		store:        store,
		logger:       logger,
	}
}

// EnterRestaurant входит в контекст ресторана. Повторный вход (смена
// ресторана) сначала закрывает прежние подписки внутри самих реле.
func (s *syncService) EnterRestaurant(ctx context.Context, userID, restaurantID uint64) error {
	if userID == 0 || restaurantID == 0 {
		return apperrors.ErrInvalidScope
	}

	if err := s.store.Restore(ctx); err != nil {
		s.logger.Warn("Снимок состояния не восстановлен", zap.Error(err))
	}

	if err := s.notifRelay.FetchInitial(ctx, userID, restaurantID); err != nil {
		return err
	}

	// ошибки подписки не фатальны: вид просто останется устаревшим,
	// пока вызывающий не повторит вход
	if err := s.notifRelay.Subscribe(ctx, userID, restaurantID); err != nil {
		s.logger.Warn("Подписка на уведомления не открыта", zap.Error(err))
	}
	if err := s.sessionRelay.Subscribe(ctx, restaurantID, userID); err != nil {
		s.logger.Warn("Подписка на сессии не открыта", zap.Error(err))
	}

	s.mu.Lock()
	s.userID = userID
	s.restaurantID = restaurantID
	s.mu.Unlock()

	s.logger.Info("Вход в контекст ресторана",
		zap.Uint64("userID", userID), zap.Uint64("restaurantID", restaurantID))
	return nil
}

// LeaveRestaurant выходит из контекста, сохранив снимок состояния.
func (s *syncService) LeaveRestaurant(ctx context.Context) error {
	s.sessionRelay.Unsubscribe()
	s.notifRelay.Unsubscribe()

	s.mu.Lock()
	s.userID = 0
	s.restaurantID = 0
	s.mu.Unlock()

	if err := s.store.Persist(ctx); err != nil {
		s.logger.Warn("Снимок состояния не сохранен", zap.Error(err))
	}
	s.logger.Info("Выход из контекста ресторана")
	return nil
}

// SignOut - выход из аккаунта: подписки закрываются, снимок стирается.
func (s *syncService) SignOut(ctx context.Context) error {
	s.sessionRelay.Unsubscribe()
	s.notifRelay.Unsubscribe()

	s.mu.Lock()
	s.userID = 0
	s.restaurantID = 0
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("Снимок состояния не стерт", zap.Error(err))
	}
	s.logger.Info("Выход из аккаунта, локальное состояние стерто")
	return nil
}

func (s *syncService) CurrentScope() (uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.restaurantID
}
