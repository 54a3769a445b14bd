package relay

import (
	"context"
	"errors"
	"sync"

	"resto-sync/internal/dto"
	"resto-sync/pkg/realtime"
)

// fakeSubscription считает вызовы Unsubscribe.
type fakeSubscription struct {
	mu           sync.Mutex
	topic        string
	unsubscribed int
}

func (f *fakeSubscription) ID() string    { return "fake" }
func (f *fakeSubscription) Topic() string { return f.topic }
func (f *fakeSubscription) State() realtime.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsubscribed > 0 {
		return realtime.StateClosed
	}
	return realtime.StateActive
}

func (f *fakeSubscription) Unsubscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed++
	return nil
}

func (f *fakeSubscription) unsubscribeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

// fakeSubscriber перехватывает опции подписки, чтобы тест мог вызывать
// обработчик событий напрямую, без транспорта.
type fakeSubscriber struct {
	mu           sync.Mutex
	err          error
	subs         []*fakeSubscription
	lastOpts     realtime.SubscribeOptions
	subscribeCnt int
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, opts realtime.SubscribeOptions) (realtime.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribeCnt++
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	sub := &fakeSubscription{topic: "realtime:" + opts.Channel}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriber) emit(ev realtime.ChangeEvent) {
	f.mu.Lock()
	onEvent := f.lastOpts.OnEvent
	f.mu.Unlock()
	onEvent(ev)
}

// fakeNotificationRepo - контракты выборки уведомлений в памяти.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	recent        []dto.NotificationEntryDTO
	recentErr     error
	notifications map[uint64]dto.NotificationDTO
	findErr       error
	markReadErr   error
	markReadIDs   []uint64
	markAllCalls  int
	markAllErr    error
}

func (f *fakeNotificationRepo) GetRecent(ctx context.Context, userID, restaurantID, limit uint64) ([]dto.NotificationEntryDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recent, nil
}

func (f *fakeNotificationRepo) FindNotificationByID(ctx context.Context, notificationID uint64) (*dto.NotificationDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	notification, ok := f.notifications[notificationID]
	if !ok {
		return nil, errors.New("уведомление не найдено")
	}
	return &notification, nil
}

func (f *fakeNotificationRepo) MarkAsRead(ctx context.Context, userNotificationID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markReadErr != nil {
		return f.markReadErr
	}
	f.markReadIDs = append(f.markReadIDs, userNotificationID)
	return nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID, restaurantID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markAllErr != nil {
		return 0, f.markAllErr
	}
	f.markAllCalls++
	return 2, nil
}

func (f *fakeNotificationRepo) markAllReadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markAllCalls
}

// fakeSessionRepo отдает заранее заданный список активных сессий.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions []dto.SessionSummaryDTO
	err      error
	calls    int
}

func (f *fakeSessionRepo) GetActiveSessions(ctx context.Context, restaurantID, waiterID uint64) ([]dto.SessionSummaryDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions, nil
}

func (f *fakeSessionRepo) setSessions(sessions []dto.SessionSummaryDTO) {
	f.mu.Lock()
	f.sessions = sessions
	f.mu.Unlock()
}

func (f *fakeSessionRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
