package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resto-sync/internal/state"
	apperrors "resto-sync/pkg/errors"
)

type fakeSessionRelay struct {
	subscribeErr     error
	subscribeCalls   int
	unsubscribeCalls int
	restaurantID     uint64
	waiterID         uint64
}

func (f *fakeSessionRelay) Subscribe(ctx context.Context, restaurantID, waiterID uint64) error {
	f.subscribeCalls++
	f.restaurantID = restaurantID
	f.waiterID = waiterID
	return f.subscribeErr
}

func (f *fakeSessionRelay) Unsubscribe() { f.unsubscribeCalls++ }

func (f *fakeSessionRelay) Refresh(ctx context.Context) error { return nil }

type fakeNotificationRelay struct {
	fetchErr         error
	subscribeErr     error
	fetchCalls       int
	subscribeCalls   int
	unsubscribeCalls int
}

func (f *fakeNotificationRelay) FetchInitial(ctx context.Context, userID, restaurantID uint64) error {
	f.fetchCalls++
	return f.fetchErr
}

func (f *fakeNotificationRelay) Subscribe(ctx context.Context, userID, restaurantID uint64) error {
	f.subscribeCalls++
	return f.subscribeErr
}

func (f *fakeNotificationRelay) MarkAsRead(ctx context.Context, userNotificationID uint64) error {
	return nil
}

func (f *fakeNotificationRelay) MarkAllAsRead(ctx context.Context, userID, restaurantID uint64) error {
	return nil
}

func (f *fakeNotificationRelay) Unsubscribe() { f.unsubscribeCalls++ }

func newSyncServiceForTest(sessionRelay *fakeSessionRelay, notifRelay *fakeNotificationRelay) SyncServiceInterface {
	store := state.NewStore("test", time.Hour, nil, zap.NewNop())
	return NewSyncService(sessionRelay, notifRelay, store, zap.NewNop())
}

func TestEnterRestaurant(t *testing.T) {
	sessionRelay := &fakeSessionRelay{}
	notifRelay := &fakeNotificationRelay{}
	svc := newSyncServiceForTest(sessionRelay, notifRelay)

	require.NoError(t, svc.EnterRestaurant(context.Background(), 7, 3))

	assert.Equal(t, 1, notifRelay.fetchCalls)
	assert.Equal(t, 1, notifRelay.subscribeCalls)
	assert.Equal(t, 1, sessionRelay.subscribeCalls)
	assert.Equal(t, uint64(3), sessionRelay.restaurantID)
	assert.Equal(t, uint64(7), sessionRelay.waiterID)

	userID, restaurantID := svc.CurrentScope()
	assert.Equal(t, uint64(7), userID)
	assert.Equal(t, uint64(3), restaurantID)
}

func TestEnterRestaurant_InvalidScope(t *testing.T) {
	notifRelay := &fakeNotificationRelay{}
	svc := newSyncServiceForTest(&fakeSessionRelay{}, notifRelay)

	assert.ErrorIs(t, svc.EnterRestaurant(context.Background(), 0, 3), apperrors.ErrInvalidScope)
	assert.Equal(t, 0, notifRelay.fetchCalls)
}

func TestEnterRestaurant_FetchFailureIsFatal(t *testing.T) {
	fetchErr := errors.New("база недоступна")
	sessionRelay := &fakeSessionRelay{}
	notifRelay := &fakeNotificationRelay{fetchErr: fetchErr}
	svc := newSyncServiceForTest(sessionRelay, notifRelay)

	assert.ErrorIs(t, svc.EnterRestaurant(context.Background(), 7, 3), fetchErr)
	assert.Equal(t, 0, sessionRelay.subscribeCalls)

	userID, restaurantID := svc.CurrentScope()
	assert.Zero(t, userID)
	assert.Zero(t, restaurantID)
}

func TestEnterRestaurant_SubscribeFailureIsNotFatal(t *testing.T) {
	sessionRelay := &fakeSessionRelay{subscribeErr: errors.New("канал недоступен")}
	notifRelay := &fakeNotificationRelay{subscribeErr: errors.New("канал недоступен")}
	svc := newSyncServiceForTest(sessionRelay, notifRelay)

	require.NoError(t, svc.EnterRestaurant(context.Background(), 7, 3))

	userID, _ := svc.CurrentScope()
	assert.Equal(t, uint64(7), userID)
}

func TestLeaveRestaurant(t *testing.T) {
	sessionRelay := &fakeSessionRelay{}
	notifRelay := &fakeNotificationRelay{}
	svc := newSyncServiceForTest(sessionRelay, notifRelay)
	require.NoError(t, svc.EnterRestaurant(context.Background(), 7, 3))

	require.NoError(t, svc.LeaveRestaurant(context.Background()))

	assert.Equal(t, 1, sessionRelay.unsubscribeCalls)
	assert.Equal(t, 1, notifRelay.unsubscribeCalls)

	userID, restaurantID := svc.CurrentScope()
	assert.Zero(t, userID)
	assert.Zero(t, restaurantID)
}

func TestSignOut(t *testing.T) {
	sessionRelay := &fakeSessionRelay{}
	notifRelay := &fakeNotificationRelay{}
	svc := newSyncServiceForTest(sessionRelay, notifRelay)
	require.NoError(t, svc.EnterRestaurant(context.Background(), 7, 3))

	require.NoError(t, svc.SignOut(context.Background()))

	assert.Equal(t, 1, sessionRelay.unsubscribeCalls)
	assert.Equal(t, 1, notifRelay.unsubscribeCalls)
}
