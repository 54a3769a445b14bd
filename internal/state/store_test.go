package state

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"resto-sync/internal/dto"
)

func newTestStore() *Store {
	return NewStore("test", time.Hour, nil, zap.NewNop())
}

func makeEntry(id uint64, isRead bool) dto.NotificationEntryDTO {
	return dto.NotificationEntryDTO{
		ID:           id,
		UserID:       7,
		RestaurantID: 3,
		Notification: dto.NotificationDTO{
			ID:      id + 1000,
			Title:   fmt.Sprintf("Заголовок %d", id),
			Message: "Сообщение",
		},
		IsRead:    isRead,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSetNotifications_CountsUnread(t *testing.T) {
	store := newTestStore()

	store.SetNotifications([]dto.NotificationEntryDTO{
		makeEntry(1, false),
		makeEntry(2, true),
		makeEntry(3, false),
	})

	snapshot := store.Snapshot()
	assert.Len(t, snapshot.Notifications, 3)
	assert.Equal(t, 2, snapshot.UnreadCount)
}

func TestSetNotifications_DeduplicatesByID(t *testing.T) {
	store := newTestStore()

	store.SetNotifications([]dto.NotificationEntryDTO{
		makeEntry(1, false),
		makeEntry(1, false),
		makeEntry(2, false),
	})

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Notifications, 2)
	assert.Equal(t, uint64(1), snapshot.Notifications[0].ID)
	assert.Equal(t, uint64(2), snapshot.Notifications[1].ID)
	assert.Equal(t, 2, snapshot.UnreadCount)
}

func TestPrependNotification_RejectsDuplicate(t *testing.T) {
	store := newTestStore()

	require.True(t, store.PrependNotification(makeEntry(1, false)))
	assert.False(t, store.PrependNotification(makeEntry(1, false)))

	snapshot := store.Snapshot()
	assert.Len(t, snapshot.Notifications, 1)
	assert.Equal(t, 1, snapshot.UnreadCount)
}

func TestPrependNotification_ReadEntryDoesNotGrowCounter(t *testing.T) {
	store := newTestStore()

	require.True(t, store.PrependNotification(makeEntry(1, true)))
	assert.Equal(t, 0, store.UnreadCount())
}

func TestPrependNotification_NewestFirst(t *testing.T) {
	store := newTestStore()

	store.PrependNotification(makeEntry(1, false))
	store.PrependNotification(makeEntry(2, false))

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Notifications, 2)
	assert.Equal(t, uint64(2), snapshot.Notifications[0].ID)
}

func TestMarkRead_DecrementsOnce(t *testing.T) {
	store := newTestStore()
	store.SetNotifications([]dto.NotificationEntryDTO{
		makeEntry(1, false),
		makeEntry(2, false),
	})

	require.True(t, store.MarkRead(1))
	assert.Equal(t, 1, store.UnreadCount())

	// повторная отметка той же записи счетчик не трогает
	require.True(t, store.MarkRead(1))
	assert.Equal(t, 1, store.UnreadCount())

	snapshot := store.Snapshot()
	assert.True(t, snapshot.Notifications[0].IsRead)
	require.NotNil(t, snapshot.Notifications[0].ReadAt)
}

func TestMarkRead_UnknownID(t *testing.T) {
	store := newTestStore()
	store.SetNotifications([]dto.NotificationEntryDTO{makeEntry(1, false)})

	assert.False(t, store.MarkRead(99))
	assert.Equal(t, 1, store.UnreadCount())
}

func TestMarkRead_CounterNeverNegative(t *testing.T) {
	store := newTestStore()
	// счетчик уже ноль, запись прочитана где-то еще
	store.SetNotifications([]dto.NotificationEntryDTO{makeEntry(1, true)})
	require.Equal(t, 0, store.UnreadCount())

	store.MarkRead(1)
	assert.Equal(t, 0, store.UnreadCount())
}

func TestMarkAllRead(t *testing.T) {
	store := newTestStore()
	store.SetNotifications([]dto.NotificationEntryDTO{
		makeEntry(1, false),
		makeEntry(2, true),
		makeEntry(3, false),
	})

	store.MarkAllRead()

	snapshot := store.Snapshot()
	assert.Equal(t, 0, snapshot.UnreadCount)
	for _, entry := range snapshot.Notifications {
		assert.True(t, entry.IsRead)
		assert.NotNil(t, entry.ReadAt)
	}
}

func TestUnreadInvariant_AfterMixedMutations(t *testing.T) {
	store := newTestStore()

	store.SetNotifications([]dto.NotificationEntryDTO{
		makeEntry(1, false),
		makeEntry(2, true),
	})
	store.PrependNotification(makeEntry(3, false))
	store.MarkRead(1)
	store.PrependNotification(makeEntry(4, true))

	snapshot := store.Snapshot()
	unread := 0
	for _, entry := range snapshot.Notifications {
		if !entry.IsRead {
			unread++
		}
	}
	assert.Equal(t, unread, snapshot.UnreadCount)
}

func TestOnChange_ListenerGetsSnapshotAfterEveryMutation(t *testing.T) {
	store := newTestStore()

	var mu sync.Mutex
	var snapshots []dto.ViewStateDTO
	store.OnChange(func(snapshot dto.ViewStateDTO) {
		mu.Lock()
		snapshots = append(snapshots, snapshot)
		mu.Unlock()
	})

	store.PrependNotification(makeEntry(1, false))
	store.SetChosenTable(12)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snapshots, 2)
	assert.Equal(t, 1, snapshots[0].UnreadCount)
	assert.Equal(t, 12, snapshots[1].ChosenTable)
}

func TestOnChange_ConcurrentMutationsDeliverInOrder(t *testing.T) {
	store := newTestStore()

	var mu sync.Mutex
	var counts []int
	store.OnChange(func(snapshot dto.ViewStateDTO) {
		// медленный слушатель, как хаб с сериализацией и рассылкой
		time.Sleep(200 * time.Microsecond)
		mu.Lock()
		counts = append(counts, len(snapshot.Notifications))
		mu.Unlock()
	})

	const writers = 100
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(id uint64) {
			defer wg.Done()
			store.PrependNotification(makeEntry(id, false))
		}(uint64(i + 1))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, counts, writers)
	// снимок никогда не приходит позже более нового: интерфейс
	// не должен видеть откат состояния
	for i := 1; i < len(counts); i++ {
		require.Greater(t, counts[i], counts[i-1])
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	store := newTestStore()
	store.SetNotifications([]dto.NotificationEntryDTO{makeEntry(1, false)})

	snapshot := store.Snapshot()
	snapshot.Notifications[0].IsRead = true

	assert.False(t, store.Snapshot().Notifications[0].IsRead)
	assert.Equal(t, 1, store.UnreadCount())
}

func TestSetSessions_ReplacesWholeList(t *testing.T) {
	store := newTestStore()

	store.SetSessions([]dto.SessionSummaryDTO{
		{SessionID: 1, TableNumber: 4},
		{SessionID: 2, TableNumber: 5},
	})
	store.SetSessions([]dto.SessionSummaryDTO{
		{SessionID: 3, TableNumber: 6},
	})

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Sessions, 1)
	assert.Equal(t, uint64(3), snapshot.Sessions[0].SessionID)
}

// fakeCache - кэш в памяти для проверки сохранения и восстановления снимка.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.data[key]
	if !ok {
		return "", fmt.Errorf("ключ %s не найден", key)
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return fmt.Errorf("неожиданный тип значения %T", value)
	}
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	cache := newFakeCache()
	ctx := context.Background()

	store := NewStore("waiter", time.Hour, cache, zap.NewNop())
	store.SetSessions([]dto.SessionSummaryDTO{{SessionID: 9, TableNumber: 2}})
	store.SetChosenTable(2)
	store.SetNotifications([]dto.NotificationEntryDTO{
		makeEntry(1, true),
		makeEntry(2, false),
	})
	require.NoError(t, store.Persist(ctx))

	restored := NewStore("waiter", time.Hour, cache, zap.NewNop())
	require.NoError(t, restored.Restore(ctx))

	snapshot := restored.Snapshot()
	require.Len(t, snapshot.Sessions, 1)
	assert.Equal(t, uint64(9), snapshot.Sessions[0].SessionID)
	assert.Equal(t, 2, snapshot.ChosenTable)

	// отметки о прочтении накладываются на следующую начальную выборку:
	// запись 1 была прочитана до перезапуска, хоть выборка и говорит иначе
	restored.SetNotifications([]dto.NotificationEntryDTO{
		makeEntry(1, false),
		makeEntry(2, false),
	})
	snapshot = restored.Snapshot()
	assert.True(t, snapshot.Notifications[0].IsRead)
	assert.False(t, snapshot.Notifications[1].IsRead)
	assert.Equal(t, 1, snapshot.UnreadCount)
}

func TestRestore_MissingSnapshotIsNotAnError(t *testing.T) {
	store := NewStore("empty", time.Hour, newFakeCache(), zap.NewNop())
	assert.NoError(t, store.Restore(context.Background()))
}

func TestClear_ResetsStateAndDeletesSnapshot(t *testing.T) {
	cache := newFakeCache()
	ctx := context.Background()

	store := NewStore("waiter", time.Hour, cache, zap.NewNop())
	store.SetNotifications([]dto.NotificationEntryDTO{makeEntry(1, false)})
	store.SetChosenTable(4)
	require.NoError(t, store.Persist(ctx))

	require.NoError(t, store.Clear(ctx))

	snapshot := store.Snapshot()
	assert.Empty(t, snapshot.Notifications)
	assert.Empty(t, snapshot.Sessions)
	assert.Equal(t, 0, snapshot.UnreadCount)
	assert.Equal(t, 0, snapshot.ChosenTable)

	_, err := cache.Get(ctx, "viewstate:waiter")
	assert.Error(t, err)
}
